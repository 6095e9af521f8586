package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"legaldash/internal/analysis"
	"legaldash/internal/analysis/reasoning"
	"legaldash/internal/common/aws"
	"legaldash/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type memoryStore struct {
	bucket  string
	objects map[string][]byte
	err     error
}

func (m *memoryStore) Bucket() string { return m.bucket }

func (m *memoryStore) GetObject(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: get object %s: NoSuchKey", aws.ErrObjectNotFound, key)
	}
	return data, nil
}

// plainText treats the bytes as the document text; "%garbage" extracts nothing.
type plainText struct{}

func (plainText) Extract(data []byte) string {
	if bytes.HasPrefix(data, []byte("%garbage")) {
		return ""
	}
	return string(data)
}

type constReasoner struct {
	reply string
	err   error
	calls atomic.Int32
}

func (c *constReasoner) Complete(_ context.Context, _ string) (string, error) {
	c.calls.Add(1)
	return c.reply, c.err
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, source, target string) (*analysis.Outcome, error) {
	args := m.Called(ctx, source, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Outcome), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

const (
	sueLetterText = "Notice: you breached Section 1 and Section 3 of our agreement. See Section 1 again."
	ndaText       = "Section 1 Confidentiality\nNo disclosure. Section 2 Term\nTwo years."
)

func newStore() *memoryStore {
	return &memoryStore{
		bucket: "legal-docs",
		objects: map[string][]byte{
			"sue.pdf":     []byte(sueLetterText),
			"nda.pdf":     []byte(ndaText),
			"garbage.pdf": []byte("%garbage"),
		},
	}
}

func newTestMux(t *testing.T, store ObjectStore, analyzer Analyzer) *http.ServeMux {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Store:     store,
		Extractor: plainText{},
		Analyzer:  analyzer,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/analyze-documents-minio", h.AnalyzeFromStore)
	mux.HandleFunc("POST /chat/analyze-documents", h.AnalyzeUploads)
	return mux
}

func postJSON(mux http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/analyze-documents-minio", strings.NewReader(body)))
	return rec
}

func postFiles(t *testing.T, mux http.Handler, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".pdf")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/chat/analyze-documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const wantOutcome = `{
	"1": [["NDA Content", "Section 1 Confidentiality No disclosure. "], ["IPC Match", "Section 405 IPC"]],
	"3": [["Error", "Section 3 not found in NDA."]]
}`

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Extractor: plainText{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an extractor and an analyzer")

	_, err = NewHandler(HandlerOptions{Extractor: plainText{}, Analyzer: &MockAnalyzer{}, CustomConfig: &Config{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_timeout must be positive")
}

// ==========================
// Object Store Endpoint
// ==========================

func TestAnalyzeFromStore_Success(t *testing.T) {
	reasoner := &constReasoner{reply: "Section 405 IPC"}
	mux := newTestMux(t, newStore(), analysis.New(reasoner, analysis.Options{}))

	rec := postJSON(mux, `{"sue_letter_path":"sue.pdf","nda_path":"nda.pdf"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, wantOutcome, rec.Body.String())
	// key order follows the sue letter
	assert.True(t, strings.Index(rec.Body.String(), `"1"`) < strings.Index(rec.Body.String(), `"3"`))
	assert.Equal(t, int32(1), reasoner.calls.Load())
}

func TestAnalyzeFromStore_NoSections(t *testing.T) {
	store := newStore()
	store.objects["plain.pdf"] = []byte("We are unhappy with your conduct.")
	reasoner := &constReasoner{reply: "unused"}
	mux := newTestMux(t, store, analysis.New(reasoner, analysis.Options{}))

	rec := postJSON(mux, `{"sue_letter_path":"plain.pdf","nda_path":"nda.pdf"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"No sections found in the sue letter."}`, rec.Body.String())
	assert.Zero(t, reasoner.calls.Load())
}

func TestAnalyzeFromStore_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		store      func() ObjectStore
		wantStatus int
		wantDetail string
	}{
		{
			name:       "malformed json",
			body:       `{"sue_letter_path":`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid request",
		},
		{
			name:       "missing nda_path",
			body:       `{"sue_letter_path":"sue.pdf"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Request validation failed",
		},
		{
			name:       "bucket not configured",
			body:       `{"sue_letter_path":"sue.pdf","nda_path":"nda.pdf"}`,
			store:      func() ObjectStore { s := newStore(); s.bucket = ""; return s },
			wantStatus: http.StatusInternalServerError,
			wantDetail: "MinIO bucket name is not configured",
		},
		{
			name:       "no store at all",
			body:       `{"sue_letter_path":"sue.pdf","nda_path":"nda.pdf"}`,
			store:      func() ObjectStore { return nil },
			wantStatus: http.StatusInternalServerError,
			wantDetail: "MinIO bucket name is not configured",
		},
		{
			name:       "missing object",
			body:       `{"sue_letter_path":"sue.pdf","nda_path":"missing.pdf"}`,
			wantStatus: http.StatusNotFound,
			wantDetail: "File not found in MinIO: missing.pdf",
		},
		{
			name:       "store unreachable",
			body:       `{"sue_letter_path":"sue.pdf","nda_path":"nda.pdf"}`,
			store:      func() ObjectStore { s := newStore(); s.err = fmt.Errorf("dial tcp: refused"); return s },
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Error retrieving files from MinIO",
		},
		{
			name:       "unreadable pdf",
			body:       `{"sue_letter_path":"sue.pdf","nda_path":"garbage.pdf"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Failed to extract text from one or both PDFs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store ObjectStore = newStore()
			if tt.store != nil {
				store = tt.store()
			}
			analyzer := &MockAnalyzer{}
			rec := postJSON(newTestMux(t, store, analyzer), tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, errorBody(t, rec)["detail"])
			analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAnalyze_AnalyzerFailures(t *testing.T) {
	tests := []struct {
		name       string
		outcome    *analysis.Outcome
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "reasoning unreachable",
			err:        fmt.Errorf("%w: %v", analysis.ErrReasoningUnavailable, reasoning.ErrUnreachable),
			wantStatus: http.StatusBadGateway,
			wantCode:   "REASONING_UNAVAILABLE",
		},
		{
			name:       "request deadline",
			err:        fmt.Errorf("analysis aborted: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "ANALYSIS_DEADLINE_EXCEEDED",
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "empty outcome",
			outcome:    &analysis.Outcome{},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "NO_RESULTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &MockAnalyzer{}
			if tt.outcome != nil {
				analyzer.On("Analyze", mock.Anything, sueLetterText, ndaText).Return(tt.outcome, nil)
			} else {
				analyzer.On("Analyze", mock.Anything, sueLetterText, ndaText).Return(nil, tt.err)
			}

			rec := postJSON(newTestMux(t, newStore(), analyzer), `{"sue_letter_path":"sue.pdf","nda_path":"nda.pdf"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorBody(t, rec)["code"])
			analyzer.AssertExpectations(t)
		})
	}
}

// ==========================
// Upload Endpoint
// ==========================

func TestAnalyzeUploads(t *testing.T) {
	reasoner := &constReasoner{reply: "Section 405 IPC"}
	mux := newTestMux(t, nil, analysis.New(reasoner, analysis.Options{}))

	rec := postFiles(t, mux, map[string][]byte{
		FieldSueLetter: []byte(sueLetterText),
		FieldNDA:       []byte(ndaText),
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, wantOutcome, rec.Body.String())
}

func TestAnalyzeUploads_Errors(t *testing.T) {
	mux := newTestMux(t, nil, &MockAnalyzer{})

	rec := postFiles(t, mux, map[string][]byte{FieldSueLetter: []byte(sueLetterText)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec)["details"], `"nda"`)

	rec = postFiles(t, mux, map[string][]byte{
		FieldSueLetter: []byte("%garbage"),
		FieldNDA:       []byte(ndaText),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TEXT_EXTRACTION_FAILED", errorBody(t, rec)["code"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/analyze-documents", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
