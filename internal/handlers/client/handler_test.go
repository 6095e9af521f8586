package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"legaldash/internal/common/config"
	"legaldash/internal/common/errors"
	"legaldash/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, doc Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id string) (Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id string, doc Document) error {
	return m.Called(ctx, id, doc).Error(0)
}

func (m *MockService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// ==========================
// Test Helpers
// ==========================

func newTestHandler(t *testing.T, svc ClientService) *http.ServeMux {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Service: svc, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /client/{$}", h.Create)
	mux.HandleFunc("GET /client/{id}", h.Get)
	mux.HandleFunc("PUT /client/{id}", h.Update)
	mux.HandleFunc("DELETE /client/{id}", h.Delete)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{name: "service injected", opts: HandlerOptions{Service: &MockService{}}},
		{name: "no db and no service", opts: HandlerOptions{}, wantErr: "requires a database"},
		{
			name:    "invalid custom config",
			opts:    HandlerOptions{Service: &MockService{}, CustomConfig: &Config{Timeout: 0, MaxBodyBytes: 1}},
			wantErr: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	cfg := createConfigFromAppConfig(&config.Config{Server: config.ServerConfig{MaxUploadBytes: 512}}, nil)
	assert.Equal(t, int64(512), cfg.MaxBodyBytes)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	custom := &Config{Timeout: time.Second, MaxBodyBytes: 64}
	assert.Same(t, custom, createConfigFromAppConfig(nil, custom))
}

// ==========================
// Route Tests
// ==========================

func TestHandler_Create(t *testing.T) {
	svc := &MockService{}
	svc.On("Create", mock.Anything, Document{"name": "Acme", "userId": "u-1"}).Return("c-1", nil)
	mux := newTestHandler(t, svc)

	rec := do(mux, http.MethodPost, "/client/", `{"name":"Acme","userId":"u-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Client created","client_id":"c-1"}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestHandler_Create_RejectedBodies(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"not json", `{"name":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"array body", `["a"]`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"null body", `null`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing userId", `{"name":"Acme"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"documents not strings", `{"name":"Acme","userId":"u","documents":[1]}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"too large", `{"name":"` + strings.Repeat("a", 2<<20) + `","userId":"u"}`, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockService{}
			rec := do(newTestHandler(t, svc), http.MethodPost, "/client/", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["code"])
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Create_Duplicate(t *testing.T) {
	svc := &MockService{}
	svc.On("Create", mock.Anything, mock.Anything).Return("", errors.NewDuplicateClientError("c-1"))

	rec := do(newTestHandler(t, svc), http.MethodPost, "/client/", `{"_id":"c-1","name":"Acme","userId":"u-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	svc := &MockService{}
	svc.On("Get", mock.Anything, "c-1").Return(Document{"_id": "c-1", "name": "Acme"}, nil)
	svc.On("Get", mock.Anything, "nope").Return(nil, errors.NewClientNotFoundError("nope"))
	mux := newTestHandler(t, svc)

	rec := do(mux, http.MethodGet, "/client/c-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"_id":"c-1","name":"Acme"}`, rec.Body.String())

	rec = do(mux, http.MethodGet, "/client/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Client not found", decodeBody(t, rec)["detail"])
}

func TestHandler_Update(t *testing.T) {
	svc := &MockService{}
	svc.On("Update", mock.Anything, "c-1", Document{"name": "Renamed"}).Return(nil)
	svc.On("Update", mock.Anything, "gone", mock.Anything).Return(errors.NewClientNotFoundError("gone"))
	mux := newTestHandler(t, svc)

	rec := do(mux, http.MethodPut, "/client/c-1", `{"name":"Renamed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Client updated"}`, rec.Body.String())

	rec = do(mux, http.MethodPut, "/client/gone", `{"name":"Renamed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, body := range []string{`{}`, `{"_id":"other"}`, `{"name":5}`} {
		rec = do(mux, http.MethodPut, "/client/c-1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	svc.AssertNumberOfCalls(t, "Update", 2)
}

func TestHandler_Delete(t *testing.T) {
	svc := &MockService{}
	svc.On("Delete", mock.Anything, "c-1").Return(nil)
	svc.On("Delete", mock.Anything, "gone").Return(errors.NewClientNotFoundError("gone"))
	mux := newTestHandler(t, svc)

	rec := do(mux, http.MethodDelete, "/client/c-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Client deleted"}`, rec.Body.String())

	rec = do(mux, http.MethodDelete, "/client/gone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
