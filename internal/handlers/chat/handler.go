// Package chat exposes the document correlation pipeline over HTTP.
package chat

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"legaldash/internal/analysis"
	"legaldash/internal/common/aws"
	"legaldash/internal/common/config"
	"legaldash/internal/common/errors"
	commonhttp "legaldash/internal/common/http"
	"legaldash/internal/common/logger"

	"github.com/sourcegraph/conc/pool"
)

const Component = "chat"

// Analyzer correlates the sections of source with target.
type Analyzer interface {
	Analyze(ctx context.Context, source, target string) (*analysis.Outcome, error)
}

// TextExtractor turns document bytes into text; "" means nothing was extracted.
type TextExtractor interface {
	Extract(data []byte) string
}

type ObjectStore interface {
	Bucket() string
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	store     ObjectStore
	extractor TextExtractor
	analyzer  Analyzer
	errors    *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Store        ObjectStore
	Extractor    TextExtractor
	Analyzer     Analyzer
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for chat handler: %w", err)
	}
	if opts.Extractor == nil || opts.Analyzer == nil {
		return nil, fmt.Errorf("chat handler requires an extractor and an analyzer")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": Component})

	return &Handler{
		config:    cfg,
		logger:    log,
		store:     opts.Store,
		extractor: opts.Extractor,
		analyzer:  opts.Analyzer,
		errors:    errors.NewErrorHandler(log),
	}, nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg != nil && appCfg.Server.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = appCfg.Server.MaxUploadBytes
	}
	return cfg
}

// AnalyzeFromStore handles POST /chat/analyze-documents-minio.
func (h *Handler) AnalyzeFromStore(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("received analyze request", map[string]interface{}{"source": "object_store"})

	input, err := h.decodeStoreInput(w, r)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}

	if h.store == nil || h.store.Bucket() == "" {
		h.errors.HandleRequestError(w, r, errors.NewObjectStoreNotConfiguredError())
		return
	}

	sueLetter, nda, err := h.fetchPair(r.Context(), input.SueLetterPath, input.NDAPath)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}

	h.respond(w, r, sueLetter, nda)
}

// AnalyzeUploads handles POST /chat/analyze-documents with multipart
// "sue_letter" and "nda" files.
func (h *Handler) AnalyzeUploads(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("received analyze request", map[string]interface{}{"source": "upload"})

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		h.errors.HandleRequestError(w, r, bodyError("parse multipart form", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	sueLetter, err := readFormFile(r, FieldSueLetter)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}
	nda, err := readFormFile(r, FieldNDA)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}

	h.respond(w, r, sueLetter, nda)
}

// respond runs extraction and correlation and writes the outcome.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, sueLetter, nda []byte) {
	start := time.Now()

	sueText := h.extractor.Extract(sueLetter)
	ndaText := h.extractor.Extract(nda)
	if sueText == "" || ndaText == "" {
		h.errors.HandleRequestError(w, r, errors.NewTextExtractionFailedError(
			fmt.Sprintf("sueLetterChars: %d, ndaChars: %d", len(sueText), len(ndaText)),
		))
		return
	}
	h.logger.Debug("extracted document text", map[string]interface{}{
		"sueLetterChars": len(sueText),
		"ndaChars":       len(ndaText),
	})

	outcome, err := h.analyzer.Analyze(r.Context(), sueText, ndaText)
	if err != nil {
		h.errors.HandleRequestError(w, r, analysisError(err))
		return
	}
	if outcome.IsEmpty() {
		h.errors.HandleRequestError(w, r, errors.NewNoResultsError())
		return
	}

	h.logger.Info("analysis returned", map[string]interface{}{
		"sections":   len(outcome.Results),
		"durationMs": time.Since(start).Milliseconds(),
	})
	commonhttp.WriteJSON(w, http.StatusOK, outcome)
}

// fetchPair downloads both documents concurrently. The first failure
// cancels the other download and is the one reported.
func (h *Handler) fetchPair(ctx context.Context, sueKey, ndaKey string) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.FetchTimeout)
	defer cancel()

	h.logger.Info("retrieving files from object store", map[string]interface{}{
		"bucket":    h.store.Bucket(),
		"sueLetter": sueKey,
		"nda":       ndaKey,
	})

	var sueLetter, nda []byte
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		data, err := h.store.GetObject(ctx, sueKey)
		if err != nil {
			return aws.AsStandardError(sueKey, err)
		}
		sueLetter = data
		return nil
	})
	p.Go(func(ctx context.Context) error {
		data, err := h.store.GetObject(ctx, ndaKey)
		if err != nil {
			return aws.AsStandardError(ndaKey, err)
		}
		nda = data
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	return sueLetter, nda, nil
}

func (h *Handler) decodeStoreInput(w http.ResponseWriter, r *http.Request) (*StoreInput, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err != nil {
		return nil, bodyError("read body", err)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("decode body: %v", err))
	}
	result, err := storeInputSchema.Validate(doc)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewValidationFailedError(
			fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()),
		).WithMetadata("schema", storeInputSchema.Name())
	}

	var input StoreInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("decode body: %v", err))
	}
	return &input, nil
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("multipart field %q is required", field))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("read %s: %v", field, err))
	}
	return data, nil
}

func bodyError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return errors.NewInvalidRequestError(fmt.Sprintf("%s: %v", op, err))
}

func analysisError(err error) error {
	switch {
	case stderrors.Is(err, analysis.ErrReasoningUnavailable):
		return errors.NewReasoningUnavailableError(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAnalysisDeadlineExceededError(err)
	default:
		return errors.NewInternalError(err)
	}
}
