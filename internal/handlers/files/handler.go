// Package files moves documents between API clients and the object store.
package files

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"legaldash/internal/common/aws"
	"legaldash/internal/common/config"
	"legaldash/internal/common/errors"
	commonhttp "legaldash/internal/common/http"
	"legaldash/internal/common/logger"

	"github.com/google/uuid"
)

const Component = "files"

// ObjectStore is the bucket-scoped store the handler reads and writes.
type ObjectStore interface {
	Bucket() string
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

type Handler struct {
	config *Config
	logger logger.Logger
	store  ObjectStore
	errors *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Store        ObjectStore
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for files handler: %w", err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("files handler requires an object store")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": Component})

	return &Handler{
		config: cfg,
		logger: log,
		store:  opts.Store,
		errors: errors.NewErrorHandler(log),
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

// Upload handles POST /files with a multipart "file" and an optional "key".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		h.errors.HandleRequestError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errors.HandleRequestError(w, r, errors.NewInvalidRequestError("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errors.HandleRequestError(w, r, errors.NewInvalidRequestError(fmt.Sprintf("read upload: %v", err)))
		return
	}
	if len(data) == 0 {
		h.errors.HandleRequestError(w, r, errors.NewInvalidRequestError("uploaded file is empty"))
		return
	}

	key := cleanKey(r.FormValue("key"))
	if key == "" {
		key = h.config.KeyPrefix + uuid.New().String() + "-" + path.Base(header.Filename)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	if err := h.store.PutObject(ctx, key, data, contentType); err != nil {
		h.errors.HandleRequestError(w, r, aws.AsStandardError(key, err))
		return
	}

	h.logger.Info("file uploaded", map[string]interface{}{
		"key":         key,
		"size":        len(data),
		"contentType": contentType,
	})
	commonhttp.WriteJSON(w, http.StatusCreated, UploadOutput{
		Message:     "File uploaded",
		Key:         key,
		Bucket:      h.store.Bucket(),
		Size:        len(data),
		ContentType: contentType,
	})
}

// Download handles GET /files/{key...}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := cleanKey(r.PathValue("key"))
	if key == "" {
		h.errors.HandleRequestError(w, r, errors.NewInvalidRequestError("object key is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	data, err := h.store.GetObject(ctx, key)
	if err != nil {
		h.errors.HandleRequestError(w, r, aws.AsStandardError(key, err))
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return errors.NewInvalidRequestError(fmt.Sprintf("parse multipart form: %v", err))
}
