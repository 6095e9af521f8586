// Package client serves create, read, update and delete of client records.
package client

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"legaldash/internal/common/config"
	"legaldash/internal/common/errors"
	commonhttp "legaldash/internal/common/http"
	"legaldash/internal/common/logger"
	"legaldash/internal/common/validation"
)

const Component = "client"

// ClientService is the storage side of the handler.
type ClientService interface {
	Create(ctx context.Context, doc Document) (string, error)
	Get(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, id string, doc Document) error
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	config  *Config
	logger  logger.Logger
	service ClientService
	errors  *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	DB           *sql.DB
	CustomConfig *Config
	Logger       logger.Logger
	// Service replaces the Postgres-backed service, mainly in tests.
	Service ClientService
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for client handler: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": Component})

	svc := opts.Service
	if svc == nil {
		if opts.DB == nil {
			return nil, fmt.Errorf("client handler requires a database or a service")
		}
		svc = NewService(ServiceDependencies{DB: opts.DB, Logger: log}, cfg)
	}

	return &Handler{
		config:  cfg,
		logger:  log,
		service: svc,
		errors:  errors.NewErrorHandler(log),
	}, nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg != nil && appCfg.Server.MaxUploadBytes > 0 && appCfg.Server.MaxUploadBytes < cfg.MaxBodyBytes {
		cfg.MaxBodyBytes = appCfg.Server.MaxUploadBytes
	}
	return cfg
}

// Create handles POST /client/.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	doc, err := h.decode(w, r, createClientSchema)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}

	id, err := h.service.Create(r.Context(), doc)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, CreateOutput{Message: "Client created", ClientID: id})
}

// Get handles GET /client/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, doc)
}

// Update handles PUT /client/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	doc, err := h.decode(w, r, updateClientSchema)
	if err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), r.PathValue("id"), doc); err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, MessageOutput{Message: "Client updated"})
}

// Delete handles DELETE /client/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.errors.HandleRequestError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, MessageOutput{Message: "Client deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema *validation.Schema) (Document, error) {
	var doc Document
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)).Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("decode body: %v", err))
	}
	if doc == nil {
		return nil, errors.NewInvalidRequestError("body must be a JSON object")
	}

	result, err := schema.Validate(map[string]interface{}(doc))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewValidationFailedError(
			fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()),
		).WithMetadata("schema", schema.Name())
	}
	return doc, nil
}
