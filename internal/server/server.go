// Package server assembles the HTTP routes of the service.
package server

import (
	"context"
	"net/http"
	"time"

	"legaldash/internal/common/config"
	apperrors "legaldash/internal/common/errors"
	commonhttp "legaldash/internal/common/http"
	"legaldash/internal/common/logger"
	"legaldash/internal/handlers/chat"
	"legaldash/internal/handlers/client"
	"legaldash/internal/handlers/files"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const (
	readyTimeout = 3 * time.Second
	// Sent with a 503 from /ready when every failed check may recover.
	readyRetryAfter = "5"
)

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Config  *config.Config
	Logger  logger.Logger
	Clients *client.Handler
	Files   *files.Handler
	Chat    *chat.Handler
	// Checks are pinged by /ready, keyed by the name reported on failure.
	Checks map[string]Pinger
	// Metrics defaults to the default Prometheus registry handler.
	Metrics http.Handler
}

// NewRouter returns the fully wrapped handler. Route groups whose handler
// is nil are not mounted.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, commonhttp.Instrument(name, h))
	}

	route("GET /{$}", "index", index)
	route("GET /health", "health", health)
	route("GET /ready", "ready", ready(opts.Checks, log))
	mux.Handle("GET /metrics", metricsHandler)

	if h := opts.Clients; h != nil {
		route("POST /client", "client_create", h.Create)
		route("POST /client/{$}", "client_create", h.Create)
		route("GET /client/{id}", "client_get", h.Get)
		route("PUT /client/{id}", "client_update", h.Update)
		route("DELETE /client/{id}", "client_delete", h.Delete)
	}
	if h := opts.Files; h != nil {
		route("POST /files", "files_upload", h.Upload)
		route("GET /files/{key...}", "files_download", h.Download)
	}
	if h := opts.Chat; h != nil {
		route("POST /chat/analyze-documents-minio", "chat_analyze_minio", h.AnalyzeFromStore)
		route("POST /chat/analyze-documents", "chat_analyze_upload", h.AnalyzeUploads)
	}

	var origins []string
	if opts.Config != nil {
		origins = opts.Config.Server.AllowedOrigins
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{commonhttp.RequestIDHeader},
		AllowCredentials: true,
	})

	return commonhttp.Chain(mux,
		corsHandler.Handler,
		commonhttp.RequestID(),
		commonhttp.Logging(log),
		commonhttp.Recover(log),
	)
}

// New builds the http.Server with the configured timeouts.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:       120 * time.Second,
	}
}

func index(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All Modules loaded successfully",
	})
}

func health(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func ready(checks map[string]Pinger, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failed := map[string]string{}
		codes := map[string]string{}
		retryable := true
		for name, c := range checks {
			err := c.Ping(ctx)
			if err == nil {
				continue
			}
			stdErr := apperrors.AsStandardError(err)
			failed[name] = stdErr.Details
			codes[name] = string(stdErr.Code)
			retryable = retryable && apperrors.IsRetryableErrorCode(stdErr.Code)
		}

		if len(failed) > 0 {
			log.Warn("readiness check failed", map[string]interface{}{"failed": failed, "codes": codes})
			if retryable {
				w.Header().Set("Retry-After", readyRetryAfter)
			}
			commonhttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":    "not_ready",
				"failed":    failed,
				"codes":     codes,
				"retryable": retryable,
				"time":      time.Now().Format(time.RFC3339),
			})
			return
		}
		commonhttp.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
