// cmd/legaldash/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"legaldash/internal/analysis"
	"legaldash/internal/analysis/reasoning"
	"legaldash/internal/analysis/sections"
	"legaldash/internal/common/aws"
	"legaldash/internal/common/config"
	"legaldash/internal/common/database"
	"legaldash/internal/common/logger"
	"legaldash/internal/common/observability"
	"legaldash/internal/handlers/chat"
	"legaldash/internal/handlers/client"
	"legaldash/internal/handlers/files"
	"legaldash/internal/pdftext"
	"legaldash/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting legaldash...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	// --- Init object store ---
	store, err := aws.NewS3Client(ctx, cfg.ObjectStore)
	if err != nil {
		zapLog.Fatal("object store client failed", zap.Error(err))
	}
	if store.Bucket() == "" {
		zapLog.Warn("object store bucket is not configured; store-backed analysis will fail")
	} else {
		err = retryWithBackoff(func() error {
			return store.EnsureBucket(ctx)
		}, 5, 2*time.Second, zapLog, "Object store bucket check")
		if err != nil {
			zapLog.Fatal("object store failed after retries", zap.Error(err))
		}
		zapLog.Info("Object store ready", zap.String("bucket", store.Bucket()))
	}

	// --- Analysis pipeline ---
	openai := reasoning.NewOpenAIClient(reasoning.Config{
		BaseURL: cfg.Reasoning.BaseURL,
		APIKey:  cfg.Reasoning.APIKey,
		Model:   cfg.Reasoning.Model,
		Timeout: config.GetDuration(cfg.Reasoning.Timeout),
	}, nil, log)

	var reasoner reasoning.Reasoner = openai
	if cfg.Analysis.Cache.Enabled {
		reasoner = reasoning.NewCachedReasoner(openai, redis.Client, openai.Model(), config.GetDuration(cfg.Analysis.Cache.TTL), log)
		zapLog.Info("Correlation cache enabled", zap.Int("ttlMs", cfg.Analysis.Cache.TTL))
	}

	orchestrator := analysis.New(reasoner, analysis.Options{
		Extractor:     sections.New(cfg.Analysis.SectionKeyword),
		Deadline:      config.GetDuration(cfg.Analysis.Deadline),
		Logger:        log,
		Observability: obs,
	})

	// --- Handlers ---
	clientHandler, err := client.NewHandler(client.HandlerOptions{AppConfig: cfg, DB: pg.DB, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create client handler", zap.Error(err))
	}
	filesHandler, err := files.NewHandler(files.HandlerOptions{AppConfig: cfg, Store: store, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create files handler", zap.Error(err))
	}
	chatHandler, err := chat.NewHandler(chat.HandlerOptions{
		AppConfig: cfg,
		Store:     store,
		Extractor: pdftext.New(log),
		Analyzer:  orchestrator,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create chat handler", zap.Error(err))
	}

	router := server.NewRouter(server.Options{
		Config:  cfg,
		Logger:  log,
		Clients: clientHandler,
		Files:   filesHandler,
		Chat:    chatHandler,
		Checks: map[string]server.Pinger{
			"postgres": pg,
			"redis":    redis,
		},
	})
	srv := server.New(cfg, router)

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}
	if err := redis.Close(); err != nil {
		zapLog.Error("Error closing Redis client", zap.Error(err))
	}
	if err := pg.Close(); err != nil {
		zapLog.Error("Error closing PostgreSQL client", zap.Error(err))
	}

	zapLog.Info("legaldash stopped gracefully")
}
