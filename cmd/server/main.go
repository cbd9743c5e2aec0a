// Package main is the entrypoint for the OCR gateway server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voyadecir/ocrgateway/internal/api"
	"github.com/voyadecir/ocrgateway/internal/api/handler"
	mw "github.com/voyadecir/ocrgateway/internal/api/middleware"
	"github.com/voyadecir/ocrgateway/internal/api/response"
	"github.com/voyadecir/ocrgateway/internal/cache"
	"github.com/voyadecir/ocrgateway/internal/config"
	"github.com/voyadecir/ocrgateway/internal/di"
	"github.com/voyadecir/ocrgateway/internal/metrics"
	"github.com/voyadecir/ocrgateway/internal/ocr"
	"github.com/voyadecir/ocrgateway/internal/speech"
)

const (
	shutdownTimeout = 30 * time.Second
	// vendorTimeout bounds a single outbound vendor call; the poll loop's
	// wall-clock budget comes from config.
	vendorTimeout = 30 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config, before any network call
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Server.Debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"model_id", cfg.Azure.ModelID,
		"api_version", cfg.Azure.APIVersion,
		"poll_timeout", cfg.OCR.PollTimeout.String(),
		"speech_enabled", cfg.Speech.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Register metrics
	metrics.MustRegister()

	// 3. Create Redis cache for transient job state
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Build the OCR pipeline
	diClient := di.NewHTTPClient(cfg.Azure.Endpoint, cfg.Azure.APIKey,
		cfg.Azure.APIVersion, cfg.Azure.ModelID, vendorTimeout)
	scheduler := ocr.NewPollScheduler(diClient, ocr.PollPolicy{
		Interval:    cfg.OCR.PollInterval,
		MaxInterval: cfg.OCR.PollMaxInterval,
		Timeout:     cfg.OCR.PollTimeout,
	})
	normalizer := ocr.NewNormalizer(cfg.OCR.ConfidenceThreshold)
	ocrService := ocr.NewService(diClient, scheduler, normalizer, redisCache)

	// 5. Optional speech synthesis
	var speechHandler http.HandlerFunc
	if cfg.Speech.Enabled {
		synth := speech.NewHTTPClient(cfg.Speech.Key, cfg.Speech.Region, vendorTimeout)
		speechHandler = handler.NewSpeechHandler(synth)
		slog.Info("speech synthesis enabled", "region", cfg.Speech.Region)
	}

	// 6. Build router with dependencies
	deps := api.Dependencies{
		CORS:      mw.NewCORS(cfg.CORS.AllowedOrigins),
		Auth:      mw.NewAuth(cfg.APIAuth.KeyHash),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler: healthHandler(redisCache),
		ParseHandler:  handler.NewParseHandler(ocrService),
		JobHandler:    handler.NewJobHandler(ocrService),
		SpeechHandler: speechHandler,
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server. WriteTimeout must outlive the poll budget since
	// parse responses are held open until the job is terminal.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OCR.PollTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks cache connectivity.
func healthHandler(c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"cache": "ok",
		}

		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
