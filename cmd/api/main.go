package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/ytranscript/internal/api/handler"
	"github.com/hszk-dev/ytranscript/internal/api/middleware"
	"github.com/hszk-dev/ytranscript/internal/config"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/captions"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/diskcache"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/whisper"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/ytdlp"
	"github.com/hszk-dev/ytranscript/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	store, err := diskcache.New(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	captionSource := captions.NewClient(captions.Config{})
	audioFetcher := ytdlp.NewFetcher(ytdlp.Config{
		BinaryPath:  cfg.Audio.YtdlpPath,
		AudioFormat: cfg.Audio.Format,
	})
	transcriber := whisper.NewTranscriber(whisper.Config{
		BinaryPath:  cfg.Whisper.BinaryPath,
		Model:       cfg.Whisper.Model,
		Language:    cfg.Pipeline.Language,
		Device:      cfg.Whisper.Device,
		ComputeType: cfg.Whisper.ComputeType,
	})

	svcCfg := usecase.DefaultTranscriptServiceConfig()
	svcCfg.Language = cfg.Pipeline.Language
	svcCfg.CaptionsOnly = cfg.Pipeline.CaptionsOnly
	svcCfg.EnableAudioFallback = cfg.Pipeline.AudioFallback
	svcCfg.MaxCacheItems = cfg.Cache.MaxItems
	svcCfg.MemoryCacheTTL = cfg.Cache.MemoryTTL

	svc := usecase.NewTranscriptService(store, captionSource, audioFetcher, transcriber, svcCfg)

	r := setupRouter(logger, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.String("cache_dir", cfg.Cache.Dir),
			slog.String("model", cfg.Whisper.Model),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, svc usecase.TranscriptService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	th := handler.NewTranscriptHandler(svc)
	routes := func(r chi.Router) {
		r.Post("/transcribe", th.Transcribe)
		r.Get("/status", th.Status)
		r.Post("/clear-cache", th.ClearCache)
		r.Get("/download", th.Download)
	}
	// Historic clients used the /api prefix; both forms are served.
	r.Group(routes)
	r.Route("/api", routes)

	return r
}
