package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/tabgest/internal/api"
	"github.com/dgallion1/tabgest/internal/config"
	"github.com/dgallion1/tabgest/internal/extract"
	"github.com/dgallion1/tabgest/internal/jobdb"
	"github.com/dgallion1/tabgest/internal/ocr"
	"github.com/dgallion1/tabgest/internal/parser"
	"github.com/dgallion1/tabgest/internal/pathstore"
	"github.com/dgallion1/tabgest/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to load .env", "error", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	llmStats := extract.NewLLMStats(time.Hour)
	gemini, err := extract.NewGeminiClient(ctx, extract.GeminiConfig{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		MaxOutputTokens: int32(cfg.GeminiMaxOutputTokens),
		Timeout:         cfg.GeminiTimeout,
	}, llmStats, log)
	if err != nil {
		log.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}

	registry := &parser.Registry{
		Options: ocr.Options{
			MinWidth: cfg.OCRMinWidth,
			Contrast: cfg.OCRContrastEnhance,
		},
		PDFFallback: cfg.PDFFallbackPdftotext,
	}
	ocrClient, err := ocr.New(cfg.OCRLanguage)
	if err != nil {
		log.Warn("ocr unavailable, image recognition disabled", "error", err)
	} else {
		registry.OCR = ocrClient
		defer ocrClient.Close()
	}

	deps := pipeline.Deps{
		Backend:  gemini,
		Registry: registry,
		Log:      log,
	}

	var results api.ResultReader
	if cfg.PathstoreURL != "" {
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		defer ps.Close()
		deps.Results = ps
		results = ps
	}

	if cfg.JobDBPath != "" {
		db, err := jobdb.Open(ctx, cfg.JobDBPath)
		if err != nil {
			log.Error("failed to open job database", "path", cfg.JobDBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.Recorder = db
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, deps)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, llmStats, results, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GeminiTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		orch.Stop()
	}()

	log.Info("starting tabgest",
		"port", cfg.Port,
		"model", gemini.Model(),
		"ocr", registry.OCR != nil,
		"job_db", cfg.JobDBPath != "",
		"pathstore", cfg.PathstoreURL != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
