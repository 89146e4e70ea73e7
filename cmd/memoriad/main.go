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

	"github.com/memoria-cultural/memoria/internal/common"
	"github.com/memoria-cultural/memoria/internal/export"
	"github.com/memoria-cultural/memoria/internal/extract"
	"github.com/memoria-cultural/memoria/internal/gemini"
	"github.com/memoria-cultural/memoria/internal/ocr"
	"github.com/memoria-cultural/memoria/internal/ontology"
	"github.com/memoria-cultural/memoria/internal/persist"
	"github.com/memoria-cultural/memoria/internal/pipeline"
	"github.com/memoria-cultural/memoria/internal/repository"
	"github.com/memoria-cultural/memoria/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Task store: durable when a SQLite path is configured.
	var store persist.TaskStore
	if cfg.Persist.SQLitePath != "" {
		sq, err := persist.NewSQLiteStore(cfg.Persist.SQLitePath)
		if err != nil {
			logger.Error("opening task store", "path", cfg.Persist.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer sq.Close()
		store = sq
		logger.Info("task store ready", "backend", "sqlite", "path", cfg.Persist.SQLitePath)
	} else {
		store = persist.NewMemoryStore(cfg.Persist.HistoryLimit)
		logger.Info("task store ready", "backend", "memory", "history_limit", cfg.Persist.HistoryLimit)
	}

	// Gateway client. Auth failure is not fatal: the gateway may expose open
	// datasets, and credentials can be fixed without restarting the service.
	gateway := repository.NewClient(repository.Config{
		BaseURL:  cfg.Gateway.BaseURL,
		Email:    cfg.Gateway.Email,
		Password: cfg.Gateway.Password,
		Timeout:  cfg.Gateway.Timeout,
	}, logger)
	if err := gateway.Authenticate(ctx); err != nil {
		logger.Warn("gateway authentication failed, continuing unauthenticated", "error", err)
	}

	// Extraction provider. No API key means heuristics only.
	var gen extract.Generator
	if cfg.LLM.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		if err != nil {
			logger.Error("creating extraction provider", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		gen = client
		logger.Info("extraction provider ready", "model", cfg.LLM.Model)
	} else {
		logger.Warn("no GEMINI_API_KEY configured, extraction will use heuristics only")
	}

	recoverer := ocr.NewExtractor(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.Lang,
		DPI:       cfg.OCR.DPI,
	}, logger)
	extractor := extract.NewService(gen, extract.NewHeuristic(), logger)
	processor := pipeline.NewProcessor(recoverer, extractor, logger)

	loader, err := ontology.NewLoader(cfg.Server.OntologyDir, logger)
	if err != nil {
		logger.Error("creating ontology loader", "error", err)
		os.Exit(1)
	}

	queue := persist.NewCoordinator(gateway, store, logger,
		persist.WithItemDelay(cfg.Persist.ItemDelay))
	exporter := export.NewService(store, logger)

	api := server.New(cfg.Server, cfg.Gateway.TripleStoreURL,
		processor, loader, queue, gateway, exporter, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(),
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	// Drain queued persistence work before releasing the stores.
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
