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

	"github.com/MikeSquared-Agency/chatnote/internal/api"
	"github.com/MikeSquared-Agency/chatnote/internal/config"
	"github.com/MikeSquared-Agency/chatnote/internal/hermes"
	"github.com/MikeSquared-Agency/chatnote/internal/importer"
	"github.com/MikeSquared-Agency/chatnote/internal/processor"
	"github.com/MikeSquared-Agency/chatnote/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("chatnote starting", "port", cfg.Port, "locale", cfg.Locale)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (optional: without it only dry runs work)
	var saver processor.Saver
	var reader api.ConversationReader
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		saver, reader = db, db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, running in dry-run only mode")
	}

	// NATS/Hermes (optional)
	var publisher processor.Publisher
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		c, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		hermesClient, publisher = c, c
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	norm := importer.New(importer.WithLocale(cfg.Locale), importer.WithLogger(slog.Default()))
	proc := processor.New(norm, saver, publisher, slog.Default())

	if hermesClient != nil && saver != nil {
		if err := hermesClient.Subscribe(hermes.SubjectImportRequested, proc.HandleImportRequested); err != nil {
			slog.Error("failed to subscribe to import requests", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, cfg.Locale, proc, reader, cfg.MaxUploadBytes, slog.Default())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("chatnote ready", "port", cfg.Port, "storage", proc.StorageEnabled())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("chatnote stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
