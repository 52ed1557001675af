package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/chatnote/internal/config"
	"github.com/MikeSquared-Agency/chatnote/internal/importer"
	"github.com/MikeSquared-Agency/chatnote/internal/processor"
	"github.com/MikeSquared-Agency/chatnote/internal/store"
)

type options struct {
	tags        []string
	title       string
	dryRun      bool
	locale      string
	databaseURL string
	logLevel    string
}

// fileResult is one entry of the dry-run JSON output.
type fileResult struct {
	File string `json:"file"`
	*processor.Result
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "chatnote-import [paths...]",
		Short: "Normalize chat exports into notes",
		Long: `Normalize ChatGPT, Claude and generic chat exports, Markdown and plain
text files into note records.

Directories are walked for .json, .md, .markdown and .txt files.

Examples:
  chatnote-import conversations.json --dry-run
  chatnote-import ./exports --tags "work,ideas"
  chatnote-import notes.md --title "Standup" --locale ja`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}

	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "tags to apply to every record")
	cmd.Flags().StringVar(&opts.title, "title", "", "title for the first record of each file")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print normalized records as JSON instead of storing them")
	cmd.Flags().StringVar(&opts.locale, "locale", cfg.Locale, "locale for placeholder titles and content")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

func runImport(cmd *cobra.Command, opts *options, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd, opts.logLevel)

	if !opts.dryRun && opts.databaseURL == "" {
		return errors.New("a database URL is required unless --dry-run is set")
	}

	files, err := discoverFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no importable files found")
	}

	var saver processor.Saver
	if !opts.dryRun {
		db, err := store.New(ctx, opts.databaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		saver = db
	}

	norm := importer.New(importer.WithLocale(opts.locale), importer.WithLogger(logger))
	proc := processor.New(norm, saver, nil, logger)

	var results []fileResult
	failed := 0
	for _, path := range files {
		res, err := importFile(cmd, proc, opts, path)
		if err != nil {
			failed++
			logger.Error("import failed", "file", path, "error", err)
			continue
		}
		logger.Info("file imported", "file", path, "count", res.Count, "dry_run", res.DryRun)
		results = append(results, fileResult{File: path, Result: res})
	}

	if opts.dryRun {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func importFile(cmd *cobra.Command, proc *processor.Processor, opts *options, path string) (*processor.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text, err := processor.DecodeText(raw)
	if err != nil {
		return nil, err
	}
	return proc.Import(cmd.Context(), processor.Request{
		Content:  text,
		Filename: filepath.Base(path),
		Title:    opts.title,
		Tags:     opts.tags,
		DryRun:   opts.dryRun,
	})
}

func newLogger(cmd *cobra.Command, level string) *slog.Logger {
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
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}
