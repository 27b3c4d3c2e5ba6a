package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/config"
	"github.com/Veraticus/textami/internal/document"
	"github.com/Veraticus/textami/internal/generate"
	"github.com/Veraticus/textami/internal/google"
	"github.com/Veraticus/textami/internal/pipeline"
	"github.com/Veraticus/textami/internal/service"
	"github.com/Veraticus/textami/internal/spreadsheet"
	"github.com/Veraticus/textami/internal/storage"
)

// app holds everything a command needs. Close releases it.
type app struct {
	cfg        config.Config
	pipeline   *pipeline.Pipeline
	inputs     *storage.FileStore
	output     service.BlobStore
	outputHint string
	closers    []func()
}

type appOptions struct {
	// withOutput opens the configured output backend.
	withOutput bool
	// withInference builds the inference client when a provider is configured.
	withInference bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.inputs, err = storage.NewFileStore(".")
	if err != nil {
		return nil, err
	}

	clients, err := googleClients(ctx, cfg.Google)
	if err != nil {
		if cfg.Storage.Backend == config.BackendDrive && opts.withOutput {
			return nil, err
		}
		slog.Warn("Google APIs unavailable", "error", err)
	}

	var (
		docsProvider   service.DocumentProvider
		sheetsProvider service.SpreadsheetProvider
	)
	if clients != nil {
		docsProvider = document.NewGoogleDocsProvider(clients.Docs)
		sheetsProvider = spreadsheet.NewGoogleSheetsProvider(clients.Sheets)
	}

	if opts.withOutput {
		if err := a.openOutput(ctx, clients); err != nil {
			return nil, err
		}
	}

	var inferencer service.Inferencer
	if opts.withInference {
		inf, err := newInferencer(cfg.LLM)
		if err != nil {
			return nil, err
		}
		if inf != nil {
			inferencer = inf
		}
	}

	deps := pipeline.Dependencies{
		Documents:    document.NewRouter(document.NewDocxProvider(a.inputs), document.NewTextProvider(a.inputs), docsProvider),
		Spreadsheets: spreadsheet.NewRouter(spreadsheet.NewXLSXProvider(a.inputs), spreadsheet.NewCSVProvider(a.inputs), sheetsProvider),
		Inferencer:   inferencer,
		Templates:    a.inputs,
		Output:       a.output,
	}
	a.pipeline, err = pipeline.New(deps, pipeline.Config{
		Generation: generate.Config{
			FilePrefix: cfg.Generation.FilePrefix,
			Workers:    cfg.Generation.Workers,
		},
		SampleSize:         cfg.Analysis.SampleSize,
		CorrectionAttempts: cfg.Mapping.CorrectionAttempts,
		MinSelectionLength: cfg.Mapping.MinSelectionLength,
	}, slog.Default())
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func (a *app) openOutput(ctx context.Context, clients *google.Clients) error {
	switch a.cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err := storage.NewSQLiteStore(ctx, a.cfg.Storage.SQLitePath, slog.Default())
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrUpstreamUnavailable, err)
		}
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close document database", "error", err)
			}
		})
		a.output = store
		a.outputHint = "sqlite:" + a.cfg.Storage.SQLitePath
	case config.BackendDrive:
		if clients == nil {
			return fmt.Errorf("%w: the drive backend needs Google credentials", common.ErrMissingConfig)
		}
		a.output = storage.NewDriveStore(clients.Drive, a.cfg.Storage.DriveFolderID)
		a.outputHint = "Google Drive"
		if id := a.cfg.Storage.DriveFolderID; id != "" {
			a.outputHint += " folder " + id
		}
	default:
		store, err := storage.NewFileStore(a.cfg.Storage.Dir)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrUpstreamUnavailable, err)
		}
		a.output = store
		a.outputHint = store.Root()
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// googleClients returns nil without error when no Google credentials are configured.
func googleClients(ctx context.Context, cfg google.Config) (*google.Clients, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	clients, err := google.NewClients(ctx, cfg)
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, fmt.Errorf("%w (run `textami auth google`)", err)
		}
		return nil, err
	}
	return clients, nil
}
