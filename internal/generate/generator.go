// Package generate renders one document per dataset row and aggregates the outcome.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/metrics"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/render"
	"github.com/Veraticus/textami/internal/service"
)

// Defaults for Config fields left zero.
const (
	DefaultWorkers    = 4
	DefaultFilePrefix = "document"
)

// Config holds generator settings.
type Config struct {
	FilePrefix string
	// Extension is appended to generated file names, e.g. ".docx".
	Extension string
	// Workers is the fixed bound on rows processed concurrently.
	Workers int
}

// ProgressFunc is called after each row finishes. done counts finished rows.
type ProgressFunc func(done, total int)

// Request describes one batch.
type Request struct {
	Progress        ProgressFunc
	TemplateLocator string
	// Rewrites maps raw placeholder text to module syntax; see mapping.Rewrites.
	Rewrites  map[string]string
	Rows      []model.Row
	BatchSize int
}

// Generator runs batches against a template store, a renderer and an output store.
type Generator struct {
	templates service.BlobStore
	output    service.BlobStore
	renderer  service.TemplateRenderer
	logger    *slog.Logger
	cfg       Config
}

// New creates a Generator. templates and output may be the same store.
func New(templates, output service.BlobStore, renderer service.TemplateRenderer, cfg Config, logger *slog.Logger) *Generator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = DefaultFilePrefix
	}
	return &Generator{
		templates: templates,
		output:    output,
		renderer:  renderer,
		cfg:       cfg,
		logger:    common.OrDefault(logger),
	}
}

// Generate renders at most req.BatchSize rows. Input problems and template
// retrieval failures fail the call before any row runs; after that every row
// failure is recorded in the report and the remaining rows still run.
func (g *Generator) Generate(ctx context.Context, req Request) (model.GenerationReport, error) {
	if len(req.Rows) == 0 {
		return model.GenerationReport{}, common.InvalidInput("dataset is empty")
	}
	if req.BatchSize <= 0 {
		return model.GenerationReport{}, common.InvalidInput("batch size must be positive, got %d", req.BatchSize)
	}
	if strings.TrimSpace(req.TemplateLocator) == "" {
		return model.GenerationReport{}, common.InvalidInput("template locator is required")
	}

	rows := req.Rows
	if len(rows) > req.BatchSize {
		rows = rows[:req.BatchSize]
	}

	template, err := g.templates.Get(ctx, req.TemplateLocator)
	if err != nil {
		return model.GenerationReport{}, fmt.Errorf("%w: failed to fetch template %s: %w",
			common.ErrUpstreamUnavailable, req.TemplateLocator, err)
	}

	if len(req.Rewrites) > 0 {
		template, err = g.renderer.Prepare(template, req.Rewrites)
		if err != nil {
			return model.GenerationReport{}, fmt.Errorf("%w: failed to prepare template: %w", common.ErrInvalidInput, err)
		}
	}

	start := time.Now()
	g.logger.Info("starting batch generation",
		"template", req.TemplateLocator,
		"rows", len(rows),
		"dataset_rows", len(req.Rows),
		"workers", g.cfg.Workers)

	report := model.GenerationReport{
		Documents:      []model.GeneratedDocument{},
		Errors:         []model.GenerationError{},
		TotalRequested: len(rows),
	}

	var (
		mu   sync.Mutex
		done int
	)
	record := func(doc *model.GeneratedDocument, genErr *model.GenerationError) {
		mu.Lock()
		defer mu.Unlock()

		if doc != nil {
			report.Documents = append(report.Documents, *doc)
		}
		if genErr != nil {
			report.Errors = append(report.Errors, *genErr)
		}
		done++
		if req.Progress != nil {
			req.Progress(done, len(rows))
		}
	}

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Workers)
	for i, row := range rows {
		eg.Go(func() error {
			doc, err := g.generateRow(ctx, template, i, row)
			if err != nil {
				metrics.GenerationErrors.Inc()
				g.logger.Warn("row generation failed", "row_index", i, "error", err)
				record(nil, &model.GenerationError{RowIndex: i, RowData: row, Error: err.Error()})
				return nil
			}
			metrics.DocumentsGenerated.Inc()
			record(&doc, nil)
			return nil
		})
	}
	_ = eg.Wait()

	report.Finalize()
	metrics.BatchDuration.Observe(time.Since(start).Seconds())

	g.logger.Info("batch generation finished",
		"requested", report.TotalRequested,
		"generated", report.TotalGenerated,
		"errors", report.TotalErrors,
		"duration", time.Since(start))

	return report, nil
}

// generateRow renders and stores one row. Panics in collaborators are recovered
// into a row error.
func (g *Generator) generateRow(ctx context.Context, template []byte, index int, row model.Row) (doc model.GeneratedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while generating row: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return model.GeneratedDocument{}, err
	}

	rendered, err := g.renderer.Render(template, RowData(row))
	if err != nil {
		return model.GeneratedDocument{}, fmt.Errorf("render: %w", err)
	}

	name := g.fileName(index)
	locator, err := g.output.Put(ctx, name, rendered)
	if err != nil {
		return model.GeneratedDocument{}, fmt.Errorf("store: %w", err)
	}

	return model.GeneratedDocument{
		DocumentID:      uuid.NewString(),
		FileName:        name,
		DownloadLocator: locator,
		RowIndex:        index,
		RowData:         row,
	}, nil
}

func (g *Generator) fileName(index int) string {
	ext := g.cfg.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Base(fmt.Sprintf("%s_%03d%s", g.cfg.FilePrefix, index+1, ext))
}

// RowData flattens a row into template data: booleans become "true"/"false",
// nil and empty values become "", everything else passes through.
func RowData(row model.Row) map[string]any {
	data := make(map[string]any, len(row))
	for k, v := range row {
		switch val := v.(type) {
		case nil:
			data[k] = ""
		case bool:
			data[k] = render.Stringify(val)
		case string:
			data[k] = val
		default:
			data[k] = v
		}
	}
	return data
}
