package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Veraticus/textami/internal/columns"
	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/document"
	"github.com/Veraticus/textami/internal/extract"
	"github.com/Veraticus/textami/internal/generate"
	"github.com/Veraticus/textami/internal/mapping"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/modules"
	"github.com/Veraticus/textami/internal/render"
	"github.com/Veraticus/textami/internal/service"
)

// Dependencies are the collaborators a Pipeline runs against.
type Dependencies struct {
	Documents    service.DocumentProvider
	Spreadsheets service.SpreadsheetProvider
	// Inferencer may be nil; extraction then degrades and mapping fails.
	Inferencer service.Inferencer
	Templates  service.BlobStore
	Output     service.BlobStore
}

// Config holds pipeline settings.
type Config struct {
	Generation         generate.Config
	SampleSize         int
	CorrectionAttempts int
	MinSelectionLength int
}

// Pipeline runs the surfaced operations. It holds no per-call state.
type Pipeline struct {
	deps      Dependencies
	extractor *extract.Extractor
	analyzer  *columns.Analyzer
	engine    *mapping.Engine
	logger    *slog.Logger
	cfg       Config
}

// New creates a Pipeline.
func New(deps Dependencies, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	logger = common.OrDefault(logger)
	if cfg.MinSelectionLength <= 0 {
		cfg.MinSelectionLength = mapping.DefaultMinSelectionLength
	}

	extractor, err := extract.New(deps.Inferencer, logger)
	if err != nil {
		return nil, err
	}

	var opts []mapping.Option
	if cfg.CorrectionAttempts > 0 {
		opts = append(opts, mapping.WithCorrectionAttempts(cfg.CorrectionAttempts))
	}
	engine, err := mapping.NewEngine(deps.Inferencer, logger, opts...)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		deps:      deps,
		extractor: extractor,
		analyzer:  columns.NewAnalyzer(cfg.SampleSize, logger),
		engine:    engine,
		logger:    logger,
		cfg:       cfg,
	}, nil
}

// DocumentAnalysis is the result of AnalyzeDocument.
type DocumentAnalysis struct {
	Locator      string                       `json:"locator"`
	Format       string                       `json:"format"`
	Warning      string                       `json:"warning,omitempty"`
	Placeholders []model.PlaceholderCandidate `json:"placeholders"`
	Tags         []model.ParsedTag            `json:"tags"`
	Detected     []extract.Token              `json:"detected"`
	Degraded     bool                         `json:"degraded"`
}

// AnalyzeDocument extracts placeholders from a template. A container that
// cannot be parsed fails with common.ErrInvalidInput; inference trouble follows
// the extract policy.
func (p *Pipeline) AnalyzeDocument(ctx context.Context, locator, sample string) (DocumentAnalysis, error) {
	if strings.TrimSpace(locator) == "" {
		return DocumentAnalysis{}, common.InvalidInput("document locator is required")
	}

	content, err := p.deps.Documents.GetContent(ctx, locator)
	if err != nil {
		return DocumentAnalysis{}, err
	}

	result, err := p.extractor.Extract(ctx, content, sample)
	if err != nil {
		return DocumentAnalysis{}, err
	}
	if result.Degraded && PolicyFor(OpExtract) == Fail {
		return DocumentAnalysis{}, fmt.Errorf("%w: %s", common.ErrInferenceFailure, result.Warning)
	}

	p.logger.Info("document analyzed",
		"locator", locator,
		"detected", len(result.Detected),
		"placeholders", len(result.Placeholders),
		"degraded", result.Degraded)

	return DocumentAnalysis{
		Locator:      locator,
		Format:       content.Format,
		Warning:      result.Warning,
		Placeholders: result.Placeholders,
		Tags:         extract.ToParsedTags(result.Placeholders),
		Detected:     result.Detected,
		Degraded:     result.Degraded,
	}, nil
}

// ColumnsAnalysis is the result of AnalyzeColumns.
type ColumnsAnalysis struct {
	Locator    string                  `json:"locator"`
	Columns    []model.ColumnAnalysis  `json:"columns"`
	Selections []model.ModuleSelection `json:"selections"`
	RowCount   int                     `json:"rowCount"`
}

// AnalyzeColumns classifies every column of a dataset and selects its module.
func (p *Pipeline) AnalyzeColumns(ctx context.Context, locator string) (ColumnsAnalysis, error) {
	table, err := p.readTable(ctx, locator)
	if err != nil {
		return ColumnsAnalysis{}, err
	}
	return p.AnalyzeTable(locator, table)
}

// AnalyzeTable classifies the columns of an already loaded table.
func (p *Pipeline) AnalyzeTable(locator string, table model.Table) (ColumnsAnalysis, error) {
	analyses, err := p.analyzer.AnalyzeTable(table)
	if err != nil {
		return ColumnsAnalysis{}, err
	}

	selections := make([]model.ModuleSelection, len(analyses))
	for i, a := range analyses {
		selections[i] = modules.Select(a)
	}

	p.logger.Info("columns analyzed", "locator", locator, "columns", len(analyses), "rows", len(table.Rows))
	return ColumnsAnalysis{
		Locator:    locator,
		Columns:    analyses,
		Selections: selections,
		RowCount:   len(table.Rows),
	}, nil
}

// Plan is a mapping together with the module mappings of its columns.
type Plan struct {
	Intelligence model.MappingIntelligence `json:"intelligence" yaml:"intelligence"`
	Modules      []model.ModuleMapping     `json:"modules" yaml:"modules"`
}

// Rewrites returns the placeholder rewrites that apply the plan to a template.
func (pl Plan) Rewrites() map[string]string {
	return mapping.Rewrites(pl.Intelligence, pl.Modules)
}

// ProposeMappings maps placeholders to columns and builds a validated module
// mapping for every accepted proposal. Inference trouble follows the map policy.
func (p *Pipeline) ProposeMappings(ctx context.Context, placeholders []model.PlaceholderCandidate, cols []model.ColumnAnalysis) (Plan, error) {
	intel, err := p.engine.Map(ctx, placeholders, cols)
	if err != nil {
		if PolicyFor(OpMap) == Degrade {
			p.logger.Warn("mapping degraded", "error", err)
			return p.emptyPlan(placeholders, cols), nil
		}
		return Plan{}, err
	}

	byColumn := make(map[string]model.ColumnAnalysis, len(cols))
	for _, c := range cols {
		byColumn[c.Column] = c
	}

	mods := make([]model.ModuleMapping, 0, len(intel.Proposals))
	for _, proposal := range intel.Proposals {
		col, ok := byColumn[proposal.Column]
		if !ok {
			continue
		}
		m, validation := mapping.Validate(mapping.CreateIntelligentMapping(col, proposal.Placeholder), p.cfg.MinSelectionLength)
		if len(validation.Issues) > 0 {
			p.logger.Debug("module mapping issues",
				"column", col.Header,
				"placeholder", proposal.Placeholder,
				"issues", validation.Issues)
		}
		mods = append(mods, m)
	}

	return Plan{Intelligence: intel, Modules: mods}, nil
}

func (p *Pipeline) emptyPlan(placeholders []model.PlaceholderCandidate, cols []model.ColumnAnalysis) Plan {
	intel := model.MappingIntelligence{
		Proposals:            []model.MappingProposal{},
		UnmappedPlaceholders: make([]string, 0, len(placeholders)),
		UnmappedColumns:      make([]string, 0, len(cols)),
	}
	for _, ph := range placeholders {
		intel.UnmappedPlaceholders = append(intel.UnmappedPlaceholders, ph.Text)
	}
	for _, c := range cols {
		intel.UnmappedColumns = append(intel.UnmappedColumns, c.Column)
	}
	return Plan{Intelligence: intel, Modules: []model.ModuleMapping{}}
}

// BatchRequest describes one GenerateBatch call. Rows take precedence over
// DatasetLocator.
type BatchRequest struct {
	Progress        generate.ProgressFunc
	TemplateLocator string
	DatasetLocator  string
	Rows            []model.Row
	Plan            Plan
	BatchSize       int
}

// GenerateBatch renders one document per row with the plan applied.
func (p *Pipeline) GenerateBatch(ctx context.Context, req BatchRequest) (model.GenerationReport, error) {
	if p.deps.Templates == nil || p.deps.Output == nil {
		return model.GenerationReport{}, fmt.Errorf("%w: template and output storage must be configured", common.ErrUpstreamUnavailable)
	}
	if strings.HasPrefix(req.TemplateLocator, document.GoogleDocsScheme) {
		return model.GenerationReport{}, common.InvalidInput("Google Docs templates cannot be rendered directly; export %s to DOCX first", req.TemplateLocator)
	}

	rows := req.Rows
	if len(rows) == 0 && req.DatasetLocator != "" {
		table, err := p.readTable(ctx, req.DatasetLocator)
		if err != nil {
			return model.GenerationReport{}, err
		}
		rows = table.Records()
	}

	cfg := p.cfg.Generation
	if cfg.Extension == "" {
		cfg.Extension = path.Ext(req.TemplateLocator)
	}
	gen := generate.New(p.deps.Templates, p.deps.Output, RendererFor(req.TemplateLocator), cfg, p.logger)

	return gen.Generate(ctx, generate.Request{
		Progress:        req.Progress,
		TemplateLocator: req.TemplateLocator,
		Rewrites:        req.Plan.Rewrites(),
		Rows:            rows,
		BatchSize:       req.BatchSize,
	})
}

// RendererFor picks the renderer for a template by extension.
func RendererFor(locator string) service.TemplateRenderer {
	switch strings.ToLower(path.Ext(locator)) {
	case ".docx":
		return render.NewDocxRenderer()
	case ".html", ".htm":
		return render.NewTextRenderer(true)
	default:
		return render.NewTextRenderer(false)
	}
}

func (p *Pipeline) readTable(ctx context.Context, locator string) (model.Table, error) {
	if strings.TrimSpace(locator) == "" {
		return model.Table{}, common.InvalidInput("dataset locator is required")
	}
	return p.deps.Spreadsheets.GetRows(ctx, locator)
}
