// Package mapping computes bounded, scored correspondences between template
// placeholders and spreadsheet columns, and builds module mappings from them.
package mapping

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/extract"
	"github.com/Veraticus/textami/internal/llm"
	"github.com/Veraticus/textami/internal/metrics"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/normalize"
	"github.com/Veraticus/textami/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const responseSchema = `{
  "type": "object",
  "required": ["proposals"],
  "properties": {
    "proposals": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["placeholder", "column", "confidence", "reasoning", "dataTypeMatch"],
        "properties": {
          "placeholder": {"type": "string", "minLength": 1},
          "column": {"type": "string", "minLength": 1},
          "columnHeader": {"type": "string"},
          "confidence": {"type": "number"},
          "reasoning": {"type": "string"},
          "dataTypeMatch": {"type": "boolean"}
        }
      }
    }
  }
}`

// maxSamples bounds the sample values per column included in the prompt.
const maxSamples = 3

// Engine proposes placeholder to column mappings.
type Engine struct {
	inferencer         service.Inferencer
	logger             *slog.Logger
	prompt             *template.Template
	correction         *template.Template
	system             string
	correctionAttempts int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCorrectionAttempts sets how many correction prompts are sent after a
// response fails validation. Zero disables correction.
func WithCorrectionAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.correctionAttempts = n
		}
	}
}

// NewEngine creates an Engine. A nil inferencer makes every non-trivial Map call fail.
func NewEngine(inferencer service.Inferencer, logger *slog.Logger, opts ...Option) (*Engine, error) {
	funcs := template.FuncMap{
		"samples": func(values []string) string {
			if len(values) > maxSamples {
				values = values[:maxSamples]
			}
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = fmt.Sprintf("%q", truncate(v, 80))
			}
			return strings.Join(quoted, ", ")
		},
	}

	prompt, err := template.New("map_prompt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/map_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse map prompt: %w", err)
	}
	correction, err := template.New("correction_prompt.tmpl").ParseFS(templateFS, "templates/correction_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse correction prompt: %w", err)
	}
	system, err := templateFS.ReadFile("templates/map_system.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read system prompt: %w", err)
	}

	e := &Engine{
		inferencer:         inferencer,
		logger:             common.OrDefault(logger),
		prompt:             prompt,
		correction:         correction,
		system:             string(system),
		correctionAttempts: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type proposalResponse struct {
	Proposals []model.MappingProposal `json:"proposals"`
}

type correctionData struct {
	OriginalPrompt  string
	InvalidResponse string
	Problems        []string
}

// Map asks the inference capability for proposals and bounds the answer:
// confidences are clamped, proposals naming unknown placeholders or columns are
// dropped, and the 1:1 invariant is enforced. Any inference failure fails the
// whole call with common.ErrInferenceFailure.
func (e *Engine) Map(ctx context.Context, placeholders []model.PlaceholderCandidate, columns []model.ColumnAnalysis) (model.MappingIntelligence, error) {
	if len(placeholders) == 0 || len(columns) == 0 {
		return finish(nil, placeholders, columns), nil
	}
	if e.inferencer == nil {
		return model.MappingIntelligence{}, fmt.Errorf("%w: semantic inference unavailable", common.ErrInferenceFailure)
	}

	var buf bytes.Buffer
	if err := e.prompt.Execute(&buf, struct {
		Placeholders []model.PlaceholderCandidate
		Columns      []model.ColumnAnalysis
	}{placeholders, columns}); err != nil {
		return model.MappingIntelligence{}, fmt.Errorf("failed to build map prompt: %w", err)
	}
	original := buf.String()
	prompt := original

	var resp proposalResponse
	for attempt := 0; ; attempt++ {
		raw, err := e.inferencer.Infer(ctx, service.InferenceRequest{
			Operation: "map",
			System:    e.system,
			Prompt:    prompt,
			Schema:    responseSchema,
		})
		if err != nil {
			return model.MappingIntelligence{}, wrapInference(err)
		}

		err = llm.DecodeStrict(raw, responseSchema, &resp)
		if err == nil {
			break
		}

		var schemaErr *llm.SchemaError
		if !errors.As(err, &schemaErr) || attempt >= e.correctionAttempts {
			return model.MappingIntelligence{}, wrapInference(err)
		}

		e.logger.Warn("mapping response failed validation, requesting correction",
			"attempt", attempt+1,
			"violations", len(schemaErr.Violations))

		buf.Reset()
		if err := e.correction.Execute(&buf, correctionData{
			OriginalPrompt:  original,
			InvalidResponse: string(raw),
			Problems:        schemaErr.Violations,
		}); err != nil {
			return model.MappingIntelligence{}, fmt.Errorf("failed to build correction prompt: %w", err)
		}
		prompt = buf.String()
	}

	accepted := e.resolve(resp.Proposals, placeholders, columns)
	return finish(accepted, placeholders, columns), nil
}

func wrapInference(err error) error {
	if errors.Is(err, common.ErrInferenceFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrInferenceFailure, err)
}

// resolve canonicalizes proposals against the inputs and keeps a 1:1 subset,
// preferring higher confidence. The result is ordered like the placeholders.
func (e *Engine) resolve(proposals []model.MappingProposal, placeholders []model.PlaceholderCandidate, columns []model.ColumnAnalysis) []model.MappingProposal {
	placeholderOrder := make(map[string]int, len(placeholders))
	byVariable := make(map[string]string, len(placeholders))
	for i, p := range placeholders {
		if _, ok := placeholderOrder[p.Text]; !ok {
			placeholderOrder[p.Text] = i
		}
		v := p.Variable
		if v == "" {
			v = extract.Variable(p.Text)
		}
		if _, ok := byVariable[v]; !ok {
			byVariable[v] = p.Text
		}
	}

	candidates := make([]model.MappingProposal, 0, len(proposals))
	for _, p := range proposals {
		text, ok := matchPlaceholder(p.Placeholder, placeholderOrder, byVariable)
		if !ok {
			e.reject("unknown_placeholder", p)
			continue
		}
		col, ok := matchColumn(p.Column, p.ColumnHeader, columns)
		if !ok {
			e.reject("unknown_column", p)
			continue
		}

		p.Placeholder = text
		p.Column = col.Column
		p.ColumnHeader = col.Header
		p.Confidence = model.ClampPercent(p.Confidence)
		candidates = append(candidates, p)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	usedPlaceholder := make(map[string]bool)
	usedColumn := make(map[string]bool)
	accepted := make([]model.MappingProposal, 0, len(candidates))
	for _, p := range candidates {
		if usedPlaceholder[p.Placeholder] || usedColumn[p.Column] {
			e.reject("conflict", p)
			continue
		}
		usedPlaceholder[p.Placeholder] = true
		usedColumn[p.Column] = true
		accepted = append(accepted, p)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return placeholderOrder[accepted[i].Placeholder] < placeholderOrder[accepted[j].Placeholder]
	})
	return accepted
}

func (e *Engine) reject(reason string, p model.MappingProposal) {
	metrics.MappingProposalsRejected.WithLabelValues(reason).Inc()
	e.logger.Warn("rejected mapping proposal",
		"reason", reason,
		"placeholder", p.Placeholder,
		"column", p.Column,
		"confidence", p.Confidence)
}

func matchPlaceholder(name string, order map[string]int, byVariable map[string]string) (string, bool) {
	if _, ok := order[name]; ok {
		return name, true
	}
	text, ok := byVariable[extract.Variable(name)]
	return text, ok
}

// matchColumn accepts either the column identifier or its header.
func matchColumn(column, header string, columns []model.ColumnAnalysis) (model.ColumnAnalysis, bool) {
	for _, c := range columns {
		if strings.EqualFold(c.Column, column) {
			return c, true
		}
	}
	for _, name := range []string{column, header} {
		if name == "" {
			continue
		}
		for _, c := range columns {
			if c.Header == name || normalize.Fold(c.Header) == normalize.Fold(name) {
				return c, true
			}
		}
	}
	return model.ColumnAnalysis{}, false
}

// finish computes the unmapped sets and the overall confidence for accepted.
func finish(accepted []model.MappingProposal, placeholders []model.PlaceholderCandidate, columns []model.ColumnAnalysis) model.MappingIntelligence {
	if accepted == nil {
		accepted = []model.MappingProposal{}
	}

	mappedPlaceholders := make(map[string]bool, len(accepted))
	mappedColumns := make(map[string]bool, len(accepted))
	total := 0.0
	for _, p := range accepted {
		mappedPlaceholders[p.Placeholder] = true
		mappedColumns[p.Column] = true
		total += p.Confidence
	}

	intel := model.MappingIntelligence{
		Proposals:            accepted,
		UnmappedPlaceholders: []string{},
		UnmappedColumns:      []string{},
	}
	if len(accepted) > 0 {
		intel.OverallConfidence = total / float64(len(accepted))
	}

	seen := make(map[string]bool)
	for _, p := range placeholders {
		if !mappedPlaceholders[p.Text] && !seen[p.Text] {
			seen[p.Text] = true
			intel.UnmappedPlaceholders = append(intel.UnmappedPlaceholders, p.Text)
		}
	}
	seen = make(map[string]bool)
	for _, c := range columns {
		if !mappedColumns[c.Column] && !seen[c.Column] {
			seen[c.Column] = true
			intel.UnmappedColumns = append(intel.UnmappedColumns, c.Column)
		}
	}

	return intel
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
