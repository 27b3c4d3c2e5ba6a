// Package extract finds placeholder candidates in template documents.
//
// Detection is pattern based and always succeeds. Typing and confidence come from
// one batched call to the semantic inference capability; when that call is
// unavailable or fails the extractor degrades to an empty placeholder list and
// reports the raw detections instead.
package extract

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/llm"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// maxExcerpt bounds the document text included in the prompt.
const maxExcerpt = 6000

const responseSchema = `{
  "type": "object",
  "required": ["placeholders"],
  "properties": {
    "placeholders": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "variable", "type", "confidence", "context"],
        "properties": {
          "text": {"type": "string", "minLength": 1},
          "variable": {"type": "string"},
          "type": {"enum": ["string", "date", "currency", "percent", "number", "id", "address", "email", "phone"]},
          "confidence": {"type": "number"},
          "context": {"type": "string"},
          "reasoning": {"type": "string"},
          "example": {"type": "string"}
        }
      }
    }
  }
}`

// Result is the outcome of an extraction. Degraded is set when enrichment was
// skipped; Placeholders is then empty and Detected still lists what was found.
type Result struct {
	Warning      string                       `json:"warning,omitempty"`
	Placeholders []model.PlaceholderCandidate `json:"placeholders"`
	Detected     []Token                      `json:"detected"`
	Degraded     bool                         `json:"degraded"`
}

// Extractor finds and classifies placeholders.
type Extractor struct {
	inferencer service.Inferencer
	logger     *slog.Logger
	system     string
	prompt     *template.Template
}

// New creates an Extractor. A nil inferencer is allowed and always degrades.
func New(inferencer service.Inferencer, logger *slog.Logger) (*Extractor, error) {
	funcs := template.FuncMap{
		"join": func(types []model.SemanticType, sep string) string {
			names := make([]string, len(types))
			for i, t := range types {
				names[i] = string(t)
			}
			return strings.Join(names, sep)
		},
	}

	prompt, err := template.New("extract_prompt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/extract_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse extract prompt: %w", err)
	}
	system, err := templateFS.ReadFile("templates/extract_system.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read system prompt: %w", err)
	}

	return &Extractor{
		inferencer: inferencer,
		logger:     common.OrDefault(logger),
		system:     string(system),
		prompt:     prompt,
	}, nil
}

type promptData struct {
	Sample  string
	Excerpt string
	Tokens  []Token
	Types   []model.SemanticType
}

type response struct {
	Placeholders []struct {
		Text       string             `json:"text"`
		Variable   string             `json:"variable"`
		Type       model.SemanticType `json:"type"`
		Context    string             `json:"context"`
		Reasoning  string             `json:"reasoning"`
		Example    string             `json:"example"`
		Confidence float64            `json:"confidence"`
	} `json:"placeholders"`
}

// Extract detects placeholders in content and classifies them. sample is optional
// free text describing the data the template will be filled with. Extract only
// returns an error when ctx is done; inference problems degrade the result.
func (e *Extractor) Extract(ctx context.Context, content model.DocumentContent, sample string) (Result, error) {
	tokens := Detect(content)
	result := Result{
		Detected:     tokens,
		Placeholders: []model.PlaceholderCandidate{},
	}
	if len(tokens) == 0 {
		return result, nil
	}

	if e.inferencer == nil {
		return e.degrade(result, "semantic inference unavailable; placeholders were detected but not classified"), nil
	}

	var buf bytes.Buffer
	if err := e.prompt.Execute(&buf, promptData{
		Tokens:  tokens,
		Sample:  sample,
		Excerpt: excerpt(content.Text),
		Types:   model.SemanticTypes,
	}); err != nil {
		return Result{}, fmt.Errorf("failed to build extract prompt: %w", err)
	}

	raw, err := e.inferencer.Infer(ctx, service.InferenceRequest{
		Operation: "extract",
		System:    e.system,
		Prompt:    buf.String(),
		Schema:    responseSchema,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		e.logger.Warn("placeholder classification failed", "tokens", len(tokens), "error", err)
		return e.degrade(result, "placeholder classification failed: "+err.Error()), nil
	}

	var resp response
	if err := llm.DecodeStrict(raw, responseSchema, &resp); err != nil {
		e.logger.Warn("placeholder classification rejected", "tokens", len(tokens), "error", err)
		return e.degrade(result, "placeholder classification rejected: "+err.Error()), nil
	}

	result.Placeholders = merge(tokens, resp)
	return result, nil
}

func (e *Extractor) degrade(r Result, warning string) Result {
	r.Degraded = true
	r.Warning = warning
	r.Placeholders = []model.PlaceholderCandidate{}
	return r
}

// merge attaches classifications to detected tokens in document order. Entries
// naming tokens that were never detected are ignored; tokens the response skipped
// are kept as low-confidence strings.
func merge(tokens []Token, resp response) []model.PlaceholderCandidate {
	byText := make(map[string]int, len(resp.Placeholders))
	byVariable := make(map[string]int, len(resp.Placeholders))
	for i, p := range resp.Placeholders {
		if _, ok := byText[p.Text]; !ok {
			byText[p.Text] = i
		}
		if v := Variable(p.Variable); v != "" {
			if _, ok := byVariable[v]; !ok {
				byVariable[v] = i
			}
		}
	}

	out := make([]model.PlaceholderCandidate, 0, len(tokens))
	for _, tok := range tokens {
		candidate := model.PlaceholderCandidate{
			Text:     tok.Text,
			Variable: tok.Variable,
			Anchor:   tok.Anchor,
			Context:  tok.Context,
			Type:     model.TypeString,
		}

		i, ok := byText[tok.Text]
		if !ok {
			i, ok = byVariable[tok.Variable]
		}
		if ok {
			p := resp.Placeholders[i]
			candidate.Type = p.Type
			candidate.Confidence = model.ClampPercent(p.Confidence)
			candidate.Reasoning = p.Reasoning
			candidate.Example = p.Example
			if strings.TrimSpace(p.Context) != "" {
				candidate.Context = p.Context
			}
		} else {
			candidate.Confidence = unclassifiedConfidence
			candidate.Reasoning = "not classified by inference"
		}

		out = append(out, candidate)
	}
	return out
}

// unclassifiedConfidence is assigned to tokens the inference response left out.
const unclassifiedConfidence = 30

func excerpt(text string) string {
	r := []rune(text)
	if len(r) <= maxExcerpt {
		return text
	}
	return string(r[:maxExcerpt]) + "\n[...]"
}
