// Package modules selects a rendering module per column and generates the
// template syntax the renderer understands.
package modules

import (
	"fmt"
	"strings"

	"github.com/Veraticus/textami/internal/model"
)

// DefaultStyle is the declarative style written into style-module syntax.
const DefaultStyle = "font-weight:bold;color:#1a1a1a"

// Select chooses the module for an analyzed column. An image column always gets
// the image module regardless of its other flags.
func Select(analysis model.ColumnAnalysis) model.ModuleSelection {
	if analysis.HasImages {
		return model.ModuleSelection{
			Primary:         model.ModuleImage,
			ConfidenceLevel: model.ConfidenceHigh,
			ValueScore:      10,
			Reasoning: fmt.Sprintf("image module required: %q contains image references that cannot render as text",
				analysis.Header),
		}
	}

	primary := analysis.SuggestedModule
	if !primary.Valid() {
		primary = model.ModuleText
	}

	return model.ModuleSelection{
		Primary:         primary,
		ConfidenceLevel: model.LevelFor(analysis.ConfidenceScore),
		ValueScore:      clampScore(analysis.QualityImprovement),
		Reasoning:       reasoning(primary, analysis),
	}
}

func reasoning(m model.ModuleType, a model.ColumnAnalysis) string {
	switch m {
	case model.ModuleHTML:
		return fmt.Sprintf("%q contains markup; raw HTML keeps its structure", a.Header)
	case model.ModuleStyle:
		return fmt.Sprintf("%q contains emphasis or line structure; styled text preserves it", a.Header)
	default:
		return fmt.Sprintf("%q is plain %s content", a.Header, a.DataType)
	}
}

// Syntax returns the template token for column rendered with module m. The
// column name is interpolated verbatim.
func Syntax(column string, m model.ModuleType) string {
	switch m {
	case model.ModuleHTML:
		return "{~~" + column + "}"
	case model.ModuleImage:
		return "{%" + column + "}"
	case model.ModuleStyle:
		return "{" + column + `:style="` + DefaultStyle + `"}`
	default:
		return "{" + column + "}"
	}
}

// Directive is a parsed module syntax token.
type Directive struct {
	Column string
	Style  string
	Module model.ModuleType
}

// ParseSyntax is the inverse of Syntax. It reports false for anything that is
// not a single module token.
func ParseSyntax(token string) (Directive, bool) {
	if len(token) < 3 || token[0] != '{' || token[len(token)-1] != '}' {
		return Directive{}, false
	}
	body := token[1 : len(token)-1]

	switch {
	case strings.HasPrefix(body, "~~"):
		return directive(body[2:], model.ModuleHTML, "")
	case strings.HasPrefix(body, "%"):
		return directive(body[1:], model.ModuleImage, "")
	}

	if i := strings.Index(body, `:style="`); i >= 0 && strings.HasSuffix(body, `"`) {
		style := body[i+len(`:style="`) : len(body)-1]
		return directive(body[:i], model.ModuleStyle, style)
	}
	return directive(body, model.ModuleText, "")
}

func directive(column string, m model.ModuleType, style string) (Directive, bool) {
	if column == "" || strings.ContainsAny(column, "{}") {
		return Directive{}, false
	}
	return Directive{Column: column, Module: m, Style: style}, true
}

func clampScore(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
