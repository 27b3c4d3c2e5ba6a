package mapping

import (
	"fmt"
	"strings"

	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/modules"
)

// DefaultMinSelectionLength is the shortest target selection accepted without an issue.
const DefaultMinSelectionLength = 3

var levelFactor = map[model.ConfidenceLevel]float64{
	model.ConfidenceHigh:   1.0,
	model.ConfidenceMedium: 0.8,
	model.ConfidenceLow:    0.6,
}

var complexityMultiplier = map[model.ComplexityLevel]float64{
	model.ComplexitySimple:   1.0,
	model.ComplexityModerate: 1.5,
	model.ComplexityAdvanced: 2.0,
}

// CreateIntelligentMapping builds a draft ModuleMapping for a column and the
// template text it should replace. The generated syntax refers to the column by
// its header, which is how rows are keyed at render time.
func CreateIntelligentMapping(analysis model.ColumnAnalysis, targetSelection string) model.ModuleMapping {
	selection := modules.Select(analysis)

	name := analysis.Header
	if name == "" {
		name = analysis.Column
	}

	multiplier, ok := complexityMultiplier[analysis.ComplexityLevel]
	if !ok {
		multiplier = 1.0
	}

	return model.ModuleMapping{
		Column:             analysis.Column,
		ColumnHeader:       analysis.Header,
		TargetSelection:    targetSelection,
		SelectedModule:     selection.Primary,
		GeneratedSyntax:    modules.Syntax(name, selection.Primary),
		Status:             model.StatusDraft,
		QualityScore:       clamp10(analysis.QualityImprovement * levelFactor[selection.ConfidenceLevel]),
		PerformanceBenefit: max(0, analysis.EstimatedTimeSavedMinutes*multiplier),
	}
}

// ValidateMapping checks m without changing it. A short target selection is
// reported but does not make the mapping invalid on its own.
func ValidateMapping(m model.ModuleMapping, minSelectionLength int) model.MappingValidation {
	if minSelectionLength <= 0 {
		minSelectionLength = DefaultMinSelectionLength
	}

	v := model.MappingValidation{Issues: []string{}, Valid: true, QualityScore: m.QualityScore}
	fatal := func(format string, args ...any) {
		v.Issues = append(v.Issues, fmt.Sprintf(format, args...))
		v.Valid = false
	}

	if strings.TrimSpace(m.Column) == "" {
		fatal("mapping has no column")
	}
	if !m.SelectedModule.Valid() {
		fatal("unknown module %q", m.SelectedModule)
	}

	if m.GeneratedSyntax == "" {
		fatal("generated syntax is empty")
	} else if d, ok := modules.ParseSyntax(m.GeneratedSyntax); !ok {
		fatal("generated syntax %q is not a module token", m.GeneratedSyntax)
	} else {
		if d.Module != m.SelectedModule {
			fatal("generated syntax uses the %s module but %s was selected", d.Module, m.SelectedModule)
		}
		if want := syntaxName(m); d.Column != want {
			fatal("generated syntax refers to %q instead of %q", d.Column, want)
		}
	}

	if m.QualityScore < 0 || m.QualityScore > 10 {
		fatal("quality score %.2f outside [0,10]", m.QualityScore)
	}
	if m.PerformanceBenefit < 0 {
		fatal("performance benefit %.2f is negative", m.PerformanceBenefit)
	}

	if n := len([]rune(strings.TrimSpace(m.TargetSelection))); n < minSelectionLength {
		v.Issues = append(v.Issues, fmt.Sprintf("target selection is short (%d < %d characters)", n, minSelectionLength))
		v.QualityScore *= 0.8
	}

	if !v.Valid {
		v.QualityScore = 0
	}
	v.QualityScore = clamp10(v.QualityScore)
	return v
}

// Validate moves a draft mapping to validated or rejected. Mappings that already
// left the draft state are returned unchanged.
func Validate(m model.ModuleMapping, minSelectionLength int) (model.ModuleMapping, model.MappingValidation) {
	v := ValidateMapping(m, minSelectionLength)
	if m.Status != model.StatusDraft && m.Status != "" {
		return m, v
	}

	out := m
	if v.Valid {
		out.Status = model.StatusValidated
	} else {
		out.Status = model.StatusRejected
	}
	return out, v
}

func syntaxName(m model.ModuleMapping) string {
	if m.ColumnHeader != "" {
		return m.ColumnHeader
	}
	return m.Column
}

func clamp10(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
