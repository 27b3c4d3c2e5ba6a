package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Veraticus/textami/internal/document"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/pipeline"
)

// PrintDocumentAnalysis writes the placeholders found in a template. A degraded
// analysis lists the raw detections instead.
func PrintDocumentAnalysis(w io.Writer, a pipeline.DocumentAnalysis) error {
	var b strings.Builder
	b.WriteString(FormatTitle(DocumentIcon, fmt.Sprintf("%s (%s)", a.Locator, a.Format)))
	b.WriteString("\n")

	if a.Degraded {
		b.WriteString(FormatWarning(a.Warning) + "\n\n")
		rows := make([][]string, len(a.Detected))
		for i, tok := range a.Detected {
			rows[i] = []string{tok.Text, tok.Variable, tok.Anchor, truncate(tok.Context, 50)}
		}
		b.WriteString(RenderTable([]string{"Token", "Variable", "Anchor", "Context"}, rows))
		b.WriteString("\n")
		_, err := fmt.Fprint(w, b.String())
		return err
	}

	if len(a.Tags) == 0 {
		b.WriteString(FormatInfo("No placeholders found") + "\n")
		_, err := fmt.Fprint(w, b.String())
		return err
	}

	rows := make([][]string, len(a.Tags))
	for i, tag := range a.Tags {
		rows[i] = []string{
			tag.Text,
			tag.Slug,
			string(tag.Type),
			confidenceText(tag.Confidence),
			fmt.Sprint(tag.Normalized),
			truncate(tag.Context, 40),
		}
	}
	b.WriteString(RenderTable([]string{"Placeholder", "Slug", "Type", "Confidence", "Example", "Context"}, rows))
	b.WriteString("\n")

	_, err := fmt.Fprint(w, b.String())
	return err
}

// PrintColumnsAnalysis writes the column classification and module choice per column.
func PrintColumnsAnalysis(w io.Writer, a pipeline.ColumnsAnalysis) error {
	var b strings.Builder
	b.WriteString(FormatTitle(TableIcon, fmt.Sprintf("%s: %d columns, %d rows", a.Locator, len(a.Columns), a.RowCount)))
	b.WriteString("\n")

	rows := make([][]string, len(a.Columns))
	for i, c := range a.Columns {
		module, level := "", ""
		if i < len(a.Selections) {
			module = string(a.Selections[i].Primary)
			level = string(a.Selections[i].ConfidenceLevel)
		}
		rows[i] = []string{
			c.Column,
			c.Header,
			string(c.DataType),
			fmt.Sprintf("%.0f%%", c.Confidence),
			string(c.ComplexityLevel),
			module,
			level,
			truncate(strings.Join(c.SampleData, ", "), 40),
		}
	}
	b.WriteString(RenderTable([]string{"Col", "Header", "Type", "Conf", "Complexity", "Module", "Level", "Samples"}, rows))
	b.WriteString("\n")

	_, err := fmt.Fprint(w, b.String())
	return err
}

// PrintPlan writes the accepted proposals, their module syntax and what stayed unmapped.
func PrintPlan(w io.Writer, plan pipeline.Plan) error {
	intel := plan.Intelligence
	rewrites := plan.Rewrites()

	var b strings.Builder
	b.WriteString(FormatTitle(LinkIcon, fmt.Sprintf("%d mappings, overall confidence %.0f%%", len(intel.Proposals), intel.OverallConfidence)))
	b.WriteString("\n")

	if len(intel.Proposals) > 0 {
		status := make(map[string]model.MappingStatus, len(plan.Modules))
		for _, m := range plan.Modules {
			status[m.Column] = m.Status
		}

		rows := make([][]string, len(intel.Proposals))
		for i, p := range intel.Proposals {
			match := SuccessIcon
			if !p.DataTypeMatch {
				match = WarningStyle.Render(ErrorIcon)
			}
			rows[i] = []string{
				p.Placeholder,
				fmt.Sprintf("%s (%s)", p.ColumnHeader, p.Column),
				fmt.Sprintf("%.0f%%", p.Confidence),
				match,
				rewrites[p.Placeholder],
				string(status[p.Column]),
			}
		}
		b.WriteString(RenderTable([]string{"Placeholder", "Column", "Conf", "Type", "Syntax", "Status"}, rows))
		b.WriteString("\n")
	}

	if len(intel.UnmappedPlaceholders) > 0 {
		b.WriteString(FormatWarning("Unmapped placeholders: "+strings.Join(intel.UnmappedPlaceholders, ", ")) + "\n")
	}
	if len(intel.UnmappedColumns) > 0 {
		b.WriteString(SubtleStyle.Render("Unused columns: "+strings.Join(intel.UnmappedColumns, ", ")) + "\n")
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}

// PrintGenerationReport writes a batch summary followed by every failed row.
func PrintGenerationReport(w io.Writer, r model.GenerationReport) error {
	var b strings.Builder

	summary := fmt.Sprintf("%d of %d documents generated", r.TotalGenerated, r.TotalRequested)
	switch {
	case !r.Success:
		b.WriteString(FormatError(summary) + "\n")
	case r.TotalErrors > 0:
		b.WriteString(FormatWarning(fmt.Sprintf("%s, %d failed", summary, r.TotalErrors)) + "\n")
	default:
		b.WriteString(FormatSuccess(summary) + "\n")
	}

	for _, d := range r.Documents {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("  %s → %s", d.FileName, d.DownloadLocator)) + "\n")
	}
	for _, e := range r.Errors {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("  row %d: %s", e.RowIndex+1, e.Error)) + "\n")
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}

// PrintStyleManifest writes the element to style mapping of a DOCX template.
func PrintStyleManifest(w io.Writer, m document.StyleManifest) error {
	var b strings.Builder
	s := m.Statistics
	b.WriteString(FormatTitle(DocumentIcon, fmt.Sprintf("%s: %d styles, %d mapped, %d fallbacks",
		m.Source, s.TotalStyles, s.MappedStyles, s.FallbackStyles)))
	b.WriteString("\n")

	elements := make([]string, 0, len(m.Styles))
	for el := range m.Styles {
		elements = append(elements, el)
	}
	sort.Strings(elements)

	rows := make([][]string, len(elements))
	for i, el := range elements {
		rows[i] = []string{el, m.Styles[el]}
	}
	b.WriteString(RenderTable([]string{"Element", "Word style"}, rows))
	b.WriteString("\n")

	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d paragraphs, %d tables, %d numbering definitions",
		s.Paragraphs, s.Tables, s.NumberingDefinitions)) + "\n")
	for _, warning := range m.Warnings {
		b.WriteString(FormatWarning(warning) + "\n")
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}

func confidenceText(unit float64) string {
	pct := model.UnitToPercent(unit)
	text := fmt.Sprintf("%.0f%% %s", pct, model.LevelFor(unit))
	switch model.LevelFor(unit) {
	case model.ConfidenceHigh:
		return SuccessStyle.Render(text)
	case model.ConfidenceMedium:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
