// Package columns classifies spreadsheet columns by data type and by the
// rendering complexity their content needs.
package columns

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
)

// DefaultSampleSize is the number of non-empty values kept per column.
const DefaultSampleSize = 5

// Analyzer produces ColumnAnalysis values.
type Analyzer struct {
	logger     *slog.Logger
	sampleSize int
}

// NewAnalyzer creates an Analyzer. A non-positive sampleSize uses DefaultSampleSize.
func NewAnalyzer(sampleSize int, logger *slog.Logger) *Analyzer {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Analyzer{sampleSize: sampleSize, logger: common.OrDefault(logger)}
}

// AnalyzeTable analyzes every column of t. Columns are identified by their
// spreadsheet letter.
func (a *Analyzer) AnalyzeTable(t model.Table) ([]model.ColumnAnalysis, error) {
	if len(t.Headers) == 0 {
		return nil, common.InvalidInput("table has no header row")
	}

	out := make([]model.ColumnAnalysis, len(t.Headers))
	for i, header := range t.Headers {
		out[i] = a.AnalyzeColumn(ColumnName(i), header, "", t.Column(i))
	}

	a.logger.Debug("analyzed columns", "columns", len(out), "rows", len(t.Rows))
	return out, nil
}

// AnalyzeColumn analyzes one column. declared may be empty, in which case the
// data type is inferred from header and values.
func (a *Analyzer) AnalyzeColumn(column, header string, declared model.DataType, values []string) model.ColumnAnalysis {
	preview := a.preview(values)

	dataType, confidence := declared, 100.0
	if !declared.Valid() {
		dataType, confidence = InferDataType(header, preview)
	}

	content := AnalyzeContent(preview)

	return model.ColumnAnalysis{
		Column:          column,
		Header:          header,
		DataType:        dataType,
		Description:     describe(header, dataType, content, len(preview)),
		SampleData:      preview,
		ContentAnalysis: content,
		Confidence:      confidence,
	}
}

// preview keeps the first sampleSize non-empty values in their original order.
func (a *Analyzer) preview(values []string) []string {
	out := make([]string, 0, a.sampleSize)
	for _, v := range nonEmpty(values) {
		if len(out) == a.sampleSize {
			break
		}
		out = append(out, v)
	}
	return out
}

func describe(header string, dataType model.DataType, content model.ContentAnalysis, samples int) string {
	if samples == 0 {
		return fmt.Sprintf("%q has no sample values; treated as %s", header, dataType)
	}
	return fmt.Sprintf("%q holds %s values rendered with the %s module (%d samples)",
		header, dataType, content.SuggestedModule, samples)
}

// ColumnName converts a zero-based index into a spreadsheet column letter.
func ColumnName(i int) string {
	name, err := excelize.ColumnNumberToName(i + 1)
	if err != nil {
		return "C" + strconv.Itoa(i+1)
	}
	return name
}
