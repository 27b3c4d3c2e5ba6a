// Package model defines the value objects passed between pipeline components.
//
// Confidence scales are part of each type's contract: PlaceholderCandidate,
// ColumnAnalysis and MappingProposal carry percentages in [0,100]; ParsedTag and
// ContentAnalysis carry unit fractions in [0,1]. Conversions happen only through
// PercentToUnit and UnitToPercent.
package model

import (
	"fmt"
	"math"
)

// SemanticType is the declared meaning of a placeholder's value.
type SemanticType string

// Semantic types recognized by the extractor and normalizer.
const (
	TypeString   SemanticType = "string"
	TypeDate     SemanticType = "date"
	TypeCurrency SemanticType = "currency"
	TypePercent  SemanticType = "percent"
	TypeNumber   SemanticType = "number"
	TypeID       SemanticType = "id"
	TypeAddress  SemanticType = "address"
	TypeEmail    SemanticType = "email"
	TypePhone    SemanticType = "phone"
)

// SemanticTypes lists every valid SemanticType.
var SemanticTypes = []SemanticType{
	TypeString, TypeDate, TypeCurrency, TypePercent, TypeNumber,
	TypeID, TypeAddress, TypeEmail, TypePhone,
}

// Valid reports whether t is a known semantic type.
func (t SemanticType) Valid() bool {
	for _, known := range SemanticTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PlaceholderCandidate is a placeholder found in a template document.
// Confidence is a percentage in [0,100].
type PlaceholderCandidate struct {
	Page       *int         `json:"page,omitempty" yaml:"page,omitempty"`
	Text       string       `json:"text" yaml:"text"`
	Variable   string       `json:"variable" yaml:"variable"`
	Type       SemanticType `json:"type" yaml:"type"`
	Context    string       `json:"context" yaml:"context"`
	Reasoning  string       `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Example    string       `json:"example,omitempty" yaml:"example,omitempty"`
	Anchor     string       `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
}

// ParsedTag is a placeholder after normalization. Confidence is a unit fraction in [0,1].
type ParsedTag struct {
	Normalized any `json:"normalized"`
	PlaceholderCandidate
	Slug string `json:"slug"`
}

// PercentToUnit converts a [0,100] confidence into a [0,1] fraction, clamping out-of-range input.
func PercentToUnit(p float64) float64 {
	return ClampPercent(p) / 100
}

// UnitToPercent converts a [0,1] fraction into a [0,100] percentage, clamping out-of-range input.
func UnitToPercent(u float64) float64 {
	return ClampPercent(u * 100)
}

// ClampPercent bounds v to [0,100]. NaN becomes 0.
func ClampPercent(v float64) float64 {
	return clamp(v, 0, 100)
}

// ClampUnit bounds v to [0,1]. NaN becomes 0.
func ClampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// DocumentContent is what a document provider yields for a template.
type DocumentContent struct {
	Locator    string   `json:"locator"`
	Format     string   `json:"format"`
	Text       string   `json:"text"`
	Paragraphs []string `json:"paragraphs,omitempty"`
}

// Table is what a spreadsheet provider yields: a header row and aligned data rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Column returns the values of column i, padding short rows with "".
func (t Table) Column(i int) []string {
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			values[r] = row[i]
		}
	}
	return values
}

// Records converts the table into header-keyed rows.
func (t Table) Records() []Row {
	rows := make([]Row, len(t.Rows))
	for r, cells := range t.Rows {
		row := make(Row, len(t.Headers))
		for i, header := range t.Headers {
			if i < len(cells) {
				row[header] = cells[i]
			} else {
				row[header] = ""
			}
		}
		rows[r] = row
	}
	return rows
}

func (c PlaceholderCandidate) String() string {
	return fmt.Sprintf("%s (%s, %.0f%%)", c.Text, c.Type, c.Confidence)
}
