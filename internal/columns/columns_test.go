package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/model"
)

func TestAnalyzeContentPriority(t *testing.T) {
	tests := []struct {
		name           string
		samples        []string
		wantModule     model.ModuleType
		wantComplexity model.ComplexityLevel
		wantImages     bool
		wantHTML       bool
		wantRich       bool
		minConfidence  float64
	}{
		{
			name:           "image references",
			samples:        []string{"logo.png", "https://cdn.example.com/a/photo.JPG?v=2"},
			wantModule:     model.ModuleImage,
			wantComplexity: model.ComplexityAdvanced,
			wantImages:     true,
			minConfidence:  0.8,
		},
		{
			name:           "image wins over markup",
			samples:        []string{"<p>intro</p>", "banner.webp"},
			wantModule:     model.ModuleImage,
			wantComplexity: model.ComplexityAdvanced,
			wantImages:     true,
			minConfidence:  0.8,
		},
		{
			name:           "markup",
			samples:        []string{"<p>Hola <strong>Anna</strong></p>", "plain"},
			wantModule:     model.ModuleHTML,
			wantComplexity: model.ComplexityAdvanced,
			wantHTML:       true,
			minConfidence:  0.8,
		},
		{
			name:           "comparison signs are not markup",
			samples:        []string{"a < b and c > d"},
			wantModule:     model.ModuleText,
			wantComplexity: model.ComplexitySimple,
			minConfidence:  0.9,
		},
		{
			name:           "emphasis",
			samples:        []string{"**Urgent** payment"},
			wantModule:     model.ModuleStyle,
			wantComplexity: model.ComplexityModerate,
			wantRich:       true,
			minConfidence:  0.7,
		},
		{
			name:           "list markers",
			samples:        []string{"- one\n- two"},
			wantModule:     model.ModuleStyle,
			wantComplexity: model.ComplexityModerate,
			wantRich:       true,
			minConfidence:  0.7,
		},
		{
			name:           "plain text",
			samples:        []string{"Anna Puig", "Joan Vila"},
			wantModule:     model.ModuleText,
			wantComplexity: model.ComplexitySimple,
			minConfidence:  0.9,
		},
		{
			name:           "blank samples",
			samples:        []string{"", "  "},
			wantModule:     model.ModuleText,
			wantComplexity: model.ComplexitySimple,
			minConfidence:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeContent(tt.samples)
			assert.Equal(t, tt.wantModule, got.SuggestedModule)
			assert.Equal(t, tt.wantComplexity, got.ComplexityLevel)
			assert.Equal(t, tt.wantImages, got.HasImages)
			assert.Equal(t, tt.wantHTML, got.HasHTML)
			assert.Equal(t, tt.wantRich, got.HasRichFormatting)
			assert.GreaterOrEqual(t, got.ConfidenceScore, tt.minConfidence)
			assert.LessOrEqual(t, got.ConfidenceScore, 1.0)
			assert.Greater(t, got.ConfidenceScore, 0.0)
			assert.GreaterOrEqual(t, got.EstimatedTimeSavedMinutes, 0.0)
			assert.GreaterOrEqual(t, got.QualityImprovement, 0.0)
			assert.LessOrEqual(t, got.QualityImprovement, 10.0)
		})
	}
}

func TestInferDataType(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		samples []string
		want    model.DataType
	}{
		{name: "emails", header: "Contacte", samples: []string{"anna@example.com", "joan@example.org"}, want: model.DataEmail},
		{name: "phones", header: "Contacte", samples: []string{"+34 600 123 123", "931 234 567"}, want: model.DataPhone},
		{name: "dates", header: "Quan", samples: []string{"2025-10-16", "3 de gener de 2024"}, want: model.DataDate},
		{name: "numbers", header: "Import", samples: []string{"1.250,50 €", "99,90", "12"}, want: model.DataNumber},
		{name: "booleans", header: "Actiu", samples: []string{"Sí", "no", "true"}, want: model.DataBoolean},
		{name: "header hint", header: "Adreça", samples: []string{"C/ Major, 1"}, want: model.DataAddress},
		{name: "mixed falls back to string", header: "Notes", samples: []string{"12", "hello", "world"}, want: model.DataString},
		{name: "empty column", header: "Res", samples: nil, want: model.DataString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, confidence := InferDataType(tt.header, tt.samples)
			assert.Equal(t, tt.want, got)
			assert.Greater(t, confidence, 0.0)
			assert.LessOrEqual(t, confidence, 100.0)
		})
	}
}

func TestAnalyzeColumnPreview(t *testing.T) {
	a := NewAnalyzer(3, nil)
	values := []string{"", "a", "b", " ", "c", "d", "e"}

	got := a.AnalyzeColumn("B", "Nom", model.DataString, values)
	assert.Equal(t, []string{"a", "b", "c"}, got.SampleData)
	assert.Equal(t, "B", got.Column)
	assert.Equal(t, model.DataString, got.DataType)
	assert.InDelta(t, 100, got.Confidence, 1e-9)
	assert.NotEmpty(t, got.Description)
}

func TestAnalyzeTable(t *testing.T) {
	table := model.Table{
		Headers: []string{"Nom", "Email", "Foto"},
		Rows: [][]string{
			{"Anna", "anna@example.com", "anna.jpg"},
			{"Joan", "joan@example.com"},
		},
	}

	got, err := NewAnalyzer(0, nil).AnalyzeTable(table)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "A", got[0].Column)
	assert.Equal(t, "C", got[2].Column)
	assert.Equal(t, model.DataEmail, got[1].DataType)
	assert.True(t, got[2].HasImages)
	assert.Equal(t, []string{"anna.jpg"}, got[2].SampleData)

	_, err = NewAnalyzer(0, nil).AnalyzeTable(model.Table{})
	require.Error(t, err)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", ColumnName(0))
	assert.Equal(t, "Z", ColumnName(25))
	assert.Equal(t, "AA", ColumnName(26))
}
