package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/model"
)

func TestToParsedTags(t *testing.T) {
	candidates := []model.PlaceholderCandidate{
		{Text: "{{import}}", Variable: "import", Type: model.TypeCurrency, Confidence: 90, Example: "1.250,50 €"},
		{Text: "[import]", Variable: "import", Type: model.TypeString, Confidence: 40},
		{Text: "{{data}}", Variable: "data", Type: model.TypeDate, Confidence: 75, Example: "16 d'octubre de 2025"},
		{Text: "«Nom Client»", Type: model.TypeString, Confidence: 120},
	}

	tags := ToParsedTags(candidates)
	require.Len(t, tags, 4)

	assert.Equal(t, "import", tags[0].Slug)
	assert.Equal(t, 1250.50, tags[0].Normalized)
	assert.InDelta(t, 0.9, tags[0].Confidence, 1e-9)

	assert.Equal(t, "import_2", tags[1].Slug)
	assert.Equal(t, "[import]", tags[1].Normalized)

	assert.Equal(t, "2025-10-16", tags[2].Normalized)

	assert.Equal(t, "nom_client", tags[3].Slug)
	assert.InDelta(t, 1.0, tags[3].Confidence, 1e-9)

	for _, tag := range tags {
		assert.GreaterOrEqual(t, tag.Confidence, 0.0)
		assert.LessOrEqual(t, tag.Confidence, 1.0)
	}
}

func TestToParsedTagsLeavesInputUntouched(t *testing.T) {
	candidates := []model.PlaceholderCandidate{{Text: "{{x}}", Variable: "x", Confidence: 80}}
	_ = ToParsedTags(candidates)
	assert.InDelta(t, 80, candidates[0].Confidence, 1e-9)
}
