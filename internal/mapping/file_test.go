package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
)

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	page := 1
	f := File{
		Template: "contract.docx",
		Dataset:  "clients.xlsx",
		Placeholders: []model.PlaceholderCandidate{
			{Text: "{{nom}}", Variable: "nom", Type: model.TypeString, Confidence: 90, Page: &page},
		},
		Intelligence: model.MappingIntelligence{
			Proposals:            []model.MappingProposal{{Placeholder: "{{nom}}", Column: "A", ColumnHeader: "Nom", Confidence: 90, DataTypeMatch: true}},
			UnmappedPlaceholders: []string{},
			UnmappedColumns:      []string{"B"},
			OverallConfidence:    90,
		},
		Modules: []model.ModuleMapping{CreateIntelligentMapping(imageColumn(), "[LOGO]")},
	}

	require.NoError(t, SaveFile(path, f))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, f.Template, got.Template)
	assert.Equal(t, f.Intelligence.Proposals, got.Intelligence.Proposals)
	assert.Equal(t, f.Intelligence.UnmappedColumns, got.Intelligence.UnmappedColumns)
	assert.Empty(t, got.Intelligence.UnmappedPlaceholders)
	assert.InDelta(t, 90, got.Intelligence.OverallConfidence, 1e-9)
	assert.Equal(t, f.Modules, got.Modules)
	require.Len(t, got.Placeholders, 1)
	require.NotNil(t, got.Placeholders[0].Page)
	assert.Equal(t, 1, *got.Placeholders[0].Page)
}

func TestLoadFileRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: [\n"), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	old := filepath.Join(dir, "old.yaml")
	require.NoError(t, os.WriteFile(old, []byte("version: 7\n"), 0o600))
	_, err = LoadFile(old)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
