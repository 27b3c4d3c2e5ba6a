package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
)

// fileVersion is written into every mapping file.
const fileVersion = 1

// File is the on-disk form of a mapping, exchanged between the map and generate commands.
type File struct {
	Template     string                       `yaml:"template,omitempty"`
	Dataset      string                       `yaml:"dataset,omitempty"`
	Placeholders []model.PlaceholderCandidate `yaml:"placeholders"`
	Modules      []model.ModuleMapping        `yaml:"modules,omitempty"`
	Intelligence model.MappingIntelligence    `yaml:"intelligence"`
	Version      int                          `yaml:"version"`
}

// SaveFile writes f as YAML to path.
func SaveFile(path string, f File) error {
	f.Version = fileVersion
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode mapping file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	return nil
}

// LoadFile reads a mapping file written by SaveFile.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: mapping file %s: %w", common.ErrInvalidInput, path, err)
	}
	if f.Version != fileVersion {
		return File{}, common.InvalidInput("mapping file %s has unsupported version %d", path, f.Version)
	}
	return f, nil
}
