package mapping

import (
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/modules"
)

// Rewrites maps each mapped placeholder's raw text to the module syntax it is
// replaced with before rendering. Validated module mappings decide the module
// for their column; every other column renders as plain text.
func Rewrites(intel model.MappingIntelligence, mappings []model.ModuleMapping) map[string]string {
	byColumn := make(map[string]model.ModuleMapping, len(mappings))
	for _, m := range mappings {
		if m.Status == model.StatusValidated {
			byColumn[m.Column] = m
		}
	}

	out := make(map[string]string, len(intel.Proposals))
	for _, p := range intel.Proposals {
		if m, ok := byColumn[p.Column]; ok {
			out[p.Placeholder] = m.GeneratedSyntax
			continue
		}
		name := p.ColumnHeader
		if name == "" {
			name = p.Column
		}
		out[p.Placeholder] = modules.Syntax(name, model.ModuleText)
	}
	return out
}
