package extract

import (
	"strconv"

	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/normalize"
)

// ToParsedTags normalizes candidates into tags. Slugs are unique within the
// returned slice, confidence is rescaled to a unit fraction, and the normalized
// value is derived from the example when there is one.
func ToParsedTags(candidates []model.PlaceholderCandidate) []model.ParsedTag {
	tags := make([]model.ParsedTag, 0, len(candidates))
	used := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		base := c.Variable
		if base == "" {
			base = Variable(c.Text)
		}
		if base == "" {
			base = "placeholder"
		}

		slug := base
		for n := 2; used[slug]; n++ {
			slug = base + "_" + strconv.Itoa(n)
		}
		used[slug] = true

		source := c.Example
		if source == "" {
			source = c.Text
		}

		tag := model.ParsedTag{
			PlaceholderCandidate: c,
			Slug:                 slug,
			Normalized:           normalize.Normalize(source, c.Type),
		}
		tag.Confidence = model.PercentToUnit(c.Confidence)
		tags = append(tags, tag)
	}

	return tags
}
