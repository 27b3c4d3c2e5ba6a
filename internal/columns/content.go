package columns

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/Veraticus/textami/internal/model"
)

var (
	imagePattern = regexp.MustCompile(`(?i)(\.(png|jpe?g|gif|webp|svg|bmp|tiff?)(\?\S*)?$|^data:image/)`)
	emphasis     = regexp.MustCompile(`\*\*[^*]+\*\*|__[^_]+__|~~[^~]+~~`)
	listMarker   = regexp.MustCompile(`(?m)^\s*([-*•·]|\d+[.)])\s+\S`)
)

// Per-module estimates. Minutes saved per document and quality gain on a 0-10 scale.
var (
	timeSaved = map[model.ModuleType]float64{
		model.ModuleText:  0.5,
		model.ModuleStyle: 5,
		model.ModuleHTML:  10,
		model.ModuleImage: 15,
	}
	qualityImprovement = map[model.ModuleType]float64{
		model.ModuleText:  2,
		model.ModuleStyle: 6,
		model.ModuleHTML:  8,
		model.ModuleImage: 9,
	}
	complexity = map[model.ModuleType]model.ComplexityLevel{
		model.ModuleText:  model.ComplexitySimple,
		model.ModuleStyle: model.ComplexityModerate,
		model.ModuleHTML:  model.ComplexityAdvanced,
		model.ModuleImage: model.ComplexityAdvanced,
	}
)

const (
	emptyConfidence = 0.6
	textConfidence  = 0.95
)

// AnalyzeContent classifies sample values. Detection is ordered and the first
// match wins: image references, markup, rich formatting, plain text.
func AnalyzeContent(samples []string) model.ContentAnalysis {
	values := nonEmpty(samples)
	if len(values) == 0 {
		return contentFor(model.ModuleText, emptyConfidence)
	}

	if n := count(values, isImageRef); n > 0 {
		a := contentFor(model.ModuleImage, 0.8+0.2*fraction(n, len(values)))
		a.HasImages = true
		return a
	}

	if n := count(values, hasMarkup); n > 0 {
		a := contentFor(model.ModuleHTML, 0.8+0.2*fraction(n, len(values)))
		a.HasHTML = true
		return a
	}

	if n := count(values, hasRichFormatting); n > 0 {
		a := contentFor(model.ModuleStyle, 0.7+0.2*fraction(n, len(values)))
		a.HasRichFormatting = true
		return a
	}

	return contentFor(model.ModuleText, textConfidence)
}

func contentFor(m model.ModuleType, confidence float64) model.ContentAnalysis {
	return model.ContentAnalysis{
		SuggestedModule:           m,
		ComplexityLevel:           complexity[m],
		ConfidenceScore:           model.ClampUnit(confidence),
		EstimatedTimeSavedMinutes: timeSaved[m],
		QualityImprovement:        qualityImprovement[m],
	}
}

func isImageRef(v string) bool {
	return imagePattern.MatchString(strings.TrimSpace(v))
}

// hasMarkup reports whether v contains at least one recognized HTML element tag.
func hasMarkup(v string) bool {
	if !strings.Contains(v, "<") {
		return false
	}

	z := html.NewTokenizer(strings.NewReader(v))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			if z.Token().DataAtom != 0 {
				return true
			}
		}
	}
}

func hasRichFormatting(v string) bool {
	if emphasis.MatchString(v) || listMarker.MatchString(v) {
		return true
	}
	return strings.Count(strings.TrimSpace(v), "\n") > 0
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func count(values []string, match func(string) bool) int {
	n := 0
	for _, v := range values {
		if match(v) {
			n++
		}
	}
	return n
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
