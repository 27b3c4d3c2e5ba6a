package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/Veraticus/textami/internal/common"
)

const (
	manifestVersion = "1.0"
	stylesPart      = "word/styles.xml"
	numberingPart   = "word/numbering.xml"
)

// Semantic HTML elements a Word style can map to.
const (
	ElementH1         = "h1"
	ElementH2         = "h2"
	ElementH3         = "h3"
	ElementParagraph  = "p"
	ElementBodyText   = "p.BodyText"
	ElementBulleted   = "ul.Bulleted"
	ElementNumbered   = "ol.Numbered"
	ElementTable      = "table.StdTable"
	ElementBlockquote = "blockquote"
)

// Vocabulary lists the semantic elements in a stable order.
var Vocabulary = []string{
	ElementH1, ElementH2, ElementH3, ElementParagraph, ElementBodyText,
	ElementBulleted, ElementNumbered, ElementTable, ElementBlockquote,
}

// essentials are guaranteed to be present in every manifest.
var essentials = []struct{ element, style string }{
	{ElementH1, "Heading 1"},
	{ElementH2, "Heading 2"},
	{ElementParagraph, "Normal"},
	{ElementTable, "Table Grid"},
}

// StyleManifest maps the Word styles of a document onto semantic HTML elements.
type StyleManifest struct {
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	// Styles maps element to Word style name.
	Styles map[string]string `json:"styles" yaml:"styles"`
	// Fallbacks maps unrecognized style names to the element used for them.
	Fallbacks  map[string]string  `json:"fallbacks" yaml:"fallbacks"`
	Version    string             `json:"version" yaml:"version"`
	Source     string             `json:"source" yaml:"source"`
	Warnings   []string           `json:"warnings" yaml:"warnings"`
	Vocabulary []string           `json:"vocabulary" yaml:"vocabulary"`
	Statistics ManifestStatistics `json:"statistics" yaml:"statistics"`
}

// ManifestStatistics summarizes what the manifest was built from.
type ManifestStatistics struct {
	TotalStyles          int `json:"totalStylesFound" yaml:"totalStylesFound"`
	MappedStyles         int `json:"mappedStyles" yaml:"mappedStyles"`
	FallbackStyles       int `json:"fallbackStyles" yaml:"fallbackStyles"`
	NumberingDefinitions int `json:"numberingDefinitions" yaml:"numberingDefinitions"`
	Paragraphs           int `json:"paragraphs" yaml:"paragraphs"`
	Tables               int `json:"tables" yaml:"tables"`
}

// StyleReport is a manifest together with the document it describes.
type StyleReport struct {
	Manifest StyleManifest
	styles   map[string]wordStyle
	body     body
}

type wordStyle struct {
	ID      string
	Name    string
	Type    string
	BasedOn string
}

type stylesXML struct {
	Styles []struct {
		Type    string `xml:"type,attr"`
		StyleID string `xml:"styleId,attr"`
		Name    *struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
		BasedOn *struct {
			Val string `xml:"val,attr"`
		} `xml:"basedOn"`
	} `xml:"style"`
}

type numberingXML struct {
	Nums []struct {
		NumID string `xml:"numId,attr"`
	} `xml:"num"`
}

// AnalyzeStyles builds the style manifest of a DOCX container. A missing or
// unreadable styles or numbering part is a warning; only an unreadable
// container fails.
func AnalyzeStyles(data []byte, source string, now time.Time) (StyleReport, error) {
	zr, err := openContainer(data)
	if err != nil {
		return StyleReport{}, err
	}
	b, err := readBody(zr)
	if err != nil {
		return StyleReport{}, err
	}

	var warnings []string
	ordered, err := readStyles(zr)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	numbering, err := countNumbering(zr)
	if err != nil {
		warnings = append(warnings, err.Error())
	}

	styles := make(map[string]string)
	fallbacks := make(map[string]string)
	byID := make(map[string]wordStyle, len(ordered))
	for _, s := range ordered {
		byID[s.ID] = s
		if s.Type != "paragraph" && s.Type != "table" {
			continue
		}
		if element := StyleElement(s.Name, s.Type); element != "" {
			styles[element] = s.Name
			continue
		}
		fallback := fallbackElement(s.Type)
		fallbacks[s.Name] = fallback
		warnings = append(warnings, fmt.Sprintf("unknown style %q mapped to %q", s.Name, fallback))
	}

	mapped := len(styles)
	for _, e := range essentials {
		if _, ok := styles[e.element]; !ok {
			styles[e.element] = e.style
		}
	}

	if warnings == nil {
		warnings = []string{}
	}
	return StyleReport{
		Manifest: StyleManifest{
			Version:     manifestVersion,
			GeneratedAt: now,
			Source:      path.Base(source),
			Styles:      styles,
			Fallbacks:   fallbacks,
			Warnings:    warnings,
			Vocabulary:  append([]string(nil), Vocabulary...),
			Statistics: ManifestStatistics{
				TotalStyles:          len(ordered),
				MappedStyles:         mapped,
				FallbackStyles:       len(fallbacks),
				NumberingDefinitions: numbering,
				Paragraphs:           len(b.Paragraphs),
				Tables:               len(b.Tables),
			},
		},
		styles: byID,
		body:   b,
	}, nil
}

// StyleElement maps a Word style name to a semantic element, or "" when no
// heuristic matches.
func StyleElement(name, styleType string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "heading 1") || lower == "title":
		return ElementH1
	case strings.Contains(lower, "heading 2") || strings.Contains(lower, "subtitle"):
		return ElementH2
	case strings.Contains(lower, "heading 3"):
		return ElementH3
	case strings.Contains(lower, "body text"):
		return ElementBodyText
	case strings.Contains(lower, "body") || strings.Contains(lower, "normal"):
		return ElementParagraph
	case strings.Contains(lower, "bullet"):
		return ElementBulleted
	case strings.Contains(lower, "list number") || strings.Contains(lower, "numbered"):
		return ElementNumbered
	case styleType == "table" || strings.Contains(lower, "table"):
		return ElementTable
	case strings.Contains(lower, "quote") || strings.Contains(lower, "block"):
		return ElementBlockquote
	}
	return ""
}

func fallbackElement(styleType string) string {
	if styleType == "table" {
		return ElementTable
	}
	return ElementParagraph
}

// readStyles returns the styles of the document in declaration order.
func readStyles(zr *zip.Reader) ([]wordStyle, error) {
	data, err := readPart(zr, stylesPart)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%s not found, no styles mapped from the document", stylesPart)
	}

	var parsed stylesXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrMalformedContainer, stylesPart, err)
	}

	styles := make([]wordStyle, 0, len(parsed.Styles))
	for _, s := range parsed.Styles {
		ws := wordStyle{ID: s.StyleID, Name: s.StyleID, Type: s.Type}
		if s.Name != nil && s.Name.Val != "" {
			ws.Name = s.Name.Val
		}
		if s.BasedOn != nil {
			ws.BasedOn = s.BasedOn.Val
		}
		styles = append(styles, ws)
	}
	return styles, nil
}

// countNumbering returns the number of list definitions. A document without
// numbering.xml has no lists.
func countNumbering(zr *zip.Reader) (int, error) {
	data, err := readPart(zr, numberingPart)
	if err != nil || data == nil {
		return 0, err
	}
	var parsed numberingXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", common.ErrMalformedContainer, numberingPart, err)
	}
	return len(parsed.Nums), nil
}

// ElementFor returns the bare element a paragraph style ID renders as, walking
// basedOn inheritance. Unmapped styles render as p.
func (r StyleReport) ElementFor(styleID string) string {
	seen := make(map[string]bool)
	for id := styleID; id != "" && !seen[id]; id = r.styles[id].BasedOn {
		seen[id] = true
		name := id
		if s, ok := r.styles[id]; ok {
			name = s.Name
		}
		for _, element := range Vocabulary {
			if r.Manifest.Styles[element] == name {
				return strings.SplitN(element, ".", 2)[0]
			}
		}
	}
	return ElementParagraph
}

// Preview renders the document body as semantic HTML using the manifest.
func (r StyleReport) Preview() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(r.Manifest.Source))
	b.WriteString("</head>\n<body>\n<div class=\"document-preview\">\n")
	for _, p := range r.body.Paragraphs {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		element := r.ElementFor(p.Style)
		fmt.Fprintf(&b, "<%s>%s</%s>\n", element, html.EscapeString(p.Text), element)
	}
	for _, t := range r.body.Tables {
		fmt.Fprintf(&b, "<table class=\"StdTable\"><tr><td>[Table %dx%d]</td></tr></table>\n", t.Rows, t.Cols)
	}
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}
