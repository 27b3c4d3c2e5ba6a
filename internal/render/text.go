package render

import (
	"bytes"
	"fmt"
	"html"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/modules"
	"github.com/Veraticus/textami/internal/service"
)

// TextRenderer renders plain text and HTML templates.
type TextRenderer struct {
	markup *bluemonday.Policy
	strip  *bluemonday.Policy
	html   bool
}

var _ service.TemplateRenderer = (*TextRenderer)(nil)

// NewTextRenderer creates a renderer. With asHTML set, text values are escaped,
// markup values are sanitized and images become <img> elements; otherwise every
// module renders as plain text.
func NewTextRenderer(asHTML bool) *TextRenderer {
	return &TextRenderer{
		markup: bluemonday.UGCPolicy(),
		strip:  bluemonday.StrictPolicy(),
		html:   asHTML,
	}
}

// Prepare rewrites raw placeholders into module syntax. At least one rewrite key
// must occur in the template.
func (r *TextRenderer) Prepare(template []byte, rewrites map[string]string) ([]byte, error) {
	if err := checkText(template); err != nil {
		return nil, err
	}
	rw, err := newRewriter(rewrites)
	if err != nil {
		return nil, err
	}
	text := string(template)
	if !rw.Contains(text) {
		return nil, common.InvalidInput("none of %d mapped placeholders occur in the template", len(rw.keys))
	}
	return []byte(rw.Replace(text)), nil
}

// Render substitutes data into a prepared template.
func (r *TextRenderer) Render(template []byte, data map[string]any) ([]byte, error) {
	if err := checkText(template); err != nil {
		return nil, err
	}
	out, err := substitute(string(template), data, r.value)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (r *TextRenderer) value(d modules.Directive, value string) (string, error) {
	if !r.html {
		return plainValue(r.strip, d, value)
	}

	switch d.Module {
	case model.ModuleHTML:
		return r.markup.Sanitize(value), nil
	case model.ModuleImage:
		if err := validImageRef(value); err != nil {
			return "", err
		}
		if value == "" {
			return "", nil
		}
		return fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(value), html.EscapeString(d.Column)), nil
	case model.ModuleStyle:
		return fmt.Sprintf(`<span style="%s">%s</span>`, html.EscapeString(d.Style), html.EscapeString(value)), nil
	default:
		return html.EscapeString(value), nil
	}
}

// plainValue renders a directive without markup. Markup values lose their tags.
func plainValue(strip *bluemonday.Policy, d modules.Directive, value string) (string, error) {
	switch d.Module {
	case model.ModuleHTML:
		return html.UnescapeString(strip.Sanitize(value)), nil
	case model.ModuleImage:
		if err := validImageRef(value); err != nil {
			return "", err
		}
		return value, nil
	default:
		return value, nil
	}
}

func checkText(template []byte) error {
	if len(bytes.TrimSpace(template)) == 0 {
		return common.InvalidInput("template is empty")
	}
	if !utf8.Valid(template) {
		return fmt.Errorf("%w: template is not valid UTF-8 text", common.ErrMalformedContainer)
	}
	return nil
}
