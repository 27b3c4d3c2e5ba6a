package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/modules"
	"github.com/Veraticus/textami/internal/service"
)

var (
	paragraphPattern = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*[^/>])?>.*?</w:p>`)
	textRunPattern   = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
	// partPattern selects the parts whose paragraphs carry visible text.
	partPattern = regexp.MustCompile(`^word/(document|header\d*|footer\d*|footnotes|endnotes)\.xml$`)
)

// DocxRenderer renders Word documents. Substitution happens per paragraph on the
// concatenated text of its runs, so placeholders split across runs are found.
// A rewritten paragraph keeps the formatting of its first run.
type DocxRenderer struct {
	strip *bluemonday.Policy
}

var _ service.TemplateRenderer = (*DocxRenderer)(nil)

// NewDocxRenderer creates a DocxRenderer.
func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{strip: bluemonday.StrictPolicy()}
}

// Prepare rewrites raw placeholders into module syntax inside the document parts.
func (r *DocxRenderer) Prepare(template []byte, rewrites map[string]string) ([]byte, error) {
	rw, err := newRewriter(rewrites)
	if err != nil {
		return nil, err
	}

	found := false
	out, err := transformParts(template, func(text string) (string, error) {
		if rw.Contains(text) {
			found = true
		}
		return rw.Replace(text), nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.InvalidInput("none of %d mapped placeholders occur in the document", len(rw.keys))
	}
	return out, nil
}

// Render substitutes data into a prepared document.
func (r *DocxRenderer) Render(template []byte, data map[string]any) ([]byte, error) {
	return transformParts(template, func(text string) (string, error) {
		return substitute(text, data, func(d modules.Directive, value string) (string, error) {
			return plainValue(r.strip, d, value)
		})
	})
}

// transformParts rewrites paragraph text in every text-bearing part and copies
// the remaining entries unchanged.
func transformParts(container []byte, fn func(string) (string, error)) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a DOCX archive: %w", common.ErrMalformedContainer, err)
	}

	hasMain := false
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			hasMain = true
			break
		}
	}
	if !hasMain {
		return nil, fmt.Errorf("%w: word/document.xml not found in archive", common.ErrMalformedContainer)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrMalformedContainer, f.Name, err)
		}

		if partPattern.MatchString(f.Name) {
			rewritten, err := transformParagraphs(string(data), fn)
			if err != nil {
				return nil, err
			}
			data = []byte(rewritten)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func transformParagraphs(part string, fn func(string) (string, error)) (string, error) {
	var firstErr error
	out := paragraphPattern.ReplaceAllStringFunc(part, func(p string) string {
		if firstErr != nil {
			return p
		}
		rewritten, err := transformParagraph(p, fn)
		if err != nil {
			firstErr = err
			return p
		}
		return rewritten
	})
	return out, firstErr
}

func transformParagraph(p string, fn func(string) (string, error)) (string, error) {
	runs := textRunPattern.FindAllStringSubmatchIndex(p, -1)
	if len(runs) == 0 {
		return p, nil
	}

	var text strings.Builder
	for _, m := range runs {
		text.WriteString(html.UnescapeString(p[m[2]:m[3]]))
	}
	original := text.String()

	rewritten, err := fn(original)
	if err != nil {
		return "", err
	}
	if rewritten == original {
		return p, nil
	}

	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(rewritten)); err != nil {
		return "", fmt.Errorf("failed to escape paragraph text: %w", err)
	}

	var b strings.Builder
	last := 0
	for i, m := range runs {
		b.WriteString(p[last:m[0]])
		if i == 0 {
			b.WriteString(`<w:t xml:space="preserve">`)
			b.Write(escaped.Bytes())
			b.WriteString(`</w:t>`)
		} else {
			b.WriteString(`<w:t></w:t>`)
		}
		last = m[1]
	}
	b.WriteString(p[last:])
	return b.String(), nil
}
