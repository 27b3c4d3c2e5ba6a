package document

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

// TextProvider reads plain text, Markdown and HTML templates from a blob store.
type TextProvider struct {
	store service.BlobStore
}

var _ service.DocumentProvider = (*TextProvider)(nil)

// NewTextProvider creates a TextProvider.
func NewTextProvider(store service.BlobStore) *TextProvider {
	return &TextProvider{store: store}
}

// GetContent returns the document text. Paragraphs are blank-line separated
// blocks for text and Markdown, and block-level elements for HTML.
func (p *TextProvider) GetContent(ctx context.Context, locator string) (model.DocumentContent, error) {
	data, err := p.store.Get(ctx, locator)
	if err != nil {
		return model.DocumentContent{}, fetchError(locator, err)
	}
	if !utf8.Valid(data) {
		return model.DocumentContent{}, fmt.Errorf("%w: %s is not UTF-8 text", common.ErrMalformedContainer, locator)
	}

	format := textFormat(locator)
	var paragraphs []string
	if format == "html" {
		paragraphs = htmlParagraphs(data)
	} else {
		paragraphs = textParagraphs(string(data))
	}

	return model.DocumentContent{
		Locator:    locator,
		Format:     format,
		Text:       strings.Join(paragraphs, "\n"),
		Paragraphs: paragraphs,
	}, nil
}

func textFormat(locator string) string {
	switch strings.ToLower(path.Ext(locator)) {
	case ".html", ".htm":
		return "html"
	case ".md", ".markdown":
		return "markdown"
	default:
		return "text"
	}
}

func textParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Br: true, atom.Section: true, atom.Article: true, atom.Pre: true,
}

// htmlParagraphs returns the visible text of each block element.
func htmlParagraphs(data []byte) []string {
	var (
		out     []string
		current strings.Builder
		skip    int
	)
	flush := func() {
		if text := strings.Join(strings.Fields(current.String()), " "); text != "" {
			out = append(out, text)
		}
		current.Reset()
	}

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return out
		case html.TextToken:
			if skip == 0 {
				current.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if tok.Type == html.StartTagToken {
					skip++
				}
			case blockElements[tok.DataAtom]:
				flush()
			}
		case html.EndTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if skip > 0 {
					skip--
				}
			case blockElements[tok.DataAtom]:
				flush()
			}
		}
	}
}
