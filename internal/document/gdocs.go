package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

// GoogleDocsProvider reads Google Docs documents. The locator is the document ID.
type GoogleDocsProvider struct {
	service *docs.Service
}

var _ service.DocumentProvider = (*GoogleDocsProvider)(nil)

// NewGoogleDocsProvider creates a provider on an authenticated Docs service.
func NewGoogleDocsProvider(svc *docs.Service) *GoogleDocsProvider {
	return &GoogleDocsProvider{service: svc}
}

// GetContent returns body paragraphs in reading order, including table cells.
func (p *GoogleDocsProvider) GetContent(ctx context.Context, locator string) (model.DocumentContent, error) {
	id := strings.TrimSpace(locator)
	if id == "" {
		return model.DocumentContent{}, common.InvalidInput("document ID is required")
	}

	doc, err := p.service.Documents.Get(id).Context(ctx).Do()
	if err != nil {
		return model.DocumentContent{}, googleError("document", id, err)
	}

	var paragraphs []string
	if doc.Body != nil {
		paragraphs = collectParagraphs(doc.Body.Content, paragraphs)
	}

	return model.DocumentContent{
		Locator:    locator,
		Format:     "gdoc",
		Text:       strings.Join(paragraphs, "\n"),
		Paragraphs: paragraphs,
	}, nil
}

func collectParagraphs(elements []*docs.StructuralElement, out []string) []string {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			var b strings.Builder
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
			if text := strings.TrimRight(b.String(), "\n"); strings.TrimSpace(text) != "" {
				out = append(out, text)
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					out = collectParagraphs(cell.Content, out)
				}
			}
		}
	}
	return out
}

// googleError classifies a Google API failure. Unknown or inaccessible IDs are
// caller errors; everything else is an upstream failure.
func googleError(kind, id string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusBadRequest:
			return fmt.Errorf("%w: %s %s: %w", common.ErrInvalidInput, kind, id, err)
		}
	}
	return fmt.Errorf("%w: failed to fetch %s %s: %w", common.ErrUpstreamUnavailable, kind, id, err)
}
