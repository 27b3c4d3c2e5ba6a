package document

import (
	"context"
	"path"
	"strings"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

// GoogleDocsScheme prefixes locators that name a Google Docs document.
const GoogleDocsScheme = "gdocs:"

// Router dispatches a locator to the provider for its format.
type Router struct {
	docx   service.DocumentProvider
	text   service.DocumentProvider
	google service.DocumentProvider
}

var _ service.DocumentProvider = (*Router)(nil)

// NewRouter creates a Router. google may be nil when no credentials are configured.
func NewRouter(docx, text, google service.DocumentProvider) *Router {
	return &Router{docx: docx, text: text, google: google}
}

// GetContent picks a provider by scheme or file extension.
func (r *Router) GetContent(ctx context.Context, locator string) (model.DocumentContent, error) {
	if id, ok := strings.CutPrefix(locator, GoogleDocsScheme); ok {
		if r.google == nil {
			return model.DocumentContent{}, common.InvalidInput("Google Docs is not configured; cannot read %s", locator)
		}
		return r.google.GetContent(ctx, id)
	}

	switch strings.ToLower(path.Ext(locator)) {
	case ".docx":
		return r.docx.GetContent(ctx, locator)
	case ".txt", ".md", ".markdown", ".html", ".htm":
		return r.text.GetContent(ctx, locator)
	default:
		return model.DocumentContent{}, common.InvalidInput("unsupported document format: %s", locator)
	}
}
