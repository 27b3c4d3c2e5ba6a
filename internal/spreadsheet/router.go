package spreadsheet

import (
	"context"
	"path"
	"strings"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

// GoogleSheetsScheme prefixes locators that name a Google Sheets spreadsheet.
const GoogleSheetsScheme = "gsheets:"

// Router dispatches a locator to the provider for its format.
type Router struct {
	xlsx   service.SpreadsheetProvider
	csv    service.SpreadsheetProvider
	google service.SpreadsheetProvider
}

var _ service.SpreadsheetProvider = (*Router)(nil)

// NewRouter creates a Router. google may be nil when no credentials are configured.
func NewRouter(xlsx, csv, google service.SpreadsheetProvider) *Router {
	return &Router{xlsx: xlsx, csv: csv, google: google}
}

// GetRows picks a provider by scheme or file extension.
func (r *Router) GetRows(ctx context.Context, locator string) (model.Table, error) {
	if id, ok := strings.CutPrefix(locator, GoogleSheetsScheme); ok {
		if r.google == nil {
			return model.Table{}, common.InvalidInput("Google Sheets is not configured; cannot read %s", locator)
		}
		return r.google.GetRows(ctx, id)
	}

	name, _ := splitLocator(locator)
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xlsm":
		return r.xlsx.GetRows(ctx, locator)
	case ".csv", ".tsv":
		return r.csv.GetRows(ctx, locator)
	default:
		return model.Table{}, common.InvalidInput("unsupported dataset format: %s", locator)
	}
}
