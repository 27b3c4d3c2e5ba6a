package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/render"
	"github.com/Veraticus/textami/internal/service"
)

// GoogleSheetsProvider reads Google Sheets. The locator is "spreadsheetID" or
// "spreadsheetID#Range"; without a range the first sheet is read.
type GoogleSheetsProvider struct {
	service *sheets.Service
}

var _ service.SpreadsheetProvider = (*GoogleSheetsProvider)(nil)

// NewGoogleSheetsProvider creates a provider on an authenticated Sheets service.
func NewGoogleSheetsProvider(svc *sheets.Service) *GoogleSheetsProvider {
	return &GoogleSheetsProvider{service: svc}
}

// GetRows returns formatted cell values so they read as a person sees them.
func (p *GoogleSheetsProvider) GetRows(ctx context.Context, locator string) (model.Table, error) {
	id, rng := splitLocator(locator)
	if id == "" {
		return model.Table{}, common.InvalidInput("spreadsheet ID is required")
	}

	if rng == "" {
		meta, err := p.service.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return model.Table{}, googleError(id, err)
		}
		if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
			return model.Table{}, common.InvalidInput("spreadsheet %s has no sheets", id)
		}
		rng = meta.Sheets[0].Properties.Title
	}

	resp, err := p.service.Spreadsheets.Values.Get(id, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return model.Table{}, googleError(id, err)
	}

	raw := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = render.Stringify(v)
		}
		raw[i] = cells
	}

	table, err := buildTable(raw)
	if err != nil {
		return model.Table{}, fmt.Errorf("spreadsheet %s range %q: %w", id, rng, err)
	}
	return table, nil
}

func googleError(id string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusBadRequest:
			return fmt.Errorf("%w: spreadsheet %s: %w", common.ErrInvalidInput, id, err)
		}
	}
	return fmt.Errorf("%w: failed to read spreadsheet %s: %w", common.ErrUpstreamUnavailable, id, err)
}
