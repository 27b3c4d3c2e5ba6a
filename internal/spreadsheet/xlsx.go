package spreadsheet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

// XLSXProvider reads workbooks from a blob store. A locator of the form
// "file.xlsx#Sheet" selects a sheet; otherwise the first sheet is read.
type XLSXProvider struct {
	store service.BlobStore
}

var _ service.SpreadsheetProvider = (*XLSXProvider)(nil)

// NewXLSXProvider creates an XLSXProvider.
func NewXLSXProvider(store service.BlobStore) *XLSXProvider {
	return &XLSXProvider{store: store}
}

// GetRows returns the header and data rows of the selected sheet.
func (p *XLSXProvider) GetRows(ctx context.Context, locator string) (model.Table, error) {
	name, sheet := splitLocator(locator)
	data, err := p.store.Get(ctx, name)
	if err != nil {
		return model.Table{}, fetchError(name, err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %s is not a workbook: %w", common.ErrMalformedContainer, name, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Table{}, common.InvalidInput("workbook %s has no sheets", name)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return model.Table{}, common.InvalidInput("workbook %s has no sheet %q", name, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: sheet %q: %w", common.ErrMalformedContainer, sheet, err)
	}

	table, err := buildTable(rows)
	if err != nil {
		return model.Table{}, fmt.Errorf("sheet %q of %s: %w", sheet, name, err)
	}
	return table, nil
}
