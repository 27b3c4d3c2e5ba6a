package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVProvider reads delimited text datasets from a blob store. The delimiter is
// a tab for .tsv files, otherwise whichever of ';' and ',' dominates the first line.
type CSVProvider struct {
	store service.BlobStore
}

var _ service.SpreadsheetProvider = (*CSVProvider)(nil)

// NewCSVProvider creates a CSVProvider.
func NewCSVProvider(store service.BlobStore) *CSVProvider {
	return &CSVProvider{store: store}
}

// GetRows parses the dataset.
func (p *CSVProvider) GetRows(ctx context.Context, locator string) (model.Table, error) {
	name, _ := splitLocator(locator)
	data, err := p.store.Get(ctx, name)
	if err != nil {
		return model.Table{}, fetchError(name, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delimiter(name, data)

	records, err := r.ReadAll()
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %s: %w", common.ErrMalformedContainer, name, err)
	}

	table, err := buildTable(records)
	if err != nil {
		return model.Table{}, fmt.Errorf("%s: %w", name, err)
	}
	return table, nil
}

func delimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}
