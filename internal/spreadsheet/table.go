// Package spreadsheet provides dataset providers for XLSX, CSV and Google Sheets.
package spreadsheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
)

// splitLocator separates "path#Sheet" into its parts.
func splitLocator(locator string) (string, string) {
	base, fragment, _ := strings.Cut(locator, "#")
	return strings.TrimSpace(base), strings.TrimSpace(fragment)
}

// buildTable turns raw rows into a Table. The first row with a non-blank cell is
// the header. Blank rows are skipped and ragged rows are padded. Data that runs
// past the header gets a column-letter header, as do blank header cells.
func buildTable(raw [][]string) (model.Table, error) {
	start := -1
	for i, row := range raw {
		if !blank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return model.Table{}, common.InvalidInput("no header row found")
	}

	headers := trimTrailing(raw[start])
	var rows [][]string
	for _, row := range raw[start+1:] {
		if blank(row) {
			continue
		}
		row = trimTrailing(row)
		for len(headers) < len(row) {
			headers = append(headers, "")
		}
		rows = append(rows, row)
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return model.Table{}, fmt.Errorf("%w: column %d: %w", common.ErrInvalidInput, i+1, err)
			}
			headers[i] = name
		}
	}

	if rows == nil {
		rows = [][]string{}
	}
	for i, row := range rows {
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			rows[i] = padded
		}
	}
	return model.Table{Headers: headers, Rows: rows}, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimTrailing(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	out := make([]string, n)
	copy(out, row[:n])
	return out
}

func fetchError(locator string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: dataset %s: %w", common.ErrInvalidInput, locator, err)
	}
	return fmt.Errorf("%w: failed to fetch dataset %s: %w", common.ErrUpstreamUnavailable, locator, err)
}
