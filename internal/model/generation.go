package model

import "sort"

// Row is one dataset row keyed by column header.
type Row map[string]any

// GeneratedDocument is a successfully rendered and stored row.
type GeneratedDocument struct {
	RowData         Row    `json:"rowData"`
	DocumentID      string `json:"documentId"`
	FileName        string `json:"fileName"`
	DownloadLocator string `json:"downloadLocator"`
	RowIndex        int    `json:"rowIndex"`
}

// GenerationError is a row that failed to render or store.
type GenerationError struct {
	RowData  Row    `json:"rowData"`
	Error    string `json:"error"`
	RowIndex int    `json:"rowIndex"`
}

// GenerationReport aggregates the outcome of a batch.
type GenerationReport struct {
	Documents      []GeneratedDocument `json:"documents"`
	Errors         []GenerationError   `json:"errors"`
	TotalRequested int                 `json:"totalRequested"`
	TotalGenerated int                 `json:"totalGenerated"`
	TotalErrors    int                 `json:"totalErrors"`
	Success        bool                `json:"success"`
}

// Finalize orders outcomes by row index and recomputes the totals.
func (r *GenerationReport) Finalize() {
	sort.Slice(r.Documents, func(i, j int) bool { return r.Documents[i].RowIndex < r.Documents[j].RowIndex })
	sort.Slice(r.Errors, func(i, j int) bool { return r.Errors[i].RowIndex < r.Errors[j].RowIndex })
	r.TotalGenerated = len(r.Documents)
	r.TotalErrors = len(r.Errors)
	r.Success = r.TotalGenerated > 0
}
