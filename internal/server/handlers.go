package server

import (
	"net/http"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/pipeline"
)

type analyzeDocumentRequest struct {
	Locator string `json:"locator"`
	Sample  string `json:"sample"`
}

func (s *Server) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	var req analyzeDocumentRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.ops.AnalyzeDocument(r.Context(), req.Locator, req.Sample)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// analyzeColumnsRequest names a dataset by locator or carries it inline.
type analyzeColumnsRequest struct {
	Table   *model.Table `json:"table,omitempty"`
	Locator string       `json:"locator"`
}

func (s *Server) handleAnalyzeColumns(w http.ResponseWriter, r *http.Request) {
	var req analyzeColumnsRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		result pipeline.ColumnsAnalysis
		err    error
	)
	switch {
	case req.Table != nil:
		result, err = s.ops.AnalyzeTable(req.Locator, *req.Table)
	case req.Locator != "":
		result, err = s.ops.AnalyzeColumns(r.Context(), req.Locator)
	default:
		err = common.InvalidInput("either locator or table is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type mappingsRequest struct {
	Placeholders []model.PlaceholderCandidate `json:"placeholders"`
	Columns      []model.ColumnAnalysis       `json:"columns"`
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	var req mappingsRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	plan, err := s.ops.ProposeMappings(r.Context(), req.Placeholders, req.Columns)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type batchRequest struct {
	Plan      pipeline.Plan `json:"plan"`
	Template  string        `json:"template"`
	Dataset   string        `json:"dataset"`
	Rows      []model.Row   `json:"rows"`
	BatchSize int           `json:"batchSize"`
}

// handleBatch answers 500 with the full report when no row succeeded.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.ops.GenerateBatch(r.Context(), pipeline.BatchRequest{
		TemplateLocator: req.Template,
		DatasetLocator:  req.Dataset,
		Rows:            req.Rows,
		Plan:            req.Plan,
		BatchSize:       req.BatchSize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !report.Success {
		status = http.StatusInternalServerError
		s.logger.Error("batch produced no documents", "requested", report.TotalRequested, "errors", report.TotalErrors)
	}
	writeJSON(w, status, report)
}
