package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/pipeline"
)

type fakeOps struct {
	err        error
	report     model.GenerationReport
	gotBatch   pipeline.BatchRequest
	gotTable   *model.Table
	gotLocator string
	gotSample  string
}

func (f *fakeOps) AnalyzeDocument(_ context.Context, locator, sample string) (pipeline.DocumentAnalysis, error) {
	f.gotLocator, f.gotSample = locator, sample
	if f.err != nil {
		return pipeline.DocumentAnalysis{}, f.err
	}
	return pipeline.DocumentAnalysis{
		Locator:      locator,
		Format:       "docx",
		Placeholders: []model.PlaceholderCandidate{{Text: "{{nom}}", Variable: "nom", Type: model.TypeString, Confidence: 90}},
	}, nil
}

func (f *fakeOps) AnalyzeColumns(_ context.Context, locator string) (pipeline.ColumnsAnalysis, error) {
	f.gotLocator = locator
	if f.err != nil {
		return pipeline.ColumnsAnalysis{}, f.err
	}
	return pipeline.ColumnsAnalysis{Locator: locator, RowCount: 3}, nil
}

func (f *fakeOps) AnalyzeTable(locator string, table model.Table) (pipeline.ColumnsAnalysis, error) {
	f.gotTable = &table
	return pipeline.ColumnsAnalysis{Locator: locator, RowCount: len(table.Rows)}, f.err
}

func (f *fakeOps) ProposeMappings(_ context.Context, placeholders []model.PlaceholderCandidate, _ []model.ColumnAnalysis) (pipeline.Plan, error) {
	if f.err != nil {
		return pipeline.Plan{}, f.err
	}
	return pipeline.Plan{Intelligence: model.MappingIntelligence{
		Proposals: []model.MappingProposal{{Placeholder: placeholders[0].Text, Column: "A", ColumnHeader: "Nom", Confidence: 95}},
	}}, nil
}

func (f *fakeOps) GenerateBatch(_ context.Context, req pipeline.BatchRequest) (model.GenerationReport, error) {
	f.gotBatch = req
	return f.report, f.err
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	s := New(&fakeOps{}, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "textami_http_requests_total")
}

func TestAnalyzeDocument(t *testing.T) {
	ops := &fakeOps{}
	s := New(ops, nil)

	rec := do(t, s, http.MethodPost, "/v1/documents/analyze", `{"locator":"plantilla.docx","sample":"clients 2024"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plantilla.docx", ops.gotLocator)
	assert.Equal(t, "clients 2024", ops.gotSample)

	var got pipeline.DocumentAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Placeholders, 1)
	assert.Equal(t, "{{nom}}", got.Placeholders[0].Text)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{name: "invalid input", err: common.InvalidInput("document locator is required"), code: http.StatusBadRequest, kind: "invalid input"},
		{name: "malformed container", err: fmt.Errorf("%w: not a zip archive", common.ErrMalformedContainer), code: http.StatusBadRequest, kind: "invalid input"},
		{name: "inference failure", err: fmt.Errorf("%w: timeout", common.ErrInferenceFailure), code: http.StatusBadGateway, kind: "inference failure"},
		{name: "upstream unavailable", err: fmt.Errorf("%w: storage down", common.ErrUpstreamUnavailable), code: http.StatusInternalServerError, kind: "upstream unavailable"},
		{name: "unclassified", err: fmt.Errorf("boom"), code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeOps{err: tt.err}, nil)

			rec := do(t, s, http.MethodPost, "/v1/documents/analyze", `{"locator":"x.docx"}`)
			assert.Equal(t, tt.code, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Error)
			assert.Equal(t, tt.kind, body.Kind)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := New(&fakeOps{}, nil)
	rec := do(t, s, http.MethodPost, "/v1/mappings", `{"placeholders":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeColumns(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		code      int
		wantTable bool
	}{
		{name: "by locator", body: `{"locator":"dades.xlsx#Full1"}`, code: http.StatusOK},
		{name: "inline table", body: `{"table":{"headers":["Nom"],"rows":[["Anna"],["Pere"]]}}`, code: http.StatusOK, wantTable: true},
		{name: "neither", body: `{}`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &fakeOps{}
			s := New(ops, nil)

			rec := do(t, s, http.MethodPost, "/v1/columns/analyze", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			if tt.wantTable {
				require.NotNil(t, ops.gotTable)
				assert.Equal(t, []string{"Nom"}, ops.gotTable.Headers)
				assert.Len(t, ops.gotTable.Rows, 2)
			}
		})
	}
}

func TestMappings(t *testing.T) {
	s := New(&fakeOps{}, nil)

	rec := do(t, s, http.MethodPost, "/v1/mappings",
		`{"placeholders":[{"text":"{{nom}}","variable":"nom","type":"string","confidence":90}],"columns":[{"column":"A","header":"Nom"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var plan pipeline.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Intelligence.Proposals, 1)
	assert.Equal(t, "A", plan.Intelligence.Proposals[0].Column)
}

func TestBatchStatus(t *testing.T) {
	tests := []struct {
		name   string
		report model.GenerationReport
		code   int
	}{
		{
			name:   "partial success",
			report: model.GenerationReport{TotalRequested: 2, TotalGenerated: 1, TotalErrors: 1, Success: true},
			code:   http.StatusOK,
		},
		{
			name:   "no success",
			report: model.GenerationReport{TotalRequested: 2, TotalErrors: 2, Success: false},
			code:   http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &fakeOps{report: tt.report}
			s := New(ops, nil)

			rec := do(t, s, http.MethodPost, "/v1/batches",
				`{"template":"carta.docx","rows":[{"Nom":"Anna"},{"Nom":"Pere"}],"batchSize":10}`)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "carta.docx", ops.gotBatch.TemplateLocator)
			assert.Equal(t, 10, ops.gotBatch.BatchSize)
			assert.Len(t, ops.gotBatch.Rows, 2)

			var got model.GenerationReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.report.TotalErrors, got.TotalErrors)
			assert.Equal(t, tt.report.Success, got.Success)
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New(&fakeOps{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
