// Package server exposes the pipeline operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/metrics"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/pipeline"
)

// maxBodyBytes bounds request bodies, inline datasets included.
const maxBodyBytes = 16 << 20

// Operations is the subset of the pipeline the server drives.
type Operations interface {
	AnalyzeDocument(ctx context.Context, locator, sample string) (pipeline.DocumentAnalysis, error)
	AnalyzeColumns(ctx context.Context, locator string) (pipeline.ColumnsAnalysis, error)
	AnalyzeTable(locator string, table model.Table) (pipeline.ColumnsAnalysis, error)
	ProposeMappings(ctx context.Context, placeholders []model.PlaceholderCandidate, cols []model.ColumnAnalysis) (pipeline.Plan, error)
	GenerateBatch(ctx context.Context, req pipeline.BatchRequest) (model.GenerationReport, error)
}

// Server routes HTTP requests to the pipeline.
type Server struct {
	ops    Operations
	logger *slog.Logger
	router *chi.Mux
}

// New creates a Server with its routes registered.
func New(ops Operations, logger *slog.Logger) *Server {
	s := &Server{
		ops:    ops,
		logger: common.OrDefault(logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents/analyze", s.handleAnalyzeDocument)
		r.Post("/columns/analyze", s.handleAnalyzeColumns)
		r.Post("/mappings", s.handleMappings)
		r.Post("/batches", s.handleBatch)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		s.logger.Debug("request handled",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	body := errorBody{Error: err.Error()}
	if kind := common.Kind(err); kind != nil {
		body.Kind = kind.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"status", status,
			"error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. Syntax errors and oversized bodies are invalid input.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.InvalidInput("invalid request body: %v", err)
	}
	return nil
}
