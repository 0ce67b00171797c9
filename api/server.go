// Package api provides the HTTP REST API server for fraudscope.
//
// It exposes endpoints for company lookup, filing listings, fraud risk
// analysis, cache management, Prometheus metrics and a WebSocket event
// stream of finished analyses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
	"github.com/seenimoa/fraudscope/internal/config"
	"github.com/seenimoa/fraudscope/internal/metrics"
	"github.com/seenimoa/fraudscope/internal/providers/sec"
	"github.com/seenimoa/fraudscope/internal/report"
	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
	"github.com/seenimoa/fraudscope/web"
)

// Version is reported by the health endpoint. Set by the CLI at startup.
var Version = "dev"

// DataSource is the EDGAR surface the server needs. *sec.Client
// satisfies it.
type DataSource interface {
	Resolve(ctx context.Context, tickerOrCIK string) (models.Company, error)
	Search(ctx context.Context, query string) ([]models.Company, error)
	Filings(ctx context.Context, cik string) ([]models.Filing, error)
	FilingFeed(ctx context.Context, cik, form string) ([]sec.FeedEntry, error)
	FilingDocuments(ctx context.Context, cik, accession string) ([]sec.FilingDocument, error)
	History(ctx context.Context, cik string, years int) ([]models.Snapshot, error)
	ClearCache() (int, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	src    DataSource
	wsHub  *WSHub
	logger *slog.Logger

	mu      sync.RWMutex
	weights composite.Weights
}

// NewServer creates a configured API server with all routes and middleware.
// A nil logger uses slog.Default().
func NewServer(cfg *config.Config, src DataSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		cfg:     cfg,
		src:     src,
		wsHub:   NewWSHub(),
		logger:  logger,
		weights: cfg.Analysis.Weights,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and the WebSocket hub, and shuts
// both down gracefully when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.API.RequestTimeout > 0 {
		return time.Duration(s.cfg.API.RequestTimeout) * time.Second
	}
	return 60 * time.Second
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connections are long-lived and skip the request timeout.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout()))

			r.Get("/health", s.handleHealth)

			// Analysis
			r.Get("/analyze", s.handleAnalyze)

			// Companies and filings
			r.Get("/company", s.handleCompany)
			r.Get("/search", s.handleSearch)
			r.Get("/filings", s.handleFilings)
			r.Get("/filings/feed", s.handleFilingFeed)
			r.Get("/filings/{accession}/documents", s.handleFilingDocuments)

			// Cache
			r.Post("/cache/clear", s.handleClearCache)

			// Configuration
			r.Get("/config", s.handleGetConfig)
			r.Put("/config/weights", s.handleUpdateWeights)
		})
	})

	// Dashboard
	r.Handle("/*", http.FileServerFS(web.DistFS()))

	return r
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalysisResult is the data of a successful /analyze response.
type AnalysisResult struct {
	ID         string                 `json:"id"`
	Assessment *models.RiskAssessment `json:"assessment"`
}

// FilingsResult is the data of a /filings response.
type FilingsResult struct {
	Company models.Company  `json:"company"`
	Filings []models.Filing `json:"filings"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       Version,
			"model_version": composite.ModelVersion,
			"time":          utils.NowUTC().Format(time.RFC3339),
			"ws_clients":    s.wsHub.ClientCount(),
		},
	})
}

// handleAnalyze fetches a company's annual history and scores it.
//
//	GET /api/v1/analyze?ticker=AAPL&years=5&format=html&market_cap=2.9e12&second_digit=true
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	q := r.URL.Query()

	id := firstNonEmpty(q.Get("ticker"), q.Get("cik"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "ticker or cik is required")
		return
	}
	years, err := intParam(q.Get("years"), s.cfg.SEC.Years)
	if err != nil || years < 2 || years > 20 {
		writeError(w, http.StatusBadRequest, "years must be an integer between 2 and 20")
		return
	}
	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := []composite.Option{composite.WithLogger(s.logger)}
	if v := q.Get("market_cap"); v != "" {
		mc, err := strconv.ParseFloat(v, 64)
		if err != nil || mc < 0 {
			writeError(w, http.StatusBadRequest, "market_cap must be a non-negative number")
			return
		}
		opts = append(opts, composite.WithMarketCap(mc))
	}
	if secondDigit(q.Get("second_digit"), s.cfg.Analysis.SecondDigit) {
		opts = append(opts, composite.WithSecondDigit())
	}

	co, err := s.src.Resolve(r.Context(), id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	periods, err := s.src.History(r.Context(), co.CIK, years)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	a, err := composite.New(s.currentWeights(), opts...).Analyze(co, periods)
	if a != nil {
		metrics.ObserveAnalysis(string(a.Status), string(a.RiskLevel), started)
	}
	if errors.Is(err, composite.ErrInsufficientData) {
		writeJSON(w, http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Data:    a,
			Error:   err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := AnalysisResult{ID: uuid.NewString(), Assessment: a}
	s.wsHub.Broadcast(WSMessage{
		Type: EventAnalysisComplete,
		Data: map[string]interface{}{
			"id":         result.ID,
			"ticker":     co.Ticker,
			"cik":        co.CIK,
			"risk_level": a.RiskLevel,
			"score":      a.CompositeScore,
		},
	})
	s.logger.Info("analysis complete",
		"id", result.ID, "cik", co.CIK, "level", a.RiskLevel, "score", a.CompositeScore)

	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
		return
	}
	body, err := report.Render(a, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Analysis-ID", result.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	id := firstNonEmpty(r.URL.Query().Get("ticker"), r.URL.Query().Get("cik"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "ticker or cik is required")
		return
	}
	co, err := s.src.Resolve(r.Context(), id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: co})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	results, err := s.src.Search(r.Context(), query)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

// resolveCompany resolves the cik or ticker query parameter. On failure it
// writes the error response and reports false.
func (s *Server) resolveCompany(w http.ResponseWriter, r *http.Request) (models.Company, bool) {
	q := r.URL.Query()
	id := firstNonEmpty(q.Get("cik"), q.Get("ticker"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "cik or ticker is required")
		return models.Company{}, false
	}
	co, err := s.src.Resolve(r.Context(), id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return models.Company{}, false
	}
	return co, true
}

// countParam parses the optional count limit; 0 means no limit.
func countParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := intParam(r.URL.Query().Get("count"), 0)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "count must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// handleFilings lists recent filings, optionally filtered by form.
//
//	GET /api/v1/filings?cik=320193&form=10-K&count=5
func (s *Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	count, ok := countParam(w, r)
	if !ok {
		return
	}
	co, ok := s.resolveCompany(w, r)
	if !ok {
		return
	}
	filings, err := s.src.Filings(r.Context(), co.CIK)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if form := strings.ToUpper(r.URL.Query().Get("form")); form != "" {
		filtered := []models.Filing{}
		for _, f := range filings {
			if f.FormType == form {
				filtered = append(filtered, f)
			}
		}
		filings = filtered
	}
	if count > 0 && len(filings) > count {
		filings = filings[:count]
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: FilingsResult{Company: co, Filings: filings}})
}

// handleFilingFeed lists entries from the company's EDGAR Atom feed.
//
//	GET /api/v1/filings/feed?ticker=AAPL&form=8-K&count=10
func (s *Server) handleFilingFeed(w http.ResponseWriter, r *http.Request) {
	count, ok := countParam(w, r)
	if !ok {
		return
	}
	co, ok := s.resolveCompany(w, r)
	if !ok {
		return
	}
	entries, err := s.src.FilingFeed(r.Context(), co.CIK, strings.ToUpper(r.URL.Query().Get("form")))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

// handleFilingDocuments lists the documents in one filing.
//
//	GET /api/v1/filings/{accession}/documents?ticker=AAPL
func (s *Server) handleFilingDocuments(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")
	if accession == "" {
		writeError(w, http.StatusBadRequest, "an accession number is required")
		return
	}
	co, ok := s.resolveCompany(w, r)
	if !ok {
		return
	}
	docs, err := s.src.FilingDocuments(r.Context(), co.CIK, accession)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: docs})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := s.src.ClearCache()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("cache cleared", "entries", n)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]int{"cleared": n},
	})
}

// ============================================================
// Helpers
// ============================================================

// writeUpstreamError maps EDGAR and context errors to HTTP statuses.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, sec.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sec.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		status = 499
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("upstream request failed", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) currentWeights() composite.Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// secondDigit reads a boolean flag, falling back to def when absent or
// unparsable.
func secondDigit(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
