package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
	"github.com/seenimoa/fraudscope/internal/config"
	"github.com/seenimoa/fraudscope/internal/providers/sec"
	"github.com/seenimoa/fraudscope/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

var acme = models.Company{Name: "Acme Corp", Ticker: "ACME", CIK: "0000000042", Industry: "Widgets"}

func period(year int, revenue, netIncome float64) models.Snapshot {
	return models.Snapshot{
		Filing: models.Filing{
			CIK:             acme.CIK,
			AccessionNumber: fmt.Sprintf("0000000042-%d-000001", year%100),
			FormType:        "10-K",
			FiledDate:       fmt.Sprintf("%d-02-15", year+1),
			PeriodType:      models.PeriodAnnual,
			FiscalYear:      year,
		},
		BalanceSheet: models.BalanceSheet{
			TotalAssets:        1000,
			CurrentAssets:      600,
			AccountsReceivable: 100,
			PPE:                200,
			TotalLiabilities:   500,
			CurrentLiabilities: 400,
			LongTermDebt:       100,
			TotalEquity:        500,
			RetainedEarnings:   200,
			SharesOutstanding:  100,
		},
		Income: models.IncomeStatement{
			Revenue:         revenue,
			GrossProfit:     revenue * 0.4,
			SGAExpense:      revenue * 0.1,
			Depreciation:    20,
			OperatingIncome: 150,
			NetIncome:       netIncome,
		},
		CashFlow: models.CashFlow{OperatingCashFlow: netIncome},
		Valid:    true,
	}
}

// fakeSource is an in-memory DataSource.
type fakeSource struct {
	mu       sync.Mutex
	periods  []models.Snapshot
	filings  []models.Filing
	err      error // returned by every lookup when set
	years    int
	cleared  int
	resolved []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		periods: []models.Snapshot{period(2024, 900, 90), period(2023, 900, 90), period(2022, 850, 80)},
		filings: []models.Filing{
			{CIK: acme.CIK, AccessionNumber: "0000000042-25-000001", FormType: "10-K", FiledDate: "2025-02-15", FiscalYear: 2024},
			{CIK: acme.CIK, AccessionNumber: "0000000042-24-000020", FormType: "10-Q", FiledDate: "2024-11-01", FiscalYear: 2024},
			{CIK: acme.CIK, AccessionNumber: "0000000042-24-000011", FormType: "8-K", FiledDate: "2024-08-01", FiscalYear: 2024},
		},
	}
}

func (f *fakeSource) Resolve(_ context.Context, id string) (models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, id)
	if f.err != nil {
		return models.Company{}, f.err
	}
	if strings.EqualFold(id, acme.Ticker) || id == acme.CIK || id == "42" {
		return acme, nil
	}
	return models.Company{}, fmt.Errorf("%w: ticker %s", sec.ErrNotFound, id)
}

func (f *fakeSource) Search(_ context.Context, q string) ([]models.Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(strings.ToUpper(acme.Name), strings.ToUpper(q)) {
		return []models.Company{acme}, nil
	}
	return []models.Company{}, nil
}

func (f *fakeSource) Filings(_ context.Context, _ string) ([]models.Filing, error) {
	return f.filings, f.err
}

func (f *fakeSource) FilingFeed(_ context.Context, cik, form string) ([]sec.FeedEntry, error) {
	if cik != acme.CIK {
		return nil, fmt.Errorf("%w: cik %s", sec.ErrNotFound, cik)
	}
	return []sec.FeedEntry{
		{Title: form + " - Acme Corp", FormType: form, AccessionNumber: "0000000042-25-000001"},
		{Title: form + " - Acme Corp", FormType: form, AccessionNumber: "0000000042-24-000001"},
	}, f.err
}

func (f *fakeSource) FilingDocuments(_ context.Context, cik, accession string) ([]sec.FilingDocument, error) {
	if cik != acme.CIK {
		return nil, fmt.Errorf("%w: cik %s", sec.ErrNotFound, cik)
	}
	return []sec.FilingDocument{{Seq: "1", Document: "acme-10k.htm", Type: "10-K", URL: "https://www.sec.gov/" + accession}}, f.err
}

func (f *fakeSource) History(_ context.Context, _ string, years int) ([]models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.years = years
	if f.err != nil {
		return nil, f.err
	}
	if years < len(f.periods) {
		return f.periods[:years], nil
	}
	return f.periods, nil
}

func (f *fakeSource) ClearCache() (int, error) {
	f.cleared++
	return 7, nil
}

func testConfig() *config.Config {
	return &config.Config{
		SEC:      config.SECConfig{UserAgent: "Jane Analyst jane@example.com", RateLimitPerSec: 10, Years: 3},
		Cache:    config.CacheConfig{TTLSec: 3600},
		Analysis: config.AnalysisConfig{Weights: composite.DefaultWeights()},
		API:      config.APIConfig{Port: 8080, CORSOrigins: []string{"http://localhost:3000"}, RequestTimeout: 5},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func testServer(t *testing.T, src DataSource) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(testConfig(), src, logger)
}

func do(t *testing.T, srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// decodeData re-decodes the envelope's data into v.
func decodeData(t *testing.T, resp APIResponse, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

// ════════════════════════════════════════════════════════════════════
// Health & metrics
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t, newFakeSource())
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status got %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		if data["status"] != "ok" {
			t.Errorf("%s: status field got %v, want ok", path, data["status"])
		}
		if data["model_version"] != composite.ModelVersion {
			t.Errorf("%s: model_version got %v, want %s", path, data["model_version"], composite.ModelVersion)
		}
	}
}

func TestDashboardServed(t *testing.T) {
	srv := testServer(t, newFakeSource())
	rec := do(t, srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/analyze") {
		t.Error("dashboard should call the analyze endpoint")
	}

	rec = do(t, srv, http.MethodGet, "/style.css", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("style.css: status got %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, newFakeSource())
	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fraudscope_analysis_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, newFakeSource())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

// ════════════════════════════════════════════════════════════════════
// Analyze
// ════════════════════════════════════════════════════════════════════

func TestAnalyzeJSON(t *testing.T) {
	src := newFakeSource()
	srv := testServer(t, src)

	rec := do(t, srv, http.MethodGet, "/api/v1/analyze?ticker=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	var result AnalysisResult
	decodeData(t, resp, &result)

	_, err := uuid.Parse(result.ID)
	assert.NoError(t, err, "analysis id should be a UUID")
	require.NotNil(t, result.Assessment)
	assert.Equal(t, models.StatusComplete, result.Assessment.Status)
	assert.Equal(t, acme.CIK, result.Assessment.Company.CIK)
	assert.Equal(t, 3, result.Assessment.PeriodsAnalyzed)
	assert.Equal(t, 3, src.years, "default years come from config")
}

func TestAnalyzeByCIKWithYears(t *testing.T) {
	src := newFakeSource()
	srv := testServer(t, src)

	rec := do(t, srv, http.MethodGet, "/api/v1/analyze?cik=42&years=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, src.years)
	assert.Equal(t, []string{"42"}, src.resolved)
}

func TestAnalyzeValidation(t *testing.T) {
	srv := testServer(t, newFakeSource())
	tests := []struct {
		name   string
		target string
	}{
		{"missing identifier", "/api/v1/analyze"},
		{"years too small", "/api/v1/analyze?ticker=ACME&years=1"},
		{"years not a number", "/api/v1/analyze?ticker=ACME&years=five"},
		{"unknown format", "/api/v1/analyze?ticker=ACME&format=xlsx"},
		{"negative market cap", "/api/v1/analyze?ticker=ACME&market_cap=-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.target, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
			if resp := decodeResponse(t, rec); resp.Success || resp.Error == "" {
				t.Errorf("expected error envelope, got %+v", resp)
			}
		})
	}
}

func TestAnalyzeUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("fetch: %w", sec.ErrNotFound), http.StatusNotFound},
		{"rate limited", &sec.HTTPError{StatusCode: http.StatusTooManyRequests, URL: "https://data.sec.gov"}, http.StatusTooManyRequests},
		{"timeout", fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"server error", &sec.HTTPError{StatusCode: http.StatusInternalServerError, URL: "https://data.sec.gov"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.err = tt.err
			rec := do(t, testServer(t, src), http.MethodGet, "/api/v1/analyze?ticker=ACME", nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAnalyzeUnknownTicker(t *testing.T) {
	rec := do(t, testServer(t, newFakeSource()), http.MethodGet, "/api/v1/analyze?ticker=ZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	src := newFakeSource()
	src.periods = src.periods[:1]
	rec := do(t, testServer(t, src), http.MethodGet, "/api/v1/analyze?ticker=ACME", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "insufficient")

	var a models.RiskAssessment
	decodeData(t, resp, &a)
	assert.Equal(t, models.StatusInsufficientData, a.Status)
	assert.Equal(t, models.RiskLow, a.RiskLevel)
}

func TestAnalyzeCSVFormat(t *testing.T) {
	rec := do(t, testServer(t, newFakeSource()), http.MethodGet, "/api/v1/analyze?ticker=ACME&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.NotEmpty(t, rec.Header().Get("X-Analysis-ID"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Metric,Value\n"))
	assert.Contains(t, rec.Body.String(), "Company,Acme Corp")
}

func TestAnalyzeHTMLFormat(t *testing.T) {
	rec := do(t, testServer(t, newFakeSource()), http.MethodGet, "/api/v1/analyze?ticker=ACME&format=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, doc.Find("title").Text(), "Acme Corp (ACME)")
	assert.Equal(t, 1, doc.Find("#overall").Length())
}

func TestAnalyzeUsesUpdatedWeights(t *testing.T) {
	srv := testServer(t, newFakeSource())
	body := `{"beneish":0,"altman":0,"piotroski":0,"fraud_triangle":0,"benford":0,"red_flags":1}`
	rec := do(t, srv, http.MethodPut, "/api/v1/config/weights", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/v1/analyze?ticker=ACME", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result AnalysisResult
	decodeData(t, decodeResponse(t, rec), &result)

	// Only red flags carry weight, so the score is their density.
	a := result.Assessment
	want := math.Min(1, float64(len(a.RedFlags))/5)
	assert.InDelta(t, want, a.CompositeScore, 1e-9)
}

func TestAnalyzeBroadcastsEvent(t *testing.T) {
	srv := testServer(t, newFakeSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	client := &WSClient{hub: srv.Hub(), send: make(chan WSMessage, 8)}
	srv.Hub().Register(client)

	rec := do(t, srv, http.MethodGet, "/api/v1/analyze?ticker=ACME", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result AnalysisResult
	decodeData(t, decodeResponse(t, rec), &result)

	select {
	case msg := <-client.send:
		assert.Equal(t, EventAnalysisComplete, msg.Type)
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, result.ID, data["id"])
		assert.Equal(t, "ACME", data["ticker"])
	case <-time.After(time.Second):
		t.Fatal("no analysis_complete event received")
	}
}

// ════════════════════════════════════════════════════════════════════
// Companies & filings
// ════════════════════════════════════════════════════════════════════

func TestCompany(t *testing.T) {
	srv := testServer(t, newFakeSource())

	rec := do(t, srv, http.MethodGet, "/api/v1/company?ticker=ACME", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var co models.Company
	decodeData(t, decodeResponse(t, rec), &co)
	assert.Equal(t, acme, co)

	rec = do(t, srv, http.MethodGet, "/api/v1/company", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/company?ticker=NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	srv := testServer(t, newFakeSource())

	rec := do(t, srv, http.MethodGet, "/api/v1/search?q=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.Company
	decodeData(t, decodeResponse(t, rec), &results)
	require.Len(t, results, 1)
	assert.Equal(t, "ACME", results[0].Ticker)

	rec = do(t, srv, http.MethodGet, "/api/v1/search?q=zzz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = do(t, srv, http.MethodGet, "/api/v1/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilings(t *testing.T) {
	srv := testServer(t, newFakeSource())

	rec := do(t, srv, http.MethodGet, "/api/v1/filings?cik=42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all FilingsResult
	decodeData(t, decodeResponse(t, rec), &all)
	assert.Equal(t, acme.CIK, all.Company.CIK)
	assert.Len(t, all.Filings, 3)

	rec = do(t, srv, http.MethodGet, "/api/v1/filings?ticker=ACME&form=10-k", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var annual FilingsResult
	decodeData(t, decodeResponse(t, rec), &annual)
	require.Len(t, annual.Filings, 1)
	assert.Equal(t, "10-K", annual.Filings[0].FormType)

	rec = do(t, srv, http.MethodGet, "/api/v1/filings", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilingsCount(t *testing.T) {
	srv := testServer(t, newFakeSource())

	rec := do(t, srv, http.MethodGet, "/api/v1/filings?ticker=ACME&count=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var limited FilingsResult
	decodeData(t, decodeResponse(t, rec), &limited)
	assert.Len(t, limited.Filings, 2)

	for _, bad := range []string{"-1", "two"} {
		rec = do(t, srv, http.MethodGet, "/api/v1/filings?ticker=ACME&count="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "count=%s", bad)
	}
}

func TestFilingFeed(t *testing.T) {
	src := newFakeSource()
	srv := testServer(t, src)

	rec := do(t, srv, http.MethodGet, "/api/v1/filings/feed?cik=42&form=10-k", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []sec.FeedEntry
	decodeData(t, decodeResponse(t, rec), &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "10-K", entries[0].FormType)

	rec = do(t, srv, http.MethodGet, "/api/v1/filings/feed?ticker=ACME&form=10-K&count=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, decodeResponse(t, rec), &entries)
	assert.Len(t, entries, 1)
	assert.Contains(t, src.resolved, "ACME")

	rec = do(t, srv, http.MethodGet, "/api/v1/filings/feed?ticker=NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/filings/feed", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilingDocuments(t *testing.T) {
	srv := testServer(t, newFakeSource())

	for _, query := range []string{"cik=42", "ticker=ACME", "ticker=acme"} {
		rec := do(t, srv, http.MethodGet, "/api/v1/filings/0000000042-25-000001/documents?"+query, nil)
		require.Equal(t, http.StatusOK, rec.Code, query)
		var docs []sec.FilingDocument
		decodeData(t, decodeResponse(t, rec), &docs)
		require.Len(t, docs, 1, query)
		assert.Equal(t, "acme-10k.htm", docs[0].Document)
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/filings/0000000042-25-000001/documents?ticker=NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/filings/0000000042-25-000001/documents", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCache(t *testing.T) {
	src := newFakeSource()
	srv := testServer(t, src)

	rec := do(t, srv, http.MethodPost, "/api/v1/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]int
	decodeData(t, decodeResponse(t, rec), &data)
	assert.Equal(t, 7, data["cleared"])
	assert.Equal(t, 1, src.cleared)

	rec = do(t, srv, http.MethodGet, "/api/v1/cache/clear", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ════════════════════════════════════════════════════════════════════
// Config
// ════════════════════════════════════════════════════════════════════

func TestGetConfig(t *testing.T) {
	rec := do(t, testServer(t, newFakeSource()), http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg ConfigResponse
	decodeData(t, decodeResponse(t, rec), &cfg)
	assert.Equal(t, composite.DefaultWeights(), cfg.Weights)
	assert.Equal(t, 3, cfg.Years)
	assert.Equal(t, composite.ModelVersion, cfg.ModelVersion)
	require.NotEmpty(t, cfg.Settings)
	assert.NotContains(t, rec.Body.String(), "jane@example.com", "contact must be masked")
}

func TestUpdateWeightsValidation(t *testing.T) {
	srv := testServer(t, newFakeSource())
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"negative", `{"beneish":-0.1,"altman":0.5}`},
		{"all zero", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, "/api/v1/config/weights", bytes.NewBufferString(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Equal(t, composite.DefaultWeights(), srv.currentWeights(), "rejected updates must not apply")
}

// ════════════════════════════════════════════════════════════════════
// WebSocket Hub tests
// ════════════════════════════════════════════════════════════════════

func runHub(t *testing.T) *WSHub {
	t.Helper()
	hub := NewWSHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWSHub_NewWSHub(t *testing.T) {
	hub := NewWSHub()
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount: got %d, want 0", hub.ClientCount())
	}
}

func TestWSHub_RegisterAndUnregister(t *testing.T) {
	hub := runHub(t)
	client := &WSClient{hub: hub, send: make(chan WSMessage, 4)}

	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	_, open := <-client.send
	assert.False(t, open, "unregister closes the client queue")
}

func TestWSHub_Broadcast(t *testing.T) {
	hub := runHub(t)
	client1 := &WSClient{hub: hub, send: make(chan WSMessage, 4)}
	client2 := &WSClient{hub: hub, send: make(chan WSMessage, 4)}
	hub.Register(client1)
	hub.Register(client2)

	hub.Broadcast(WSMessage{Type: "test", Data: "hello"})

	for i, c := range []*WSClient{client1, client2} {
		select {
		case got := <-c.send:
			if got.Type != "test" {
				t.Errorf("client%d got type=%q, want 'test'", i+1, got.Type)
			}
		case <-time.After(time.Second):
			t.Errorf("client%d did not receive message", i+1)
		}
	}
}

func TestWSHub_DropsSlowClient(t *testing.T) {
	hub := runHub(t)
	slow := &WSClient{hub: hub, send: make(chan WSMessage)} // never drained
	hub.Register(slow)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(WSMessage{Type: "test"})
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestWSHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewWSHub() // not running, so the queue fills up
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Broadcast(WSMessage{Type: "test"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
}

func TestWSHub_StopClosesClients(t *testing.T) {
	hub := NewWSHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(client)
	cancel()
	<-stopped

	_, open := <-client.send
	assert.False(t, open)

	// Calls after shutdown return immediately.
	late := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(late)
	hub.Unregister(late)
	_, open = <-late.send
	assert.False(t, open)
}

func TestWebSocketPingPong(t *testing.T) {
	srv := testServer(t, newFakeSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventPong, msg.Type)
	waitFor(t, func() bool { return srv.Hub().ClientCount() == 1 })
}
