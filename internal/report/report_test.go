package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
	"github.com/seenimoa/fraudscope/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleAssessment() *models.RiskAssessment {
	return &models.RiskAssessment{
		Company: models.Company{
			Name:     "Acme Widgets Inc",
			Ticker:   "ACME",
			CIK:      "0000123456",
			Industry: "Industrial Machinery",
		},
		PeriodsAnalyzed: 3,
		Status:          models.StatusComplete,
		Manipulation: &models.ManipulationResult{
			MScore:            -1.42,
			RiskScore:         0.72,
			LikelyManipulator: true,
			Zone:              "Likely Manipulator",
		},
		Bankruptcy: &models.BankruptcyResult{
			Variant:   models.VariantPublic,
			ZScore:    1.55,
			Zone:      "Distress",
			RiskScore: 0.8,
		},
		Strength: &models.StrengthResult{
			FScore:         3,
			Interpretation: "Weak",
			RiskScore:      0.67,
		},
		RiskFactors: &models.RiskFactorResult{
			OverallRisk: 0.45,
			RiskLevel:   "MODERATE",
		},
		Benford: &models.DigitResult{
			Test:             models.DigitFirst,
			Sample:           120,
			MAD:              0.0131,
			DeviationPercent: 18.5,
			Conformity:       "Marginally Acceptable Conformity",
			RiskScore:        0.655,
		},
		CompositeScore: 0.6123,
		RiskLevel:      models.RiskHigh,
		Summary:        "Composite risk HIGH across 3 annual filings.",
		Recommendation: "HIGH RISK: Significant fraud indicators present.",
		RedFlags: []models.RedFlag{
			{Type: "earnings_manipulation", Title: "Possible earnings manipulation", Description: "M-Score above threshold", Severity: models.RiskHigh, Source: "beneish", Confidence: 0.8},
			{Type: "bankruptcy_risk", Title: "Distress zone", Description: "Z-Score in distress zone", Severity: models.RiskCritical, Source: "altman", Confidence: 0.9},
		},
		Trends: models.Trends{
			Revenue:   models.TrendDeclining,
			Income:    models.TrendImproving,
			CashFlow:  models.TrendStable,
			Debt:      models.TrendStable,
			Margin:    models.TrendStable,
			Populated: []string{models.TrendMetricRevenue, models.TrendMetricIncome},
		},
		Periods: []models.PeriodSummary{
			{AccessionNumber: "0000123456-24-000010", FormType: "10-K", FiledDate: "2024-02-20", FiscalYear: 2023, Revenue: 1.2e9, NetIncome: 4.5e7, TotalAssets: 3.1e9},
			{AccessionNumber: "0000123456-23-000009", FormType: "10-K", FiledDate: "2023-02-21", FiscalYear: 2022, Revenue: 1.4e9, NetIncome: 2.0e7, TotalAssets: 3.0e9},
		},
		Version: "1.0.0",
	}
}

func insufficientAssessment() *models.RiskAssessment {
	return &models.RiskAssessment{
		Company:         models.Company{Name: "Tiny Co", CIK: "0000000042"},
		PeriodsAnalyzed: 1,
		Status:          models.StatusInsufficientData,
		RiskLevel:       models.RiskLow,
		Summary:         "Insufficient data: at least 2 valid periods are required.",
		RedFlags:        []models.RedFlag{},
		Version:         "1.0.0",
	}
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func csvRecords(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"txt", FormatText, false},
		{" text ", FormatText, false},
		{"Html", FormatHTML, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q): got %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
	assert.Contains(t, FormatHTML.ContentType(), "text/html")
	assert.Contains(t, FormatText.ContentType(), "text/plain")
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(sampleAssessment(), Format("xml"))
	assert.Error(t, err)

	_, err = Render(nil, FormatJSON)
	assert.Error(t, err)
}

func TestRenderDispatch(t *testing.T) {
	a := sampleAssessment()
	for _, f := range []Format{FormatJSON, FormatCSV, FormatText, FormatHTML} {
		out, err := Render(a, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}
}

// ── JSON ──

func TestJSON(t *testing.T) {
	a := sampleAssessment()

	compact, err := JSON(a, false)
	require.NoError(t, err)
	assert.NotContains(t, string(compact), "\n")

	pretty, err := JSON(a, true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"company\"")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pretty, &decoded))
	assert.Equal(t, "HIGH", decoded["risk_level"])
	assert.Equal(t, "complete", decoded["status"])
}

// ── CSV ──

func TestCSV(t *testing.T) {
	out, err := CSV(sampleAssessment())
	require.NoError(t, err)

	records := csvRecords(t, out)
	require.Equal(t, []string{"Metric", "Value"}, records[0])

	values := map[string]string{}
	var order []string
	for _, r := range records[1:] {
		require.Len(t, r, 2)
		values[r[0]] = r[1]
		order = append(order, r[0])
	}
	assert.Equal(t, []string{
		"Company", "Ticker", "CIK", "Status", "Filings Analyzed", "Risk Score", "Risk Level",
		"Beneish M-Score", "Altman Z-Score", "Piotroski F-Score", "Fraud Triangle Risk",
		"Benford Deviation%", "Red Flags Count",
	}, order)
	assert.Equal(t, "Acme Widgets Inc", values["Company"])
	assert.Equal(t, "complete", values["Status"])
	assert.Equal(t, "0.6123", values["Risk Score"])
	assert.Equal(t, "HIGH", values["Risk Level"])
	assert.Equal(t, "-1.4200", values["Beneish M-Score"])
	assert.Equal(t, "3", values["Piotroski F-Score"])
	assert.Equal(t, "18.50", values["Benford Deviation%"])
	assert.Equal(t, "2", values["Red Flags Count"])
}

func TestCSVMissingModels(t *testing.T) {
	out, err := CSV(insufficientAssessment())
	require.NoError(t, err)

	for _, r := range csvRecords(t, out)[1:] {
		switch r[0] {
		case "Beneish M-Score", "Altman Z-Score", "Piotroski F-Score", "Fraud Triangle Risk", "Benford Deviation%":
			assert.Equal(t, "N/A", r[1], r[0])
		case "Red Flags Count":
			assert.Equal(t, "0", r[1])
		}
	}
}

func TestCSVInsufficientDataNotReportedAsLowRisk(t *testing.T) {
	co := models.Company{Name: "Tiny Corp", Ticker: "TINY", CIK: "0000000043"}
	a, err := composite.New(composite.DefaultWeights()).Analyze(co, nil)
	require.True(t, errors.Is(err, composite.ErrInsufficientData))

	out, err := CSV(a)
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range csvRecords(t, out)[1:] {
		values[r[0]] = r[1]
	}
	assert.Equal(t, string(models.StatusInsufficientData), values["Status"])
	assert.Equal(t, "N/A", values["Risk Score"])
	assert.Equal(t, "N/A", values["Risk Level"])
	assert.NotContains(t, string(out), "LOW")
}

func TestCSVNilAssessment(t *testing.T) {
	_, err := CSV(nil)
	assert.Error(t, err)
}

func TestCSVQuotesCommas(t *testing.T) {
	a := sampleAssessment()
	a.Company.Name = "Widgets, Gadgets & Co"
	out, err := CSV(a)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Widgets, Gadgets & Co"`)
	assert.Equal(t, "Widgets, Gadgets & Co", csvRecords(t, out)[1][1])
}

func TestPeriodsCSV(t *testing.T) {
	periods := []models.Snapshot{{
		Filing:       models.Filing{AccessionNumber: "0000123456-24-000010", FormType: "10-K", FiledDate: "2024-02-20"},
		Income:       models.IncomeStatement{Revenue: 1200000000, NetIncome: -5000000},
		BalanceSheet: models.BalanceSheet{TotalAssets: 3100000000, TotalLiabilities: 1900000000},
	}}
	out, err := PeriodsCSV(periods)
	require.NoError(t, err)

	records := csvRecords(t, out)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Accession", "Form", "Filed Date", "Revenue", "Net Income", "Total Assets", "Total Liabilities"}, records[0])
	assert.Equal(t, []string{"0000123456-24-000010", "10-K", "2024-02-20", "1200000000", "-5000000", "3100000000", "1900000000"}, records[1])
}

// ── Text ──

func TestTextReport(t *testing.T) {
	out := Text(sampleAssessment())

	for _, want := range []string{
		"Financial Fraud Risk Report: Acme Widgets Inc (ACME)",
		"■ OVERALL RISK",
		"HIGH",
		"61.2%",
		"Beneish M-Score",
		"Altman Z-Score",
		"■ TRENDS",
		"DECLINING",
		"■ RED FLAGS (2)",
		"[CRITICAL] Distress zone",
		"■ RECOMMENDATION",
		"$1.2B",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestTextReportNoFlags(t *testing.T) {
	a := sampleAssessment()
	a.RedFlags = nil
	assert.Contains(t, Text(a), "No significant red flags detected.")
}

func TestTextReportInsufficientData(t *testing.T) {
	out := Text(insufficientAssessment())
	assert.Contains(t, out, "INSUFFICIENT DATA")
	assert.NotContains(t, out, "■ MODEL RESULTS")
}

// ── HTML ──

func TestHTMLReport(t *testing.T) {
	html, err := HTML(sampleAssessment())
	require.NoError(t, err)
	doc := parseHTML(t, html)

	assert.Equal(t, "Financial Fraud Risk Report: Acme Widgets Inc (ACME)", doc.Find("title").Text())
	assert.True(t, doc.Find("#overall").HasClass("risk-high"))
	assert.Equal(t, "HIGH", strings.TrimSpace(doc.Find("#overall .risk-level").Text()))

	// Header row plus one per model.
	assert.Equal(t, 6, doc.Find("#models tr").Length())
	assert.Equal(t, 5, doc.Find(".score-card").Length())
	assert.Equal(t, 2, doc.Find("#red-flags .flag").Length())
	assert.True(t, doc.Find("#red-flags .flag").Eq(1).HasClass("risk-critical"))
	assert.Equal(t, 3, doc.Find("#filings tr").Length())
	assert.Equal(t, 3, doc.Find("#trends tr").Length())
	assert.Contains(t, doc.Find("#recommendation").Text(), "HIGH RISK")
	assert.Contains(t, doc.Find(".footer").Text(), "1.0.0")

	// Gauge and model chart are embedded as SVG, not escaped text.
	assert.Equal(t, 2, doc.Find("svg").Length())
}

func TestHTMLNoFlags(t *testing.T) {
	a := sampleAssessment()
	a.RedFlags = []models.RedFlag{}
	html, err := HTML(a)
	require.NoError(t, err)

	doc := parseHTML(t, html)
	assert.Equal(t, 0, doc.Find("#red-flags .flag").Length())
	assert.Equal(t, "No significant red flags detected.", strings.TrimSpace(doc.Find("#red-flags .no-flags").Text()))
}

func TestHTMLInsufficientData(t *testing.T) {
	html, err := HTML(insufficientAssessment())
	require.NoError(t, err)

	doc := parseHTML(t, html)
	assert.Equal(t, 1, doc.Find("#insufficient").Length())
	assert.Equal(t, 0, doc.Find("#models").Length())
	assert.Equal(t, 0, doc.Find("#recommendation").Length())
	assert.Contains(t, doc.Find("title").Text(), "Tiny Co")
}

func TestHTMLEscapesCompanyName(t *testing.T) {
	a := sampleAssessment()
	a.Company.Name = `<script>alert("x")</script>`
	html, err := HTML(a)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Equal(t, 0, parseHTML(t, html).Find("script").Length())
}

func TestLevelClass(t *testing.T) {
	tests := []struct {
		level models.RiskLevel
		want  string
	}{
		{models.RiskLow, "risk-low"},
		{models.RiskModerate, "risk-moderate"},
		{models.RiskElevated, "risk-moderate"},
		{models.RiskHigh, "risk-high"},
		{models.RiskCritical, "risk-critical"},
		{"", "risk-low"},
	}
	for _, tt := range tests {
		if got := LevelClass(tt.level); got != tt.want {
			t.Errorf("LevelClass(%q): got %q, want %q", tt.level, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestRiskGauge(t *testing.T) {
	svg := RiskGauge(0.61, "HIGH", 220)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, ">61%<")
	assert.Contains(t, svg, ">HIGH<")
	assert.Contains(t, svg, "#ea580c")
}

func TestRiskGaugeClamps(t *testing.T) {
	assert.Contains(t, RiskGauge(1.7, "", 0), ">100%<")
	assert.Contains(t, RiskGauge(-0.3, "", 0), ">0%<")
	assert.Contains(t, RiskGauge(math.NaN(), "", 0), ">0%<")
}

func TestHorizontalBarChart(t *testing.T) {
	svg := HorizontalBarChart([]BarItem{
		{Label: "Beneish M-Score", Value: 0.9},
		{Label: "Altman & Z", Value: 0.1},
	}, ChartConfig{})
	assert.Contains(t, svg, "Beneish M-Score")
	assert.Contains(t, svg, "Altman &amp; Z")
	assert.Contains(t, svg, ">90%<")
	assert.Contains(t, svg, "#dc2626")
	assert.Contains(t, svg, "#16a34a")
}

func TestHorizontalBarChartEmpty(t *testing.T) {
	assert.Contains(t, HorizontalBarChart(nil, ChartConfig{}), "No model results")
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot;", escapeXML(`a & b <c> "d"`))
}

// ════════════════════════════════════════════════════════════════════
// PDF
// ════════════════════════════════════════════════════════════════════

func withoutConverters(t *testing.T) {
	t.Helper()
	orig := lookPath
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	t.Cleanup(func() { lookPath = orig })
}

func TestDetectPDFEngineNone(t *testing.T) {
	withoutConverters(t)
	assert.Equal(t, EngineNone, DetectPDFEngine())
}

func TestWritePDFFallsBackToHTML(t *testing.T) {
	withoutConverters(t)
	out := filepath.Join(t.TempDir(), "reports", "acme.pdf")

	written, err := WritePDF(context.Background(), sampleAssessment(), DefaultPDFConfig(out))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(out, ".pdf")+".html", written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestGeneratePDFErrors(t *testing.T) {
	_, err := GeneratePDF(context.Background(), "<html></html>", PDFConfig{})
	assert.Error(t, err)

	_, err = GeneratePDF(context.Background(), "<html></html>", PDFConfig{
		Engine:     PDFEngine("prince"),
		OutputPath: filepath.Join(t.TempDir(), "x.pdf"),
	})
	assert.Error(t, err)
}
