// Package report renders risk assessments for people and machines: JSON,
// CSV, plain-text terminal reports, styled HTML with inline SVG charts, and
// an optional PDF export of the HTML.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
)

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ParseFormat accepts a format name case-insensitively. "txt" is an alias
// for text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported report format %q (want json, csv, text or html)", name)
}

// ContentType returns the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render exports a in the given format. JSON output is indented.
func Render(a *models.RiskAssessment, f Format) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("render report: nil assessment")
	}
	switch f {
	case FormatJSON:
		return JSON(a, true)
	case FormatCSV:
		return CSV(a)
	case FormatText:
		return []byte(Text(a)), nil
	case FormatHTML:
		html, err := HTML(a)
		return []byte(html), err
	}
	return nil, fmt.Errorf("unsupported report format %q", f)
}

// JSON marshals the assessment.
func JSON(a *models.RiskAssessment, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(a, "", "  ")
	}
	return json.Marshal(a)
}

// ════════════════════════════════════════════════════════════════════
// CSV
// ════════════════════════════════════════════════════════════════════

// CSV writes the headline metrics as Metric,Value rows. Models that did
// not run are reported as "N/A", and so are the score and level of an
// incomplete assessment.
func CSV(a *models.RiskAssessment) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("csv report: nil assessment")
	}
	score, level := "N/A", "N/A"
	if a.Complete() {
		score = fmt.Sprintf("%.4f", a.CompositeScore)
		level = string(a.RiskLevel)
	}
	rows := [][]string{
		{"Metric", "Value"},
		{"Company", a.Company.Name},
		{"Ticker", a.Company.Ticker},
		{"CIK", a.Company.CIK},
		{"Status", string(a.Status)},
		{"Filings Analyzed", fmt.Sprintf("%d", a.PeriodsAnalyzed)},
		{"Risk Score", score},
		{"Risk Level", level},
	}
	if a.Manipulation != nil {
		rows = append(rows, []string{"Beneish M-Score", fmt.Sprintf("%.4f", a.Manipulation.MScore)})
	} else {
		rows = append(rows, []string{"Beneish M-Score", "N/A"})
	}
	if a.Bankruptcy != nil {
		rows = append(rows, []string{"Altman Z-Score", fmt.Sprintf("%.4f", a.Bankruptcy.ZScore)})
	} else {
		rows = append(rows, []string{"Altman Z-Score", "N/A"})
	}
	if a.Strength != nil {
		rows = append(rows, []string{"Piotroski F-Score", fmt.Sprintf("%d", a.Strength.FScore)})
	} else {
		rows = append(rows, []string{"Piotroski F-Score", "N/A"})
	}
	if a.RiskFactors != nil {
		rows = append(rows, []string{"Fraud Triangle Risk", fmt.Sprintf("%.4f", a.RiskFactors.OverallRisk)})
	} else {
		rows = append(rows, []string{"Fraud Triangle Risk", "N/A"})
	}
	if a.Benford != nil {
		rows = append(rows, []string{"Benford Deviation%", fmt.Sprintf("%.2f", a.Benford.DeviationPercent)})
	} else {
		rows = append(rows, []string{"Benford Deviation%", "N/A"})
	}
	rows = append(rows, []string{"Red Flags Count", fmt.Sprintf("%d", len(a.RedFlags))})
	return writeCSV(rows)
}

// PeriodsCSV writes one row per snapshot with its key figures.
func PeriodsCSV(periods []models.Snapshot) ([]byte, error) {
	rows := [][]string{{"Accession", "Form", "Filed Date", "Revenue", "Net Income", "Total Assets", "Total Liabilities"}}
	for _, p := range periods {
		rows = append(rows, []string{
			p.Filing.AccessionNumber,
			p.Filing.FormType,
			p.Filing.FiledDate,
			fmt.Sprintf("%.0f", p.Income.Revenue),
			fmt.Sprintf("%.0f", p.Income.NetIncome),
			fmt.Sprintf("%.0f", p.BalanceSheet.TotalAssets),
			fmt.Sprintf("%.0f", p.BalanceSheet.TotalLiabilities),
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ════════════════════════════════════════════════════════════════════
// Report data
// ════════════════════════════════════════════════════════════════════

// ModelRow is one line of the model summary table.
type ModelRow struct {
	Name   string
	Score  string
	Detail string
	Risk   float64
}

// ReportData is the view model shared by the text and HTML renderers.
type ReportData struct {
	Title       string
	CompanyName string
	Ticker      string
	CIK         string
	Industry    string
	GeneratedAt string
	Version     string

	Complete       bool
	Periods        int
	Score          string
	ScoreValue     float64
	Level          string
	LevelClass     string
	Summary        string
	Recommendation string

	Models   []ModelRow
	RedFlags []models.RedFlag
	Trends   []TrendRow
	History  []PeriodRow

	GaugeSVG template.HTML
	ModelSVG template.HTML
}

// TrendRow is one computed trend.
type TrendRow struct {
	Metric    string
	Direction string
}

// PeriodRow is one analysed filing with formatted figures.
type PeriodRow struct {
	FiscalYear  int
	Form        string
	Filed       string
	Revenue     string
	NetIncome   string
	TotalAssets string
}

// LevelClass maps a risk level to its CSS class. Moderate and elevated
// share a style.
func LevelClass(level models.RiskLevel) string {
	switch level {
	case models.RiskCritical:
		return "risk-critical"
	case models.RiskHigh:
		return "risk-high"
	case models.RiskModerate, models.RiskElevated:
		return "risk-moderate"
	default:
		return "risk-low"
	}
}

func buildReportData(a *models.RiskAssessment) ReportData {
	d := ReportData{
		Title:          fmt.Sprintf("Financial Fraud Risk Report: %s", displayName(a.Company)),
		CompanyName:    a.Company.Name,
		Ticker:         a.Company.Ticker,
		CIK:            a.Company.CIK,
		Industry:       a.Company.Industry,
		GeneratedAt:    utils.NowUTC().Format("02 Jan 2006, 15:04 MST"),
		Version:        a.Version,
		Complete:       a.Complete(),
		Periods:        a.PeriodsAnalyzed,
		Score:          fmt.Sprintf("%.1f%%", a.CompositeScore*100),
		ScoreValue:     a.CompositeScore * 100,
		Level:          string(a.RiskLevel),
		LevelClass:     LevelClass(a.RiskLevel),
		Summary:        a.Summary,
		Recommendation: a.Recommendation,
		RedFlags:       a.RedFlags,
	}

	if m := a.Manipulation; m != nil {
		d.Models = append(d.Models, ModelRow{
			Name:   "Beneish M-Score",
			Score:  fmt.Sprintf("%.2f", m.MScore),
			Detail: m.Zone,
			Risk:   m.RiskScore,
		})
	}
	if b := a.Bankruptcy; b != nil {
		d.Models = append(d.Models, ModelRow{
			Name:   "Altman Z-Score",
			Score:  fmt.Sprintf("%.2f", b.ZScore),
			Detail: b.Zone,
			Risk:   b.RiskScore,
		})
	}
	if s := a.Strength; s != nil {
		d.Models = append(d.Models, ModelRow{
			Name:   "Piotroski F-Score",
			Score:  fmt.Sprintf("%d/9", s.FScore),
			Detail: s.Interpretation,
			Risk:   s.RiskScore,
		})
	}
	if r := a.RiskFactors; r != nil {
		d.Models = append(d.Models, ModelRow{
			Name:   "Fraud Triangle",
			Score:  utils.FormatRatio(r.OverallRisk),
			Detail: r.RiskLevel,
			Risk:   r.OverallRisk,
		})
	}
	if b := a.Benford; b != nil {
		d.Models = append(d.Models, ModelRow{
			Name:   "Benford First Digit",
			Score:  fmt.Sprintf("MAD %.4f", b.MAD),
			Detail: fmt.Sprintf("%s (%.1f%% deviation)", b.Conformity, b.DeviationPercent),
			Risk:   b.RiskScore,
		})
	}
	if b := a.SecondDigit; b != nil {
		d.Models = append(d.Models, ModelRow{
			Name:   "Benford Second Digit",
			Score:  fmt.Sprintf("chi2 %.2f", b.ChiSquare),
			Detail: b.Conformity,
			Risk:   b.RiskScore,
		})
	}

	for _, metric := range a.Trends.Populated {
		d.Trends = append(d.Trends, TrendRow{Metric: trendLabel(metric), Direction: string(trendOf(a.Trends, metric))})
	}
	for _, p := range a.Periods {
		d.History = append(d.History, PeriodRow{
			FiscalYear:  p.FiscalYear,
			Form:        p.FormType,
			Filed:       p.FiledDate,
			Revenue:     utils.FormatUSDCompact(p.Revenue),
			NetIncome:   utils.FormatUSDCompact(p.NetIncome),
			TotalAssets: utils.FormatUSDCompact(p.TotalAssets),
		})
	}

	// Chart output is generated from numbers and escaped labels only.
	d.GaugeSVG = template.HTML(RiskGauge(a.CompositeScore, string(a.RiskLevel), 220))
	if len(d.Models) > 0 {
		d.ModelSVG = template.HTML(ModelRiskChart(d.Models))
	}
	return d
}

func displayName(co models.Company) string {
	switch {
	case co.Name != "" && co.Ticker != "":
		return fmt.Sprintf("%s (%s)", co.Name, co.Ticker)
	case co.Name != "":
		return co.Name
	case co.Ticker != "":
		return co.Ticker
	}
	return "CIK " + co.CIK
}

func trendLabel(metric string) string {
	switch metric {
	case models.TrendMetricRevenue:
		return "Revenue"
	case models.TrendMetricIncome:
		return "Net Income"
	case models.TrendMetricCashFlow:
		return "Operating Cash Flow"
	case models.TrendMetricDebt:
		return "Debt"
	case models.TrendMetricMargin:
		return "Gross Margin"
	}
	return metric
}

func trendOf(t models.Trends, metric string) models.TrendDirection {
	switch metric {
	case models.TrendMetricRevenue:
		return t.Revenue
	case models.TrendMetricIncome:
		return t.Income
	case models.TrendMetricCashFlow:
		return t.CashFlow
	case models.TrendMetricDebt:
		return t.Debt
	case models.TrendMetricMargin:
		return t.Margin
	}
	return models.TrendStable
}

// ════════════════════════════════════════════════════════════════════
// HTML
// ════════════════════════════════════════════════════════════════════

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":        func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"levelClass": LevelClass,
}).Parse(ReportTemplate))

// HTML renders a self-contained HTML report.
func HTML(a *models.RiskAssessment) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, buildReportData(a)); err != nil {
		return "", fmt.Errorf("execute report template: %w", err)
	}
	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Text
// ════════════════════════════════════════════════════════════════════

// Text renders a terminal report.
func Text(a *models.RiskAssessment) string {
	return renderTextReport(buildReportData(a))
}

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 64)
	thinLine := strings.Repeat("─", 64)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s | Model version: %s\n", d.GeneratedAt, d.Version))
	sb.WriteString(line + "\n\n")

	sb.WriteString(fmt.Sprintf("  CIK: %s", d.CIK))
	if d.Industry != "" {
		sb.WriteString(fmt.Sprintf(" | Industry: %s", d.Industry))
	}
	sb.WriteString(fmt.Sprintf("\n  Filings analyzed: %d\n", d.Periods))
	sb.WriteString(thinLine + "\n")

	if !d.Complete {
		sb.WriteString("\n  INSUFFICIENT DATA\n")
		sb.WriteString(fmt.Sprintf("  %s\n", d.Summary))
		sb.WriteString("\n" + line + "\n")
		return sb.String()
	}

	sb.WriteString("\n  ■ OVERALL RISK\n")
	sb.WriteString(fmt.Sprintf("  %-28s %s\n", "Risk Level:", d.Level))
	sb.WriteString(fmt.Sprintf("  %-28s %s\n", "Composite Score:", d.Score))
	if d.Summary != "" {
		sb.WriteString(fmt.Sprintf("  %s\n", d.Summary))
	}

	sb.WriteString("\n  ■ MODEL RESULTS\n")
	for _, m := range d.Models {
		sb.WriteString(fmt.Sprintf("  %-22s %-12s %-34s risk %5.1f%%\n", m.Name, m.Score, m.Detail, m.Risk*100))
	}

	if len(d.Trends) > 0 {
		sb.WriteString("\n  ■ TRENDS\n")
		for _, t := range d.Trends {
			sb.WriteString(fmt.Sprintf("  %-28s %s\n", t.Metric+":", t.Direction))
		}
	}

	sb.WriteString(fmt.Sprintf("\n  ■ RED FLAGS (%d)\n", len(d.RedFlags)))
	if len(d.RedFlags) == 0 {
		sb.WriteString("  No significant red flags detected.\n")
	}
	for _, f := range d.RedFlags {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", f.Severity, f.Title))
		if f.Description != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", f.Description))
		}
	}

	if len(d.History) > 0 {
		sb.WriteString("\n  ■ FILINGS\n")
		sb.WriteString(fmt.Sprintf("  %-6s %-8s %-12s %12s %12s %12s\n", "FY", "Form", "Filed", "Revenue", "Net Income", "Assets"))
		sb.WriteString("  " + strings.Repeat("─", 62) + "\n")
		for _, p := range d.History {
			sb.WriteString(fmt.Sprintf("  %-6d %-8s %-12s %12s %12s %12s\n",
				p.FiscalYear, p.Form, p.Filed, p.Revenue, p.NetIncome, p.TotalAssets))
		}
	}

	sb.WriteString("\n" + thinLine + "\n")
	sb.WriteString("  ■ RECOMMENDATION\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Recommendation))
	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  This report is generated from public SEC filings by statistical\n")
	sb.WriteString("  screening models. It is not an audit opinion.\n")
	sb.WriteString(line + "\n")
	return sb.String()
}
