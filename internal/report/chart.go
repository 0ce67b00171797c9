package report

import (
	"fmt"
	"math"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// SVG charts, pure Go
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns the defaults used by the HTML report.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        520,
		Height:       240,
		MarginTop:    36,
		MarginRight:  60,
		MarginBottom: 16,
		MarginLeft:   150,
		BgColor:      "#ffffff",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// riskColor maps a unit risk to the report palette.
func riskColor(risk float64) string {
	switch {
	case risk >= 0.8:
		return "#dc2626"
	case risk >= 0.6:
		return "#ea580c"
	case risk >= 0.2:
		return "#ca8a04"
	default:
		return "#16a34a"
	}
}

// ── Gauge ──

// RiskGauge draws a semicircular gauge for a composite score in [0,1].
// Out-of-range and NaN scores are clamped.
func RiskGauge(score float64, label string, width int) string {
	if width <= 0 {
		width = 200
	}
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	height := width/2 + 30

	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20

	// 0 is the left end of the arc, 1 the right.
	angle := math.Pi - score*math.Pi
	needleX := cx + radius*0.85*math.Cos(angle)
	needleY := cy - radius*0.85*math.Sin(angle)
	endX := cx + radius*math.Cos(angle)
	endY := cy - radius*math.Sin(angle)
	color := riskColor(score)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`, width, height, width, height))
	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy))
	if score > 0 {
		// The arc never spans more than half a circle.
		sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
			cx-radius, cy, radius, radius, endX, endY, color))
	}
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/>`,
		cx, cy, needleX, needleY))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" fill="#333"/>`, cx, cy))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%.0f%%</text>`,
		cx, cy+25, color, score*100))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="11" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(label)))
	sb.WriteString("</svg>")
	return sb.String()
}

// ── Horizontal bars ──

// BarItem is a single bar. Values are unit risks in [0,1].
type BarItem struct {
	Label string
	Value float64
	Color string // optional, derived from Value when empty
}

// HorizontalBarChart draws one bar per item on a fixed 0-100% scale.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No model results")
	}
	px, py, pw, ph := cfg.plotArea()

	barH := float64(ph) / float64(len(items)) * 0.7
	if barH > 24 {
		barH = 24
	}
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	if cfg.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
	}

	for i, item := range items {
		v := item.Value
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		color := item.Color
		if color == "" {
			color = riskColor(v)
		}
		by := float64(py) + gap + float64(i)*(barH+gap)
		bw := v * float64(pw)

		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%d" height="%.1f" fill="#f1f5f9" rx="2"/>`,
			px, by, pw, barH))
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			px, by, bw, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%.0f%%</text>`,
			float64(px)+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, v*100))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ModelRiskChart draws each model's risk contribution as a bar.
func ModelRiskChart(rows []ModelRow) string {
	items := make([]BarItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, BarItem{Label: r.Name, Value: r.Risk})
	}
	cfg := DefaultChartConfig()
	cfg.Title = "Model Risk"
	cfg.Height = 60 + 34*len(items)
	return HorizontalBarChart(items, cfg)
}

// ── Helpers ──

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
