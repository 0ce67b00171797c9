package report

// ReportTemplate is the HTML template for the risk report. It is
// self-contained: styles and charts are inline.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --low: #16a34a;
    --moderate: #ca8a04;
    --high: #ea580c;
    --critical: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }

  .risk-box {
    display: flex;
    align-items: center;
    gap: 24px;
    padding: 16px;
    border-radius: 8px;
    border-left: 6px solid;
    background: var(--section-bg);
  }
  .risk-low      { border-color: var(--low);      color: var(--low); }
  .risk-moderate { border-color: var(--moderate); color: var(--moderate); }
  .risk-high     { border-color: var(--high);     color: var(--high); }
  .risk-critical { border-color: var(--critical); color: var(--critical); }
  .risk-level { font-size: 1.6rem; font-weight: 700; }
  .risk-summary { color: var(--text); }

  .score-cards {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(170px, 1fr));
    gap: 10px;
  }
  .score-card {
    background: var(--section-bg);
    border: 1px solid var(--border);
    border-radius: 8px;
    padding: 10px;
    text-align: center;
  }
  .score-card .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .score-card .value { font-size: 1.2rem; font-weight: 600; }
  .score-card .detail { font-size: 0.8rem; color: var(--muted); }

  table { width: 100%; border-collapse: collapse; margin: 8px 0; font-size: 0.9rem; }
  th, td { padding: 6px 10px; border-bottom: 1px solid var(--border); text-align: left; }
  th { background: var(--section-bg); font-weight: 600; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }

  .flag { padding: 8px 12px; margin: 6px 0; border-left: 4px solid; background: var(--section-bg); border-radius: 4px; }
  .flag .title { font-weight: 600; }
  .flag .desc { color: var(--text); font-size: 0.9rem; }
  .no-flags { color: var(--low); }

  .recommendation { padding: 12px; border-radius: 8px; background: var(--section-bg); font-weight: 500; }
  .charts { display: flex; flex-wrap: wrap; gap: 16px; align-items: center; margin: 12px 0; }

  .footer {
    margin-top: 32px;
    padding-top: 12px;
    border-top: 1px solid var(--border);
    font-size: 0.75rem;
    color: var(--muted);
    text-align: center;
  }
  @media print {
    body { padding: 0; }
    h2 { page-break-after: avoid; }
    .flag { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<div class="header">
  <div class="header-left">
    <h1>{{.Title}}</h1>
    <p>{{if .Ticker}}<span class="ticker-badge">{{.Ticker}}</span>{{end}}{{.CompanyName}}</p>
    <p class="muted">CIK {{.CIK}}{{if .Industry}} · {{.Industry}}{{end}}</p>
  </div>
  <div class="header-right">
    <p class="muted">Generated {{.GeneratedAt}}</p>
    <p class="muted">Filings analyzed: {{.Periods}}</p>
  </div>
</div>

{{if not .Complete}}
<div class="risk-box risk-low" id="insufficient">
  <div>
    <div class="risk-level">INSUFFICIENT DATA</div>
    <p class="risk-summary">{{.Summary}}</p>
  </div>
</div>
{{else}}

<div class="risk-box {{.LevelClass}}" id="overall">
  <div class="gauge">{{.GaugeSVG}}</div>
  <div>
    <div class="risk-level">{{.Level}}</div>
    <p class="risk-summary">Composite score <strong>{{.Score}}</strong></p>
    <p class="risk-summary">{{.Summary}}</p>
  </div>
</div>

<h2>Model Scores</h2>
<div class="score-cards">
  {{range .Models}}
  <div class="score-card">
    <div class="label">{{.Name}}</div>
    <div class="value">{{.Score}}</div>
    <div class="detail">{{.Detail}}</div>
  </div>
  {{end}}
</div>

{{if .ModelSVG}}<div class="charts">{{.ModelSVG}}</div>{{end}}

<table id="models">
  <tr><th>Model</th><th>Score</th><th>Assessment</th><th>Risk</th></tr>
  {{range .Models}}
  <tr><td>{{.Name}}</td><td class="num">{{.Score}}</td><td>{{.Detail}}</td><td class="num">{{pct .Risk}}</td></tr>
  {{end}}
</table>

{{if .Trends}}
<h2>Trends</h2>
<table id="trends">
  <tr><th>Metric</th><th>Direction</th></tr>
  {{range .Trends}}<tr><td>{{.Metric}}</td><td>{{.Direction}}</td></tr>{{end}}
</table>
{{end}}

<h2>Red Flags</h2>
<div id="red-flags">
{{if .RedFlags}}
  {{range .RedFlags}}
  <div class="flag {{levelClass .Severity}}">
    <div class="title">[{{.Severity}}] {{.Title}}</div>
    <div class="desc">{{.Description}}</div>
    <div class="muted">Source: {{.Source}} · confidence {{pct .Confidence}}</div>
  </div>
  {{end}}
{{else}}
  <p class="no-flags">No significant red flags detected.</p>
{{end}}
</div>

{{if .History}}
<h2>Filings Analyzed</h2>
<table id="filings">
  <tr><th>FY</th><th>Form</th><th>Filed</th><th>Revenue</th><th>Net Income</th><th>Total Assets</th></tr>
  {{range .History}}
  <tr><td>{{.FiscalYear}}</td><td>{{.Form}}</td><td>{{.Filed}}</td><td class="num">{{.Revenue}}</td><td class="num">{{.NetIncome}}</td><td class="num">{{.TotalAssets}}</td></tr>
  {{end}}
</table>
{{end}}

<h2>Recommendation</h2>
<div class="recommendation {{.LevelClass}}" id="recommendation">{{.Recommendation}}</div>
{{end}}

<div class="footer">
  fraudscope model version {{.Version}} · Screening output from public SEC filings, not an audit opinion.
</div>

</body>
</html>
`
