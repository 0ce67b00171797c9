package sec

import "time"

// --- Company tickers (www.sec.gov/files/company_tickers.json) ---
// The file is an object keyed by rank: {"0": {cik_str, ticker, title}, ...}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// --- EDGAR Submissions (data.sec.gov/submissions) ---

type submissionsResponse struct {
	CIK            string         `json:"cik"`
	EntityType     string         `json:"entityType"`
	SIC            string         `json:"sic"`
	SICDescription string         `json:"sicDescription"`
	Name           string         `json:"name"`
	Tickers        []string       `json:"tickers"`
	Exchanges      []string       `json:"exchanges"`
	FiscalYearEnd  string         `json:"fiscalYearEnd"` // MMDD
	Filings        submissionSets `json:"filings"`
}

type submissionSets struct {
	Recent recentFilings `json:"recent"`
}

// recentFilings holds parallel arrays, one element per filing, newest first.
type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// --- EDGAR Company Facts (XBRL) ---

type companyFactsResponse struct {
	CIK        int64                              `json:"cik"`
	EntityName string                             `json:"entityName"`
	Facts      map[string]map[string]conceptFacts `json:"facts"` // taxonomy -> concept -> facts
}

type conceptFacts struct {
	Label string                 `json:"label"`
	Units map[string][]factValue `json:"units"` // "USD", "USD/shares", "shares" -> values
}

type factValue struct {
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"` // "Q1", "Q2", "Q3", "FY"
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

// --- Public results ---

// FeedEntry is one filing announced on the EDGAR company Atom feed.
type FeedEntry struct {
	Title           string    `json:"title"`
	FormType        string    `json:"form_type"`
	AccessionNumber string    `json:"accession_number,omitempty"`
	Link            string    `json:"link"`
	Summary         string    `json:"summary,omitempty"`
	Updated         time.Time `json:"updated"`
}

// FilingDocument is one row of a filing index page.
type FilingDocument struct {
	Seq         string `json:"seq"`
	Description string `json:"description"`
	Document    string `json:"document"`
	Type        string `json:"type"`
	Size        string `json:"size"`
	URL         string `json:"url"`
}
