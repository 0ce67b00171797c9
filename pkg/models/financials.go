package models

// PeriodType distinguishes annual from quarterly reporting periods.
type PeriodType string

const (
	PeriodAnnual    PeriodType = "annual"
	PeriodQuarterly PeriodType = "quarterly"
)

// Filing identifies the SEC filing a snapshot was extracted from.
type Filing struct {
	CIK             string     `json:"cik"`
	AccessionNumber string     `json:"accession_number"`
	FormType        string     `json:"form_type"`              // "10-K", "10-Q", "10-K/A", ...
	FiledDate       string     `json:"filed_date,omitempty"`   // YYYY-MM-DD
	ReportDate      string     `json:"report_date,omitempty"`  // period end, YYYY-MM-DD
	PeriodType      PeriodType `json:"period_type"`
	FiscalYear      int        `json:"fiscal_year"`
	FiscalQuarter   int        `json:"fiscal_quarter,omitempty"`
}

// IsAnnual reports whether the filing is a 10-K or its amendment.
func (f Filing) IsAnnual() bool {
	return f.FormType == "10-K" || f.FormType == "10-K/A"
}

// IsQuarterly reports whether the filing is a 10-Q or its amendment.
func (f Filing) IsQuarterly() bool {
	return f.FormType == "10-Q" || f.FormType == "10-Q/A"
}

// BalanceSheet represents a single period balance sheet.
type BalanceSheet struct {
	// Assets
	TotalAssets        float64 `json:"total_assets"`
	CurrentAssets      float64 `json:"current_assets"`
	Cash               float64 `json:"cash"`
	AccountsReceivable float64 `json:"accounts_receivable"`
	Inventory          float64 `json:"inventory"`
	PPE                float64 `json:"ppe"` // Property, plant & equipment (net)
	Goodwill           float64 `json:"goodwill"`
	IntangibleAssets   float64 `json:"intangible_assets"`
	// Liabilities & equity
	TotalLiabilities   float64 `json:"total_liabilities"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	AccountsPayable    float64 `json:"accounts_payable"`
	LongTermDebt       float64 `json:"long_term_debt"`
	TotalEquity        float64 `json:"total_equity"`
	RetainedEarnings   float64 `json:"retained_earnings"`
	SharesOutstanding  float64 `json:"shares_outstanding"`
}

// WorkingCapital is current assets less current liabilities.
func (b BalanceSheet) WorkingCapital() float64 {
	return b.CurrentAssets - b.CurrentLiabilities
}

// CurrentRatio returns current assets / current liabilities, or 0 when
// there are no current liabilities.
func (b BalanceSheet) CurrentRatio() float64 {
	if b.CurrentLiabilities <= 0 {
		return 0
	}
	return b.CurrentAssets / b.CurrentLiabilities
}

// QuickRatio excludes inventory from current assets.
func (b BalanceSheet) QuickRatio() float64 {
	if b.CurrentLiabilities <= 0 {
		return 0
	}
	return (b.CurrentAssets - b.Inventory) / b.CurrentLiabilities
}

// DebtRatio returns total liabilities / total assets.
func (b BalanceSheet) DebtRatio() float64 {
	if b.TotalAssets <= 0 {
		return 0
	}
	return b.TotalLiabilities / b.TotalAssets
}

// DebtToEquity returns total liabilities / total equity.
func (b BalanceSheet) DebtToEquity() float64 {
	if b.TotalEquity <= 0 {
		return 0
	}
	return b.TotalLiabilities / b.TotalEquity
}

// IncomeStatement represents a single period income statement.
type IncomeStatement struct {
	Revenue           float64 `json:"revenue"`
	CostOfRevenue     float64 `json:"cost_of_revenue"`
	GrossProfit       float64 `json:"gross_profit"`
	OperatingExpenses float64 `json:"operating_expenses"`
	RDExpense         float64 `json:"rd_expense"`
	SGAExpense        float64 `json:"sga_expense"`
	Depreciation      float64 `json:"depreciation"`
	OperatingIncome   float64 `json:"operating_income"` // used as the EBIT proxy
	InterestExpense   float64 `json:"interest_expense"`
	NetIncome         float64 `json:"net_income"`
	EPS               float64 `json:"eps"`
}

// GrossMargin returns gross profit / revenue (0 without revenue).
func (i IncomeStatement) GrossMargin() float64 {
	if i.Revenue <= 0 {
		return 0
	}
	return i.GrossProfit / i.Revenue
}

// OperatingMargin returns operating income / revenue.
func (i IncomeStatement) OperatingMargin() float64 {
	if i.Revenue <= 0 {
		return 0
	}
	return i.OperatingIncome / i.Revenue
}

// NetMargin returns net income / revenue.
func (i IncomeStatement) NetMargin() float64 {
	if i.Revenue <= 0 {
		return 0
	}
	return i.NetIncome / i.Revenue
}

// CashFlow represents a single period cash flow statement.
type CashFlow struct {
	OperatingCashFlow        float64 `json:"operating_cash_flow"`
	DepreciationAmortization float64 `json:"depreciation_amortization"`
	AccountsReceivableChange float64 `json:"accounts_receivable_change"`
	InventoryChange          float64 `json:"inventory_change"`
	AccountsPayableChange    float64 `json:"accounts_payable_change"`
	InvestingCashFlow        float64 `json:"investing_cash_flow"`
	CapitalExpenditures      float64 `json:"capital_expenditures"`
	FinancingCashFlow        float64 `json:"financing_cash_flow"`
	DividendsPaid            float64 `json:"dividends_paid"`
	StockBuybacks            float64 `json:"stock_buybacks"`
	NetChangeInCash          float64 `json:"net_change_in_cash"`
}

// FreeCashFlow is operating cash flow less capital expenditures.
func (c CashFlow) FreeCashFlow() float64 {
	return c.OperatingCashFlow - c.CapitalExpenditures
}

// Snapshot is one reporting period's statements. Snapshots are passed by
// value and never modified by the analysis packages.
type Snapshot struct {
	Filing       Filing          `json:"filing"`
	BalanceSheet BalanceSheet    `json:"balance_sheet"`
	Income       IncomeStatement `json:"income_statement"`
	CashFlow     CashFlow        `json:"cash_flow"`
	Valid        bool            `json:"valid"`
	Error        string          `json:"error,omitempty"`
}

// Company holds identifying metadata for an issuer.
type Company struct {
	Name          string `json:"name"`
	Ticker        string `json:"ticker"`
	CIK           string `json:"cik"`
	SIC           string `json:"sic,omitempty"`      // Standard Industrial Classification code
	Industry      string `json:"industry,omitempty"` // SIC description
	Exchange      string `json:"exchange,omitempty"`
	FiscalYearEnd string `json:"fiscal_year_end,omitempty"` // MMDD
}

// PeriodSummary is a compact per-period view used by exporters.
type PeriodSummary struct {
	AccessionNumber string  `json:"accession"`
	FormType        string  `json:"form_type"`
	FiledDate       string  `json:"filed_date"`
	FiscalYear      int     `json:"fiscal_year"`
	Revenue         float64 `json:"revenue"`
	NetIncome       float64 `json:"net_income"`
	TotalAssets     float64 `json:"total_assets"`
}
