package models

// RiskLevel is the composite risk category. Levels are totally ordered from
// RiskLow to RiskCritical.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskElevated RiskLevel = "ELEVATED"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskModerate: 1,
	RiskElevated: 2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Rank returns the level's position in the ordering, or -1 for unknown values.
func (l RiskLevel) Rank() int {
	if r, ok := riskRank[l]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether l is the same as or more severe than other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// TrendDirection describes how a metric moved across the analysed window.
type TrendDirection string

const (
	TrendImproving TrendDirection = "IMPROVING"
	TrendStable    TrendDirection = "STABLE"
	TrendDeclining TrendDirection = "DECLINING"
)

// AssessmentStatus tells callers whether the models ran at all.
type AssessmentStatus string

const (
	StatusComplete         AssessmentStatus = "complete"
	StatusInsufficientData AssessmentStatus = "insufficient_data"
)

// ════════════════════════════════════════════════════════════════════
// Model results
// ════════════════════════════════════════════════════════════════════

// ManipulationResult is the Beneish M-Score breakdown.
type ManipulationResult struct {
	DSRI float64 `json:"dsri"` // days sales in receivables index
	GMI  float64 `json:"gmi"`  // gross margin index
	AQI  float64 `json:"aqi"`  // asset quality index
	SGI  float64 `json:"sgi"`  // sales growth index
	DEPI float64 `json:"depi"` // depreciation index
	SGAI float64 `json:"sgai"` // SG&A index
	LVGI float64 `json:"lvgi"` // leverage index
	TATA float64 `json:"tata"` // total accruals to total assets

	MScore            float64  `json:"m_score"`
	Probability       float64  `json:"probability"`
	RiskScore         float64  `json:"risk_score"`
	LikelyManipulator bool     `json:"likely_manipulator"`
	Zone              string   `json:"zone"`
	Flags             []string `json:"flags,omitempty"`
}

// BankruptcyVariant selects the Altman formulation.
type BankruptcyVariant string

const (
	VariantPublic           BankruptcyVariant = "public"            // original Z-Score
	VariantNonManufacturing BankruptcyVariant = "non_manufacturing" // Z''-Score
)

// BankruptcyResult is the Altman Z-Score breakdown. X5 is zero for the
// non-manufacturing variant.
type BankruptcyResult struct {
	Variant BankruptcyVariant `json:"variant"`
	X1      float64           `json:"x1"` // working capital / total assets
	X2      float64           `json:"x2"` // retained earnings / total assets
	X3      float64           `json:"x3"` // EBIT / total assets
	X4      float64           `json:"x4"` // equity value / total liabilities
	X5      float64           `json:"x5"` // revenue / total assets

	ZScore                float64 `json:"z_score"`
	Zone                  string  `json:"zone"`
	BankruptcyProbability float64 `json:"bankruptcy_probability"`
	RiskScore             float64 `json:"risk_score"`
}

// StrengthResult is the Piotroski F-Score scorecard.
type StrengthResult struct {
	// Profitability
	PositiveNetIncome  bool `json:"positive_net_income"`
	PositiveOCF        bool `json:"positive_ocf"`
	IncreasingROA      bool `json:"increasing_roa"`
	OCFExceedsNI       bool `json:"ocf_exceeds_ni"`
	// Leverage & liquidity
	DecreasingLeverage bool `json:"decreasing_leverage"`
	IncreasingCurrent  bool `json:"increasing_current_ratio"`
	NoDilution         bool `json:"no_dilution"`
	// Efficiency
	IncreasingMargin   bool `json:"increasing_gross_margin"`
	IncreasingTurnover bool `json:"increasing_asset_turnover"`

	FScore         int      `json:"f_score"` // 0-9
	Interpretation string   `json:"interpretation"`
	RiskScore      float64  `json:"risk_score"`
	Checks         []string `json:"checks"`
}

// RiskFactorResult is the fraud triangle scan.
type RiskFactorResult struct {
	PressureScore             float64  `json:"pressure_score"`
	OpportunityScore          float64  `json:"opportunity_score"`
	RationalizationScore      float64  `json:"rationalization_score"`
	OverallRisk               float64  `json:"overall_risk"`
	RiskLevel                 string   `json:"risk_level"`
	PressureIndicators        []string `json:"pressure_indicators"`
	OpportunityIndicators     []string `json:"opportunity_indicators"`
	RationalizationIndicators []string `json:"rationalization_indicators"`
}

// DigitTest names which Benford test produced a DigitResult.
type DigitTest string

const (
	DigitFirst  DigitTest = "first"
	DigitSecond DigitTest = "second"
)

// DigitResult is a Benford's law conformity test. Expected and Actual are
// indexed by digit position (1-9 for the first digit, 0-9 for the second).
type DigitResult struct {
	Test             DigitTest `json:"test"`
	Sample           int       `json:"sample"`
	Expected         []float64 `json:"expected"`
	Actual           []float64 `json:"actual"`
	ChiSquare        float64   `json:"chi_square"`
	MAD              float64   `json:"mad"`
	DeviationPercent float64   `json:"deviation_percent"`
	Conformity       string    `json:"conformity"`
	Suspicious       bool      `json:"suspicious"`
	SuspiciousDigits []int     `json:"suspicious_digits,omitempty"`
	Anomalies        []string  `json:"anomalies,omitempty"`
	RiskScore        float64   `json:"risk_score"`
}

// ════════════════════════════════════════════════════════════════════
// Composite
// ════════════════════════════════════════════════════════════════════

// RedFlag is a discrete, rule-triggered finding.
type RedFlag struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    RiskLevel `json:"severity"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
}

// Trend metric names, as listed in Trends.Populated.
const (
	TrendMetricRevenue  = "revenue"
	TrendMetricIncome   = "income"
	TrendMetricCashFlow = "cash_flow"
	TrendMetricDebt     = "debt"
	TrendMetricMargin   = "margin"
)

// Trends holds one direction per metric. Only the metrics named in
// Populated were actually computed; the rest hold TrendStable.
type Trends struct {
	Revenue   TrendDirection `json:"revenue"`
	Income    TrendDirection `json:"income"`
	CashFlow  TrendDirection `json:"cash_flow"`
	Debt      TrendDirection `json:"debt"`
	Margin    TrendDirection `json:"margin"`
	Populated []string       `json:"populated"`
}

// RiskAssessment is the composite verdict for one company. A nil model
// result means the model did not run.
type RiskAssessment struct {
	Company         Company          `json:"company"`
	PeriodsAnalyzed int              `json:"periods_analyzed"`
	Status          AssessmentStatus `json:"status"`

	Manipulation *ManipulationResult `json:"manipulation,omitempty"`
	Bankruptcy   *BankruptcyResult   `json:"bankruptcy,omitempty"`
	Strength     *StrengthResult     `json:"strength,omitempty"`
	RiskFactors  *RiskFactorResult   `json:"risk_factors,omitempty"`
	Benford      *DigitResult        `json:"benford,omitempty"`
	SecondDigit  *DigitResult        `json:"second_digit,omitempty"`

	CompositeScore float64         `json:"composite_score"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Summary        string          `json:"summary"`
	Recommendation string          `json:"recommendation"`
	RedFlags       []RedFlag       `json:"red_flags"`
	Trends         Trends          `json:"trends"`
	Periods        []PeriodSummary `json:"periods,omitempty"`
	Version        string          `json:"version"`
}

// Complete reports whether the models ran.
func (a *RiskAssessment) Complete() bool {
	return a != nil && a.Status == StatusComplete
}
