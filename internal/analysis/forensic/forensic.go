// Package forensic implements the quantitative fraud and distress models:
// Beneish M-Score, Altman Z-Score, Piotroski F-Score, the fraud triangle
// heuristic and Benford's law digit tests.
//
// Every model is a pure function over snapshots. Undefined ratios are
// resolved with safe division, so no model ever returns an error.
package forensic

import (
	"math"

	"github.com/seenimoa/fraudscope/pkg/models"
)

// divEpsilon is the denominator magnitude below which a ratio is undefined.
const divEpsilon = 1e-10

// safeDiv returns num/den, or def when |den| < 1e-10.
func safeDiv(num, den, def float64) float64 {
	if math.Abs(den) < divEpsilon {
		return def
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ════════════════════════════════════════════════════════════════════
// Strategy interface
// ════════════════════════════════════════════════════════════════════

// Model names, also used as weight keys by the composite analyzer.
const (
	NameBeneish       = "beneish"
	NameAltman        = "altman"
	NamePiotroski     = "piotroski"
	NameFraudTriangle = "fraud_triangle"
	NameBenford       = "benford"
)

// Input is what a model may read. Periods are valid snapshots, newest
// first; the caller guarantees at least two.
type Input struct {
	Periods   []models.Snapshot
	MarketCap float64
}

// Model is one scoreable model. Evaluate stores its result on the
// assessment and returns the normalized risk contribution in [0,1].
type Model interface {
	Name() string
	Evaluate(in Input, into *models.RiskAssessment) float64
}

// DefaultModels returns the five models in the order the composite
// analyzer runs them.
func DefaultModels() []Model {
	return []Model{
		ManipulationModel{},
		BankruptcyModel{},
		StrengthModel{},
		RiskFactorModel{},
		DigitModel{},
	}
}

// ManipulationModel runs Manipulation on the two newest periods.
type ManipulationModel struct{}

func (ManipulationModel) Name() string { return NameBeneish }

func (ManipulationModel) Evaluate(in Input, into *models.RiskAssessment) float64 {
	r := Manipulation(in.Periods[0], in.Periods[1])
	into.Manipulation = &r
	return r.RiskScore
}

// BankruptcyModel runs the public-company Z-Score on the newest period.
type BankruptcyModel struct{}

func (BankruptcyModel) Name() string { return NameAltman }

func (BankruptcyModel) Evaluate(in Input, into *models.RiskAssessment) float64 {
	r := Bankruptcy(in.Periods[0], in.MarketCap)
	into.Bankruptcy = &r
	return r.RiskScore
}

// StrengthModel runs Strength on the two newest periods.
type StrengthModel struct{}

func (StrengthModel) Name() string { return NamePiotroski }

func (StrengthModel) Evaluate(in Input, into *models.RiskAssessment) float64 {
	r := Strength(in.Periods[0], in.Periods[1])
	into.Strength = &r
	return r.RiskScore
}

// RiskFactorModel runs the fraud triangle over every period.
type RiskFactorModel struct{}

func (RiskFactorModel) Name() string { return NameFraudTriangle }

func (RiskFactorModel) Evaluate(in Input, into *models.RiskAssessment) float64 {
	r := RiskFactors(in.Periods)
	into.RiskFactors = &r
	return r.OverallRisk
}

// DigitModel runs the first-digit Benford test over DigitSample.
type DigitModel struct{}

func (DigitModel) Name() string { return NameBenford }

func (DigitModel) Evaluate(in Input, into *models.RiskAssessment) float64 {
	r := FirstDigit(DigitSample(in.Periods))
	into.Benford = &r
	return r.RiskScore
}

// DigitSample extracts the line items fed to the digit tests: revenue,
// net income, total assets, total liabilities and operating cash flow for
// each period, in period order.
func DigitSample(periods []models.Snapshot) []float64 {
	values := make([]float64, 0, len(periods)*5)
	for _, p := range periods {
		values = append(values,
			p.Income.Revenue,
			p.Income.NetIncome,
			p.BalanceSheet.TotalAssets,
			p.BalanceSheet.TotalLiabilities,
			p.CashFlow.OperatingCashFlow,
		)
	}
	return values
}
