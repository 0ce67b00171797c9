package forensic

import (
	"math"

	"github.com/seenimoa/fraudscope/pkg/models"
)

// Beneish (1999) coefficients.
const (
	beneishIntercept = -4.84
	coefDSRI         = 0.920
	coefGMI          = 0.528
	coefAQI          = 0.404
	coefSGI          = 0.892
	coefDEPI         = 0.115
	coefSGAI         = -0.172
	coefTATA         = 4.679
	coefLVGI         = -0.327

	// ManipulationThreshold is the M-Score above which a company is a
	// likely manipulator.
	ManipulationThreshold = -2.22
)

// Manipulation computes the eight-variable Beneish M-Score for current
// against prior. Undefined index ratios default to 1.0 (neutral); TATA
// and the AQI asset ratio default to 0.0.
func Manipulation(current, prior models.Snapshot) models.ManipulationResult {
	cb, pb := current.BalanceSheet, prior.BalanceSheet
	ci, pi := current.Income, prior.Income

	r := models.ManipulationResult{
		DSRI: ratioIndex(
			safeDiv(cb.AccountsReceivable, ci.Revenue, 1),
			safeDiv(pb.AccountsReceivable, pi.Revenue, 1)),
		GMI:  ratioIndex(pi.GrossMargin(), ci.GrossMargin()),
		AQI:  ratioIndex(softAssetRatio(cb), softAssetRatio(pb)),
		SGI:  ratioIndex(ci.Revenue, pi.Revenue),
		DEPI: ratioIndex(depreciationRate(prior), depreciationRate(current)),
		SGAI: ratioIndex(
			safeDiv(ci.SGAExpense, ci.Revenue, 1),
			safeDiv(pi.SGAExpense, pi.Revenue, 1)),
		LVGI: ratioIndex(
			safeDiv(cb.TotalLiabilities, cb.TotalAssets, 1),
			safeDiv(pb.TotalLiabilities, pb.TotalAssets, 1)),
		TATA: safeDiv(ci.NetIncome-current.CashFlow.OperatingCashFlow, cb.TotalAssets, 0),
	}

	r.MScore = beneishIntercept +
		coefDSRI*r.DSRI +
		coefGMI*r.GMI +
		coefAQI*r.AQI +
		coefSGI*r.SGI +
		coefDEPI*r.DEPI +
		coefSGAI*r.SGAI +
		coefTATA*r.TATA +
		coefLVGI*r.LVGI

	r.LikelyManipulator = r.MScore > ManipulationThreshold
	r.Zone = manipulationZone(r.MScore)
	r.Probability = 1 / (1 + math.Exp(-(r.MScore - ManipulationThreshold)))
	r.RiskScore = clamp(r.Probability, 0, 1)
	r.Flags = manipulationFlags(r)
	return r
}

func ratioIndex(num, den float64) float64 {
	return safeDiv(num, den, 1)
}

// softAssetRatio is the share of assets that are neither current nor PP&E.
func softAssetRatio(b models.BalanceSheet) float64 {
	return 1 - safeDiv(b.CurrentAssets+b.PPE, b.TotalAssets, 0)
}

func depreciationRate(s models.Snapshot) float64 {
	dep := s.Income.Depreciation
	return safeDiv(dep, dep+s.BalanceSheet.PPE, 1)
}

func manipulationZone(m float64) string {
	switch {
	case m > -1.78:
		return "High Risk"
	case m > ManipulationThreshold:
		return "Elevated Risk"
	case m > -2.50:
		return "Moderate Risk"
	default:
		return "Low Risk"
	}
}

func manipulationFlags(r models.ManipulationResult) []string {
	var flags []string
	if r.DSRI > 1.465 {
		flags = append(flags, "High Days Sales in Receivables - potential revenue manipulation")
	}
	if r.GMI > 1.193 {
		flags = append(flags, "Declining gross margins - pressure to manipulate")
	}
	if r.AQI > 1.254 {
		flags = append(flags, "Increasing non-current assets - potential capitalization abuse")
	}
	if r.SGI > 1.607 {
		flags = append(flags, "Rapid sales growth - higher manipulation risk")
	}
	if r.TATA > 0.018 {
		flags = append(flags, "High accruals relative to assets - earnings quality concern")
	}
	if r.LVGI > 1.111 {
		flags = append(flags, "Increasing leverage - financial pressure")
	}
	return flags
}
