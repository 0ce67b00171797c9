package forensic

import (
	"math"

	"github.com/seenimoa/fraudscope/pkg/models"
)

// Category weights for the overall fraud triangle risk.
const (
	pressureWeight        = 0.35
	opportunityWeight     = 0.35
	rationalizationWeight = 0.30
)

// RiskFactors scans periods (newest first) for pressure, opportunity and
// rationalization indicators. An empty slice yields zero scores.
func RiskFactors(periods []models.Snapshot) models.RiskFactorResult {
	r := models.RiskFactorResult{
		PressureIndicators:        pressureIndicators(periods),
		OpportunityIndicators:     opportunityIndicators(periods),
		RationalizationIndicators: rationalizationIndicators(periods),
	}
	r.PressureScore = normalizeCount(len(r.PressureIndicators), 5)
	r.OpportunityScore = normalizeCount(len(r.OpportunityIndicators), 3)
	r.RationalizationScore = normalizeCount(len(r.RationalizationIndicators), 2)

	r.OverallRisk = pressureWeight*r.PressureScore +
		opportunityWeight*r.OpportunityScore +
		rationalizationWeight*r.RationalizationScore
	r.RiskLevel = triangleLevel(r.OverallRisk)
	return r
}

func normalizeCount(n, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return clamp(float64(n)/float64(limit), 0, 1)
}

func triangleLevel(overall float64) string {
	switch {
	case overall >= 0.7:
		return "HIGH"
	case overall >= 0.4:
		return "MODERATE"
	case overall >= 0.2:
		return "ELEVATED"
	default:
		return "LOW"
	}
}

// --- Pressure ---

func pressureIndicators(periods []models.Snapshot) []string {
	var out []string
	if len(periods) == 0 {
		return out
	}
	if mostlyDeclining(periods, func(s models.Snapshot) float64 { return s.Income.Revenue }) {
		out = append(out, "Declining revenue trend")
	}
	if mostlyDeclining(periods, func(s models.Snapshot) float64 { return s.Income.GrossMargin() }) {
		out = append(out, "Declining profit margins")
	}
	latest := periods[0]
	if latest.BalanceSheet.DebtRatio() > 0.6 {
		out = append(out, "High leverage ratio")
	}
	if latest.CashFlow.OperatingCashFlow < 0 {
		out = append(out, "Negative operating cash flow")
	}
	if len(periods) >= 3 && countNetMargin(periods, 0, 0.02) >= 2 {
		out = append(out, "Pattern of barely meeting earnings targets")
	}
	return out
}

// mostlyDeclining reports whether at least half of the period-over-period
// comparisons show the newer value below the older one.
func mostlyDeclining(periods []models.Snapshot, metric func(models.Snapshot) float64) bool {
	if len(periods) < 2 {
		return false
	}
	declines := 0
	for i := 1; i < len(periods); i++ {
		if metric(periods[i-1]) < metric(periods[i]) {
			declines++
		}
	}
	return 2*declines >= len(periods)-1
}

// countNetMargin counts periods whose net margin lies strictly inside (lo, hi).
func countNetMargin(periods []models.Snapshot, lo, hi float64) int {
	n := 0
	for _, p := range periods {
		if m := p.Income.NetMargin(); m > lo && m < hi {
			n++
		}
	}
	return n
}

// --- Opportunity ---

func opportunityIndicators(periods []models.Snapshot) []string {
	var out []string
	if len(periods) == 0 {
		return out
	}
	if b := periods[0].BalanceSheet; b.TotalAssets > 0 && (b.Goodwill+b.IntangibleAssets)/b.TotalAssets > 0.3 {
		out = append(out, "Complex organizational structure (high intangibles)")
	}
	if unusualWorkingCapitalSwing(periods) {
		out = append(out, "Unusual changes in receivables or inventory")
	}
	if depreciationRateShift(periods) {
		out = append(out, "Significant changes in accounting estimates")
	}
	return out
}

// unusualWorkingCapitalSwing reports a >50% rise in receivables or
// inventory between any two consecutive periods.
func unusualWorkingCapitalSwing(periods []models.Snapshot) bool {
	for i := 1; i < len(periods); i++ {
		newer, older := periods[i-1].BalanceSheet, periods[i].BalanceSheet
		if relativeChange(newer.AccountsReceivable, older.AccountsReceivable) > 0.5 ||
			relativeChange(newer.Inventory, older.Inventory) > 0.5 {
			return true
		}
	}
	return false
}

func relativeChange(newer, older float64) float64 {
	if older <= 0 {
		return 0
	}
	return (newer - older) / older
}

// depreciationRateShift reports a >30% relative move in depreciation/PP&E
// between any two consecutive periods.
func depreciationRateShift(periods []models.Snapshot) bool {
	rate := func(s models.Snapshot) float64 {
		if s.BalanceSheet.PPE <= 0 {
			return 0
		}
		return s.Income.Depreciation / s.BalanceSheet.PPE
	}
	for i := 1; i < len(periods); i++ {
		newer, older := rate(periods[i-1]), rate(periods[i])
		if older > 0 && math.Abs(newer-older)/older > 0.3 {
			return true
		}
	}
	return false
}

// --- Rationalization ---

func rationalizationIndicators(periods []models.Snapshot) []string {
	var out []string
	if len(periods) == 0 {
		return out
	}
	for _, p := range periods {
		ni, ocf := p.Income.NetIncome, p.CashFlow.OperatingCashFlow
		if ni > 0 && ocf > 0 && ni > 1.5*ocf {
			out = append(out, "Aggressive accounting (income >> cash flow)")
			break
		}
	}
	if countNetMargin(periods, 0, 0.01) >= 2 {
		out = append(out, "Earnings consistently at boundary levels")
	}
	return out
}
