package forensic

import "github.com/seenimoa/fraudscope/pkg/models"

// Strength computes the nine-point Piotroski F-Score for current against
// prior. Ratios with a zero denominator count as 0.
func Strength(current, prior models.Snapshot) models.StrengthResult {
	r := models.StrengthResult{}

	check := func(pass bool, good, bad string) bool {
		if pass {
			r.FScore++
			r.Checks = append(r.Checks, "✓ "+good)
		} else {
			r.Checks = append(r.Checks, "✗ "+bad)
		}
		return pass
	}

	ci, cb, cc := current.Income, current.BalanceSheet, current.CashFlow
	pb := prior.BalanceSheet

	// Profitability.
	r.PositiveNetIncome = check(ci.NetIncome > 0,
		"Positive net income", "Non-positive net income")
	r.PositiveOCF = check(cc.OperatingCashFlow > 0,
		"Positive operating cash flow", "Non-positive operating cash flow")
	r.IncreasingROA = check(returnOnAssets(current) > returnOnAssets(prior),
		"Improving ROA", "ROA not improving")
	r.OCFExceedsNI = check(cc.OperatingCashFlow > ci.NetIncome,
		"Cash flow > Net income (quality earnings)", "Cash flow <= Net income")

	// Leverage, liquidity and source of funds.
	r.DecreasingLeverage = check(
		safeDiv(cb.LongTermDebt, cb.TotalAssets, 0) < safeDiv(pb.LongTermDebt, pb.TotalAssets, 0),
		"Declining leverage", "Leverage not declining")
	r.IncreasingCurrent = check(
		safeDiv(cb.CurrentAssets, cb.CurrentLiabilities, 0) > safeDiv(pb.CurrentAssets, pb.CurrentLiabilities, 0),
		"Improving current ratio", "Current ratio not improving")
	r.NoDilution = check(cb.SharesOutstanding <= pb.SharesOutstanding,
		"No share dilution", "Shares outstanding increased")

	// Operating efficiency.
	r.IncreasingMargin = check(
		safeDiv(ci.GrossProfit, ci.Revenue, 0) > safeDiv(prior.Income.GrossProfit, prior.Income.Revenue, 0),
		"Improving gross margin", "Gross margin not improving")
	r.IncreasingTurnover = check(
		safeDiv(ci.Revenue, cb.TotalAssets, 0) > safeDiv(prior.Income.Revenue, pb.TotalAssets, 0),
		"Improving asset turnover", "Asset turnover not improving")

	r.Interpretation = strengthInterpretation(r.FScore)
	r.RiskScore = clamp(1-float64(r.FScore)/9, 0, 1)
	return r
}

func returnOnAssets(s models.Snapshot) float64 {
	return safeDiv(s.Income.NetIncome, s.BalanceSheet.TotalAssets, 0)
}

func strengthInterpretation(score int) string {
	switch {
	case score >= 7:
		return "Strong"
	case score > 3:
		return "Moderate"
	default:
		return "Weak"
	}
}
