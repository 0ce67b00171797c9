package composite

import "github.com/seenimoa/fraudscope/pkg/models"

// Red flag triggers.
const (
	distressZScore    = 1.81
	weakFScore        = 3
	triangleThreshold = 0.6
)

// RedFlags derives the rule-based findings from the model results on a,
// in a fixed order. Severity and confidence are constants per rule.
func RedFlags(a *models.RiskAssessment) []models.RedFlag {
	flags := []models.RedFlag{}

	if m := a.Manipulation; m != nil && m.LikelyManipulator {
		flags = append(flags, models.RedFlag{
			Type:        "EARNINGS_MANIPULATION",
			Title:       "Beneish M-Score Above Threshold",
			Description: "M-Score indicates potential earnings manipulation",
			Severity:    models.RiskHigh,
			Source:      "Beneish Model",
			Confidence:  0.9,
		})
	}
	if b := a.Bankruptcy; b != nil && b.ZScore < distressZScore {
		flags = append(flags, models.RedFlag{
			Type:        "BANKRUPTCY_RISK",
			Title:       "Altman Z-Score in Distress Zone",
			Description: "High probability of bankruptcy within 2 years",
			Severity:    models.RiskHigh,
			Source:      "Altman Model",
			Confidence:  0.85,
		})
	}
	if s := a.Strength; s != nil && s.FScore <= weakFScore {
		flags = append(flags, models.RedFlag{
			Type:        "WEAK_FUNDAMENTALS",
			Title:       "Low Piotroski F-Score",
			Description: "Financial fundamentals indicate weakness",
			Severity:    models.RiskElevated,
			Source:      "Piotroski Model",
			Confidence:  0.7,
		})
	}
	if f := a.RiskFactors; f != nil && f.OverallRisk > triangleThreshold {
		flags = append(flags, models.RedFlag{
			Type:        "FRAUD_TRIANGLE",
			Title:       "High Fraud Triangle Risk",
			Description: "Multiple fraud risk factors detected",
			Severity:    models.RiskHigh,
			Source:      "Fraud Triangle Model",
			Confidence:  0.8,
		})
	}
	if d := a.Benford; d != nil && d.Suspicious {
		flags = append(flags, models.RedFlag{
			Type:        "BENFORD_ANOMALY",
			Title:       "Benford's Law Deviation",
			Description: "Unusual digit distribution in financial figures",
			Severity:    models.RiskElevated,
			Source:      "Benford Model",
			Confidence:  0.65,
		})
	}
	return flags
}

// --- Trends ---

func stableTrends() models.Trends {
	return models.Trends{
		Revenue:   models.TrendStable,
		Income:    models.TrendStable,
		CashFlow:  models.TrendStable,
		Debt:      models.TrendStable,
		Margin:    models.TrendStable,
		Populated: []string{},
	}
}

// AnalyzeTrends compares the newest period with the oldest. Only revenue
// and net income are computed; the remaining directions stay stable and
// are left out of Populated.
func AnalyzeTrends(periods []models.Snapshot) models.Trends {
	t := stableTrends()
	if len(periods) < 2 {
		return t
	}
	newest, oldest := periods[0], periods[len(periods)-1]
	t.Revenue = direction(newest.Income.Revenue, oldest.Income.Revenue)
	t.Income = direction(newest.Income.NetIncome, oldest.Income.NetIncome)
	t.Populated = []string{models.TrendMetricRevenue, models.TrendMetricIncome}
	return t
}

func direction(newest, oldest float64) models.TrendDirection {
	switch {
	case newest > oldest*1.05:
		return models.TrendImproving
	case newest < oldest*0.95:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}
