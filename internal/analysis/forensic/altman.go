package forensic

import "github.com/seenimoa/fraudscope/pkg/models"

// Zone thresholds for both Altman variants.
const (
	AltmanSafe     = 2.99
	AltmanDistress = 1.81

	nonMfgSafe     = 2.60
	nonMfgDistress = 1.10
)

// Bankruptcy computes the original Altman Z-Score for a public company.
// X4 uses marketCap when it is positive and book equity otherwise.
// Operating income stands in for EBIT.
func Bankruptcy(s models.Snapshot, marketCap float64) models.BankruptcyResult {
	r := altmanRatios(s)
	equity := s.BalanceSheet.TotalEquity
	if marketCap > 0 {
		equity = marketCap
	}
	r.Variant = models.VariantPublic
	r.X4 = safeDiv(equity, s.BalanceSheet.TotalLiabilities, 0)
	r.X5 = safeDiv(s.Income.Revenue, s.BalanceSheet.TotalAssets, 0)

	r.ZScore = 1.2*r.X1 + 1.4*r.X2 + 3.3*r.X3 + 0.6*r.X4 + 1.0*r.X5
	r.Zone = altmanZone(r.ZScore, AltmanSafe, AltmanDistress)
	r.BankruptcyProbability = bankruptcyProbability(r.ZScore)
	r.RiskScore = clamp(r.BankruptcyProbability, 0, 1)
	return r
}

// BankruptcyNonManufacturing computes the Z''-Score, which drops the
// asset turnover term and always uses book equity.
func BankruptcyNonManufacturing(s models.Snapshot) models.BankruptcyResult {
	r := altmanRatios(s)
	r.Variant = models.VariantNonManufacturing
	r.X4 = safeDiv(s.BalanceSheet.TotalEquity, s.BalanceSheet.TotalLiabilities, 0)

	r.ZScore = 6.56*r.X1 + 3.26*r.X2 + 6.72*r.X3 + 1.05*r.X4
	r.Zone = altmanZone(r.ZScore, nonMfgSafe, nonMfgDistress)
	r.BankruptcyProbability = bankruptcyProbability(r.ZScore)
	r.RiskScore = clamp(r.BankruptcyProbability, 0, 1)
	return r
}

// altmanRatios fills X1-X3, which both variants share.
func altmanRatios(s models.Snapshot) models.BankruptcyResult {
	b := s.BalanceSheet
	return models.BankruptcyResult{
		X1: safeDiv(b.WorkingCapital(), b.TotalAssets, 0),
		X2: safeDiv(b.RetainedEarnings, b.TotalAssets, 0),
		X3: safeDiv(s.Income.OperatingIncome, b.TotalAssets, 0),
	}
}

func altmanZone(z, safe, distress float64) string {
	switch {
	case z > safe:
		return "Safe"
	case z > distress:
		return "Gray"
	default:
		return "Distress"
	}
}

// bankruptcyBands maps Z-Score floors to an approximate two-year
// bankruptcy probability. Checked top-down; the first floor z exceeds wins.
var bankruptcyBands = []struct {
	floor float64
	prob  float64
}{
	{3.0, 0.01},
	{2.7, 0.05},
	{2.4, 0.10},
	{2.0, 0.20},
	{1.8, 0.35},
	{1.5, 0.50},
	{1.2, 0.65},
	{1.0, 0.75},
	{0.5, 0.85},
}

func bankruptcyProbability(z float64) float64 {
	for _, b := range bankruptcyBands {
		if z > b.floor {
			return b.prob
		}
	}
	return 0.95
}
