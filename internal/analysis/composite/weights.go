package composite

import (
	"fmt"

	"github.com/seenimoa/fraudscope/internal/analysis/forensic"
)

// Weights scales each model's risk contribution, plus the density of red
// flags. They need not sum to 1.
type Weights struct {
	Beneish       float64 `json:"beneish" mapstructure:"beneish"`
	Altman        float64 `json:"altman" mapstructure:"altman"`
	Piotroski     float64 `json:"piotroski" mapstructure:"piotroski"`
	FraudTriangle float64 `json:"fraud_triangle" mapstructure:"fraud_triangle"`
	Benford       float64 `json:"benford" mapstructure:"benford"`
	RedFlags      float64 `json:"red_flags" mapstructure:"red_flags"`
}

// DefaultWeights returns the standard weighting, which sums to 1.
func DefaultWeights() Weights {
	return Weights{
		Beneish:       0.30,
		Altman:        0.25,
		Piotroski:     0.15,
		FraudTriangle: 0.15,
		Benford:       0.05,
		RedFlags:      0.10,
	}
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.Beneish + w.Altman + w.Piotroski + w.FraudTriangle + w.Benford + w.RedFlags
}

// Normalized divides every weight by their sum. A zero sum returns w
// unchanged.
func (w Weights) Normalized() Weights {
	s := w.Sum()
	if s == 0 {
		return w
	}
	return Weights{
		Beneish:       w.Beneish / s,
		Altman:        w.Altman / s,
		Piotroski:     w.Piotroski / s,
		FraudTriangle: w.FraudTriangle / s,
		Benford:       w.Benford / s,
		RedFlags:      w.RedFlags / s,
	}
}

// Validate rejects negative weights, naming the first one in model order.
func (w Weights) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{forensic.NameBeneish, w.Beneish},
		{forensic.NameAltman, w.Altman},
		{forensic.NamePiotroski, w.Piotroski},
		{forensic.NameFraudTriangle, w.FraudTriangle},
		{forensic.NameBenford, w.Benford},
		{"red_flags", w.RedFlags},
	}
	for _, c := range checks {
		if c.v < 0 {
			return fmt.Errorf("weight %s is negative: %v", c.name, c.v)
		}
	}
	return nil
}

// For returns the weight of the named model, or 0 for unknown names.
func (w Weights) For(model string) float64 {
	return w.byName()[model]
}

func (w Weights) byName() map[string]float64 {
	return map[string]float64{
		forensic.NameBeneish:       w.Beneish,
		forensic.NameAltman:        w.Altman,
		forensic.NamePiotroski:     w.Piotroski,
		forensic.NameFraudTriangle: w.FraudTriangle,
		forensic.NameBenford:       w.Benford,
	}
}
