// Package composite folds the forensic models into a single risk verdict
// with red flags, trend directions and a recommendation.
package composite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fraudscope/internal/analysis/forensic"
	"github.com/seenimoa/fraudscope/pkg/models"
)

// ModelVersion is stamped on every assessment.
const ModelVersion = "1.0.0"

// MinPeriods is the fewest valid snapshots an analysis needs.
const MinPeriods = 2

// ErrInsufficientData is returned when fewer than MinPeriods valid
// snapshots are supplied.
var ErrInsufficientData = errors.New("insufficient financial data for analysis")

// Analyzer runs the models with a fixed weighting. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	weights     Weights
	models      []forensic.Model
	marketCap   float64
	secondDigit bool
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMarketCap sets the market value of equity used by the Z-Score.
// Non-positive values fall back to book equity.
func WithMarketCap(v float64) Option {
	return func(a *Analyzer) { a.marketCap = v }
}

// WithSecondDigit enables the supplementary second-digit Benford test.
func WithSecondDigit() Option {
	return func(a *Analyzer) { a.secondDigit = true }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithModels replaces the model set. Models whose names have no weight
// still run but contribute nothing to the score.
func WithModels(ms ...forensic.Model) Option {
	return func(a *Analyzer) { a.models = ms }
}

// New creates an Analyzer. Weights are copied; the caller may reuse them.
func New(weights Weights, opts ...Option) *Analyzer {
	a := &Analyzer{
		weights: weights,
		models:  forensic.DefaultModels(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weights returns the analyzer's weights.
func (a *Analyzer) Weights() Weights { return a.weights }

// Analyze scores periods (newest first) for company. Invalid snapshots are
// dropped first. With fewer than MinPeriods left it returns an assessment
// with Status insufficient_data and an error wrapping ErrInsufficientData.
func (a *Analyzer) Analyze(company models.Company, periods []models.Snapshot) (*models.RiskAssessment, error) {
	return a.analyze(company, periods, a.marketCap)
}

func (a *Analyzer) analyze(company models.Company, periods []models.Snapshot, marketCap float64) (*models.RiskAssessment, error) {
	valid := ValidPeriods(periods)
	out := &models.RiskAssessment{
		Company:         company,
		PeriodsAnalyzed: len(valid),
		Version:         ModelVersion,
		Periods:         summarize(valid),
		RedFlags:        []models.RedFlag{},
		Trends:          stableTrends(),
	}

	if len(valid) < MinPeriods {
		out.Status = models.StatusInsufficientData
		// RiskLevel keeps the zero rank so level comparisons stay total.
		// Consumers must check Status before reading it.
		out.RiskLevel = models.RiskLow
		out.Summary = fmt.Sprintf("Insufficient data: %d valid period(s), need %d.", len(valid), MinPeriods)
		a.logger.Debug("analysis skipped", "ticker", company.Ticker, "valid_periods", len(valid))
		return out, fmt.Errorf("%w: %d valid period(s), need %d", ErrInsufficientData, len(valid), MinPeriods)
	}

	in := forensic.Input{Periods: valid, MarketCap: marketCap}
	score := 0.0
	for _, m := range a.models {
		risk := m.Evaluate(in, out)
		score += a.weights.For(m.Name()) * risk
		a.logger.Debug("model evaluated", "ticker", company.Ticker, "model", m.Name(), "risk", risk)
	}
	if a.secondDigit {
		r := forensic.SecondDigit(forensic.DigitSample(valid))
		out.SecondDigit = &r
	}

	out.RedFlags = RedFlags(out)
	out.Trends = AnalyzeTrends(valid)
	score += a.weights.RedFlags * math.Min(1, float64(len(out.RedFlags))/5)

	out.Status = models.StatusComplete
	out.CompositeScore = clampUnit(score)
	out.RiskLevel = LevelFor(out.CompositeScore)
	out.Recommendation = Recommendation(out.RiskLevel)
	out.Summary = fmt.Sprintf("Analysis complete with %d red flags detected.", len(out.RedFlags))

	a.logger.Debug("analysis complete",
		"ticker", company.Ticker,
		"periods", len(valid),
		"score", out.CompositeScore,
		"level", out.RiskLevel,
		"red_flags", len(out.RedFlags))
	return out, nil
}

// ValidPeriods returns the snapshots marked valid, preserving order.
func ValidPeriods(periods []models.Snapshot) []models.Snapshot {
	valid := make([]models.Snapshot, 0, len(periods))
	for _, p := range periods {
		if p.Valid {
			valid = append(valid, p)
		}
	}
	return valid
}

func summarize(periods []models.Snapshot) []models.PeriodSummary {
	out := make([]models.PeriodSummary, 0, len(periods))
	for _, p := range periods {
		out = append(out, models.PeriodSummary{
			AccessionNumber: p.Filing.AccessionNumber,
			FormType:        p.Filing.FormType,
			FiledDate:       p.Filing.FiledDate,
			FiscalYear:      p.Filing.FiscalYear,
			Revenue:         p.Income.Revenue,
			NetIncome:       p.Income.NetIncome,
			TotalAssets:     p.BalanceSheet.TotalAssets,
		})
	}
	return out
}

// NaN collapses to 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LevelFor maps a composite score to its risk level.
func LevelFor(score float64) models.RiskLevel {
	switch {
	case score >= 0.8:
		return models.RiskCritical
	case score >= 0.6:
		return models.RiskHigh
	case score >= 0.4:
		return models.RiskElevated
	case score >= 0.2:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

var recommendations = map[models.RiskLevel]string{
	models.RiskCritical: "CRITICAL RISK: Multiple fraud indicators detected. Recommend immediate detailed investigation.",
	models.RiskHigh:     "HIGH RISK: Significant fraud indicators present. Exercise extreme caution and conduct thorough due diligence.",
	models.RiskElevated: "ELEVATED RISK: Some concerning indicators detected. Recommend additional scrutiny of financial statements.",
	models.RiskModerate: "MODERATE RISK: Minor concerns noted. Standard due diligence procedures recommended.",
	models.RiskLow:      "LOW RISK: No significant fraud indicators detected. Financial statements appear consistent with expected patterns.",
}

// Recommendation returns the fixed guidance text for a level.
func Recommendation(level models.RiskLevel) string {
	if r, ok := recommendations[level]; ok {
		return r
	}
	return recommendations[models.RiskLow]
}

// ════════════════════════════════════════════════════════════════════
// Batch
// ════════════════════════════════════════════════════════════════════

// Request is one company to analyze in a batch. A positive MarketCap
// overrides the analyzer's default.
type Request struct {
	Company   models.Company
	Periods   []models.Snapshot
	MarketCap float64
}

// Outcome pairs a batch request's assessment with its error.
type Outcome struct {
	Assessment *models.RiskAssessment
	Err        error
}

// AnalyzeBatch analyzes independent requests concurrently, at most limit
// at a time (limit <= 0 means unbounded). Outcomes are in request order.
// Per-request failures are reported in Outcome.Err; the returned error is
// non-nil only if ctx was cancelled.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request, limit int) ([]Outcome, error) {
	out := make([]Outcome, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mc := a.marketCap
			if req.MarketCap > 0 {
				mc = req.MarketCap
			}
			res, err := a.analyze(req.Company, req.Periods, mc)
			out[i] = Outcome{Assessment: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
