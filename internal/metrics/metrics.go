// Package metrics holds the Prometheus collectors shared by the analysis
// engine, the EDGAR client and the caches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraudscope"

var (
	// AnalysesTotal counts finished analyses by status and risk level.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Total number of risk analyses by status and risk level",
	}, []string{"status", "level"})

	// AnalysisDuration tracks end-to-end analysis latency, fetch included.
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of risk analyses in seconds",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	// SECRequestsTotal counts outbound EDGAR requests.
	SECRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sec_requests_total",
		Help:      "Total number of SEC EDGAR requests by endpoint and result",
	}, []string{"endpoint", "result"})

	// CacheHitsTotal counts cache hits per tier ("memory" or "disk").
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits by tier",
	}, []string{"tier"})
)

// Cache tiers.
const (
	TierMemory = "memory"
	TierDisk   = "disk"
)

// ObserveAnalysis records one finished analysis.
func ObserveAnalysis(status, level string, started time.Time) {
	AnalysesTotal.WithLabelValues(status, level).Inc()
	AnalysisDuration.Observe(time.Since(started).Seconds())
}

// ObserveSECRequest records one EDGAR request outcome.
func ObserveSECRequest(endpoint string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SECRequestsTotal.WithLabelValues(endpoint, result).Inc()
}

// CacheHit records a hit on the given tier.
func CacheHit(tier string) {
	CacheHitsTotal.WithLabelValues(tier).Inc()
}
