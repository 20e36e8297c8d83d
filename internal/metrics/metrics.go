// Package metrics exposes Prometheus counters for the report server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for AnalysesTotal.
const (
	OutcomeOK          = "ok"
	OutcomeInputError  = "input_error"
	OutcomeConfigError = "config_error"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Collector owns a private registry so tests can create as many as they
// like without clashing on the default one.
type Collector struct {
	reg *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec // outcome label
	AnalysisDuration prometheus.Histogram
	UploadBytes      prometheus.Histogram

	TripPoints      prometheus.Counter
	StoppagesFound  prometheus.Counter
	SignalPasses    prometheus.Counter
	ViolationsFound prometheus.Counter

	Downloads *prometheus.CounterVec // format label: json|html|xlsx|speed
}

// NewCollector registers the server metrics. cacheStats reports the
// analyzer's telemetry cache counters and storedReports the number of
// reports held for download; either may be nil.
func NewCollector(cacheStats func() (hits, misses uint64), storedReports func() int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_analyses_total",
			Help: "Analysis requests by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spm_analysis_duration_seconds",
			Help:    "Time to parse and analyse one upload.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		UploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spm_upload_bytes",
			Help:    "Size of uploaded telemetry files.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
		TripPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spm_trip_points_total",
			Help: "Telemetry samples analysed.",
		}),
		StoppagesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spm_stoppages_total",
			Help: "Stoppages detected across all analyses.",
		}),
		SignalPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spm_signal_passes_total",
			Help: "Signal passes detected across all analyses.",
		}),
		ViolationsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spm_signal_violations_total",
			Help: "Signal passes above the train type limit.",
		}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_report_downloads_total",
			Help: "Report downloads by format.",
		}, []string{"format"}),
	}

	reg.MustRegister(
		c.AnalysesTotal, c.AnalysisDuration, c.UploadBytes,
		c.TripPoints, c.StoppagesFound, c.SignalPasses, c.ViolationsFound,
		c.Downloads,
	)

	if cacheStats != nil {
		reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "spm_telemetry_cache_hits_total",
				Help: "Uploads served from the parsed telemetry cache.",
			}, func() float64 { h, _ := cacheStats(); return float64(h) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "spm_telemetry_cache_misses_total",
				Help: "Uploads that had to be parsed.",
			}, func() float64 { _, m := cacheStats(); return float64(m) }),
		)
	}
	if storedReports != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "spm_stored_reports",
			Help: "Reports currently held for download.",
		}, func() float64 { return float64(storedReports()) }))
	}

	return c
}

// ObserveAnalysis records one finished analysis.
func (c *Collector) ObserveAnalysis(outcome string, elapsed time.Duration) {
	c.AnalysesTotal.WithLabelValues(outcome).Inc()
	c.AnalysisDuration.Observe(elapsed.Seconds())
}

// ObserveResult adds the counts of one successful analysis.
func (c *Collector) ObserveResult(points, stoppages, passes, violations int) {
	c.TripPoints.Add(float64(points))
	c.StoppagesFound.Add(float64(stoppages))
	c.SignalPasses.Add(float64(passes))
	c.ViolationsFound.Add(float64(violations))
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
