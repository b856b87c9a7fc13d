// Package observability holds the process-wide prometheus metrics. All
// collectors are registered at init via promauto; callers just set or
// increment them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisRuns counts completed analysis passes by outcome.
	AnalysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedscope_analysis_runs_total",
		Help: "Total number of analysis passes",
	}, []string{"outcome"}) // ok, fetch_error

	// AnalysisDuration tracks how long one full pass takes (fetch + compute).
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedscope_analysis_duration_seconds",
		Help:    "Duration of one analysis pass including the remote fetch",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
	})

	// TasksAnalyzed is the task count of the most recent pass.
	TasksAnalyzed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schedscope_tasks_analyzed",
		Help: "Number of valid tasks in the latest analysis",
	})

	// TasksSkipped is the silently-dropped record count of the latest pass.
	TasksSkipped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schedscope_tasks_skipped",
		Help: "Records dropped for missing or unparseable start times in the latest analysis",
	})

	// HealthScore exports each banded KPI value by metric name.
	HealthScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedscope_health_metric",
		Help: "Latest value of each health metric",
	}, []string{"metric"})

	// HealthBand exports each KPI's band as a number (0=green, 1=yellow, 2=red).
	HealthBand = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedscope_health_band",
		Help: "Latest band of each health metric (0=green, 1=yellow, 2=red)",
	}, []string{"metric"})

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedscope_http_requests_total",
		Help: "Total HTTP requests served",
	}, []string{"route", "code"})

	// ScheduleCommits counts write-backs to the remote API by outcome.
	ScheduleCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedscope_schedule_commits_total",
		Help: "Schedule edits pushed to the remote API",
	}, []string{"outcome"}) // ok, rejected, remote_error

	// AlertsSent counts band-transition alerts by band.
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedscope_alerts_sent_total",
		Help: "Band-transition alerts delivered",
	}, []string{"band"})
)

// BandValue maps a band name onto the numeric encoding used by HealthBand.
func BandValue(band string) float64 {
	switch band {
	case "yellow":
		return 1
	case "red":
		return 2
	default:
		return 0
	}
}
