// Package metrics collects prometheus metrics of pipeline runs and oracle calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/maildigest/pkg/domain"
)

// Collector keeps maildigest metrics registered in the given registry
type Collector struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRun       prometheus.Gauge
	lastRunStats  *prometheus.GaugeVec
	emailsSent    prometheus.Counter
	running       prometheus.Gauge
	oracleCalls   *prometheus.CounterVec
	oracleLatency *prometheus.HistogramVec
}

// NewCollector makes Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maildigest_runs_total",
			Help: "Pipeline runs by result",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "maildigest_run_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "maildigest_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		lastRunStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maildigest_last_run_items",
			Help: "Counters of the last run by pipeline step",
		}, []string{"step"}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_newsletters_sent_total",
			Help: "Newsletters delivered by email",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "maildigest_run_in_progress",
			Help: "1 while a pipeline run is in progress",
		}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maildigest_oracle_calls_total",
			Help: "Oracle calls by model and status",
		}, []string{"model", "status"}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maildigest_oracle_call_duration_seconds",
			Help:    "Oracle call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
	}

	reg.MustRegister(c.runs, c.runDuration, c.lastRun, c.lastRunStats, c.emailsSent, c.running,
		c.oracleCalls, c.oracleLatency)
	return c
}

// ObserveOracleCall records a finished oracle call
func (c *Collector) ObserveOracleCall(model string, dur time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.oracleCalls.WithLabelValues(model, status).Inc()
	c.oracleLatency.WithLabelValues(model).Observe(dur.Seconds())
}

// RunStarted marks a run in progress
func (c *Collector) RunStarted() {
	c.running.Set(1)
}

// ObserveRun records a finished run
func (c *Collector) ObserveRun(res domain.RunResult) {
	c.running.Set(0)
	result := "success"
	if !res.Success {
		result = "failure"
	}
	c.runs.WithLabelValues(result).Inc()
	c.runDuration.Observe(res.Duration().Seconds())
	c.lastRun.Set(float64(res.FinishedAt.Unix()))
	if res.Stats.EmailSent {
		c.emailsSent.Inc()
	}

	steps := map[string]int{
		"emails":       res.Stats.TotalEmails,
		"news_emails":  res.Stats.NewsEmails,
		"news_items":   res.Stats.NewsItemsExtracted,
		"deduplicated": res.Stats.AfterDeduplication,
		"categories":   res.Stats.Categories,
	}
	if res.Stats.Metrics != nil {
		steps["stories"] = res.Stats.Metrics.TotalStories
		steps["secondary_placements"] = res.Stats.Metrics.SecondaryPlacements
	}
	for step, v := range steps {
		c.lastRunStats.WithLabelValues(step).Set(float64(v))
	}
}

// Handler returns prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
