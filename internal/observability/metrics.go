// Package observability holds the prometheus instruments for the sync engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "garminsync",
		Subsystem: "sync",
		Name:      "activities_fetched_total",
		Help:      "Number of in-bound activities fetched from the provider.",
	})

	enrichedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "garminsync",
		Subsystem: "sync",
		Name:      "durations_enriched_total",
		Help:      "Number of activities whose missing duration was filled via detail lookup.",
	})

	prunedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "garminsync",
		Subsystem: "sync",
		Name:      "activities_pruned_total",
		Help:      "Number of stale local records removed by the pruner.",
	})

	rateLimitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "garminsync",
		Subsystem: "sync",
		Name:      "rate_limit_hits_total",
		Help:      "Number of runs halted early by provider rate limiting.",
	})

	runCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garminsync",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Number of sync runs grouped by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(fetchedCounter, enrichedCounter, prunedCounter, rateLimitCounter, runCounter)
}

// RecordFetched counts in-bound activities observed this run.
func RecordFetched(n int) {
	if n > 0 {
		fetchedCounter.Add(float64(n))
	}
}

// RecordEnriched counts a successful duration enrichment.
func RecordEnriched() {
	enrichedCounter.Inc()
}

// RecordPruned counts records removed by the pruner.
func RecordPruned(n int) {
	if n > 0 {
		prunedCounter.Add(float64(n))
	}
}

// RecordRateLimited counts a run that hit provider throttling.
func RecordRateLimited() {
	rateLimitCounter.Inc()
}

// RecordRun counts a completed run by outcome ("ok" or "error").
func RecordRun(outcome string) {
	runCounter.WithLabelValues(outcome).Inc()
}
