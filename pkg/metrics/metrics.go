// Package metrics exposes the Prometheus collectors for moderation activity.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CasesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancy_cases_recorded_total",
	Help: "Ledger entries written, by action kind",
}, []string{"action"})

var WarningsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancy_warnings_processed_total",
	Help: "Warnings handled by the disciplinary engine, by outcome",
}, []string{"outcome"})

var TrialBans = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancy_trial_bans_total",
	Help: "Bans triggered by completing a trial stage",
}, []string{"stage"})

var StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancy_store_errors_total",
	Help: "Moderation store operations that returned an error",
}, []string{"op"})

var ProcessWarningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "pancy_process_warning_seconds",
	Help:    "Latency of a full warning transaction",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
})

// ObserveTrialBan records a ban triggered at the given stage
func ObserveTrialBan(stage int) {
	TrialBans.WithLabelValues(strconv.Itoa(stage)).Inc()
}

var PanicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pancy_panics_recovered_total",
	Help: "Panics caught by the recovery middleware",
})
