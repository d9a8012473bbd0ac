// Package metrics exposes prometheus collectors for ledger generation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	GenerationRuns   prometheus.Counter
	EntriesCreated   prometheus.Counter
	EntriesUpdated   prometheus.Counter
	EntriesFailed    prometheus.Counter
	LastRunTimestamp prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		GenerationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commissiond",
			Name:      "ledger_generation_runs_total",
			Help:      "Number of batch ledger generation runs.",
		}),
		EntriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commissiond",
			Name:      "ledger_entries_created_total",
			Help:      "Ledger entries created by generation runs.",
		}),
		EntriesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commissiond",
			Name:      "ledger_entries_updated_total",
			Help:      "Ledger entries updated by generation runs.",
		}),
		EntriesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commissiond",
			Name:      "ledger_entries_failed_total",
			Help:      "Per-representative failures reported by generation runs.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "commissiond",
			Name:      "ledger_generation_last_run_timestamp_seconds",
			Help:      "Unix time of the most recent generation run.",
		}),
	}

	prometheus.MustRegister(
		m.GenerationRuns,
		m.EntriesCreated,
		m.EntriesUpdated,
		m.EntriesFailed,
		m.LastRunTimestamp,
	)

	return m
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
