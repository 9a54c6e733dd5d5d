// Package metrics exposes the daemon's prometheus counters. They register on
// the default registry and are served by the status server under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Cycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_cycles_total",
		Help: "Polling cycles attempted, including ones skipped on enumeration failure.",
	})
	EnumerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_enumeration_failures_total",
		Help: "Cycles skipped because the process table could not be listed.",
	})
	NewProcesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_new_processes_total",
		Help: "Processes seen for the first time.",
	})
	SkippedProcesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_skipped_processes_total",
		Help: "New processes skipped because their command line or owner could not be read.",
	})
	RuleMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_rule_matches_total",
		Help: "New processes matched by a rule.",
	})
	Adjustments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_adjustments_total",
		Help: "Nice values successfully changed.",
	})
	AdjustmentsNoop = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_adjustments_noop_total",
		Help: "Adjustments skipped because the nice value already matched the rule.",
	})
	AdjustmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reniced_adjustment_failures_total",
		Help: "Adjustments that failed reading or setting the nice value.",
	})
)
