// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics collects operational counters for the memo storage
// engine and renders them as Prometheus text exposition.
//
// memo never runs an HTTP listener of its own — `memo stats --prom` simply
// gathers the process-local registry and writes the text format to stdout,
// so a caller can scrape it by piping
// or by wiring it into their own exporter. Registering a single shared
// registry keeps this optional: commands that never call into
// internal/metrics never pay for it.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry is the process-wide collector registry for memo. It is not the
// global prometheus.DefaultRegisterer on purpose: memo is a CLI, not a
// server, so nothing should accidentally pull in Go runtime collectors
// registered elsewhere in the process.
var Registry = prometheus.NewRegistry()

var (
	// MemoriesWritten counts successful write/bulk-write operations per
	// scope and memory type.
	MemoriesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "memories_written_total",
		Help:      "Total memories written, by scope and type.",
	}, []string{"scope", "type"})

	// MemoriesDeleted counts delete/archive operations per scope.
	MemoriesDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "memories_deleted_total",
		Help:      "Total memories deleted or archived, by scope.",
	}, []string{"scope"})

	// SearchesTotal counts search invocations per scope and mode
	// (keyword or semantic, after any fallback has been applied).
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "searches_total",
		Help:      "Total search invocations, by scope and mode actually used.",
	}, []string{"scope", "mode"})

	// SearchFallbacksTotal counts semantic searches that degraded to
	// keyword search because the embedding provider was unavailable.
	SearchFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "search_fallbacks_total",
		Help:      "Total semantic searches that fell back to keyword search.",
	}, []string{"scope"})

	// LeaseWaitSeconds observes how long a command waited to acquire a
	// scope's write lease before succeeding or timing out.
	LeaseWaitSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memo",
		Name:      "lease_wait_seconds",
		Help:      "Time spent waiting to acquire a scope write lease.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scope"})

	// LeaseConflictsTotal counts lease acquisitions that timed out.
	LeaseConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "lease_conflicts_total",
		Help:      "Total write-lease acquisitions that timed out.",
	}, []string{"scope"})

	// ReconcileRunsTotal counts reconciler invocations per scope and
	// operation (sync, rebuild, reindex, refresh, repair).
	ReconcileRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "reconcile_runs_total",
		Help:      "Total reconciler runs, by scope and operation.",
	}, []string{"scope", "operation"})

	// ReconcileDurationSeconds observes reconciler run duration.
	ReconcileDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memo",
		Name:      "reconcile_duration_seconds",
		Help:      "Reconciler run duration, by scope and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scope", "operation"})
)

func init() {
	Registry.MustRegister(
		MemoriesWritten,
		MemoriesDeleted,
		SearchesTotal,
		SearchFallbacksTotal,
		LeaseWaitSeconds,
		LeaseConflictsTotal,
		ReconcileRunsTotal,
		ReconcileDurationSeconds,
	)
}

// WriteText renders the current state of Registry as Prometheus text
// exposition format, used by `memo stats --prom`.
func WriteText(w io.Writer) error {
	families, err := Registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		return closer.Close()
	}
	return nil
}
