// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the tabular conversion paths.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - The no-op backend makes every call site safe when no real backend is
//     configured; callers hold an explicit Backend value rather than mutating
//     package state, so independent pipelines can report to different
//     systems and tests never observe each other's counts.
//   - Concrete systems stay isolated in subpackages (datadog, prompush,
//     promexport); the rest of the module depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so Prometheus, Datadog, etc. can plug in.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// Nop is a Backend that discards everything; use it wherever a Backend is
// required but none is configured.
var Nop Backend = nopBackend{}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

// OrNop returns b, or the no-op backend when b is nil. Call sites use this so
// optional Backend fields never need nil checks.
func OrNop(b Backend) Backend {
	if b == nil {
		return Nop
	}
	return b
}

// RecordStage measures one pipeline stage execution: latency plus a
// success/failure counter.
func RecordStage(b Backend, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"stage": stage, "status": status}
	b = OrNop(b)
	b.IncCounter("tabular_stage_total", 1, lbls)
	b.ObserveHistogram("tabular_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given kind.
//
// Typical kinds mirror the streaming summary fields, e.g.:
//   - "parsed"
//   - "repaired"
//   - "dropped"
//   - "serialized"
func RecordRows(b Backend, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	OrNop(b).IncCounter("tabular_rows_total", float64(delta), Labels{"kind": kind})
}

// RecordTask measures one worker-pool task: latency plus a terminal-status
// counter partitioned by operation.
func RecordTask(b Backend, op string, err error, d time.Duration) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	lbls := Labels{"operation": op, "status": status}
	b = OrNop(b)
	b.IncCounter("tabular_tasks_total", 1, lbls)
	b.ObserveHistogram("tabular_task_duration_seconds", d.Seconds(), lbls)
}
