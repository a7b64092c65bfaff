// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the tabular metric names and labels (stage, status, kind,
//     operation) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, which suits batch conversions
//     that exit when done.
//
// The package intentionally contains all Prometheus-specific dependencies so
// the rest of the module remains decoupled from Prometheus and can swap to
// alternative backends (e.g. Datadog) without changes to the conversion
// paths.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tabular/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // "tabular_stage_total"
	stageDuration *prometheus.SummaryVec // "tabular_stage_duration_seconds"
	rowCounter    *prometheus.CounterVec // "tabular_rows_total"
	taskCounter   *prometheus.CounterVec // "tabular_tasks_total"
	taskDuration  *prometheus.SummaryVec // "tabular_task_duration_seconds"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName is the Pushgateway "job" name; gatewayURL its base URL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tabular"
	}

	reg := prometheus.NewRegistry()
	objectives := map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabular_stage_total",
			Help: "Total pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "tabular_stage_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by stage and status.",
			Objectives: objectives,
		},
		[]string{"stage", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabular_rows_total",
			Help: "Row-level counts per kind (parsed, repaired, dropped, serialized, etc.).",
		},
		[]string{"kind"},
	)
	taskCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabular_tasks_total",
			Help: "Worker-pool task completions, partitioned by operation and status.",
		},
		[]string{"operation", "status"},
	)
	taskDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "tabular_task_duration_seconds",
			Help:       "Duration of worker-pool tasks in seconds, partitioned by operation and status.",
			Objectives: objectives,
		},
		[]string{"operation", "status"},
	)

	for _, c := range []prometheus.Collector{
		stageCounter, stageDuration, rowCounter, taskCounter, taskDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		rowCounter:    rowCounter,
		taskCounter:   taskCounter,
		taskDuration:  taskDuration,
	}, nil
}

// IncCounter implements metrics.Backend for the known tabular counter names;
// unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "tabular_stage_total":
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case "tabular_rows_total":
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case "tabular_tasks_total":
		b.taskCounter.WithLabelValues(labels["operation"], labels["status"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend for the known duration names;
// unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case "tabular_stage_duration_seconds":
		b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
	case "tabular_task_duration_seconds":
		b.taskDuration.WithLabelValues(labels["operation"], labels["status"]).Observe(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
