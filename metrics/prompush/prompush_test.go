package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"tabular/metrics"
)

// readCounterValue reads the current value of a Counter for assertions.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("job", ""); err == nil {
		t.Error("missing gateway URL accepted")
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "tabular" {
		t.Errorf("default job name = %q, want %q", b.jobName, "tabular")
	}

	b2, err := NewBackend("custom-job", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b2.jobName != "custom-job" {
		t.Errorf("job name = %q", b2.jobName)
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://pushgateway:9091")
	if err != nil {
		t.Fatal(err)
	}

	b.IncCounter("tabular_stage_total", 1, metrics.Labels{"stage": "parse", "status": "success"})
	b.IncCounter("tabular_stage_total", 2, metrics.Labels{"stage": "parse", "status": "success"})
	b.IncCounter("tabular_rows_total", 10, metrics.Labels{"kind": "parsed"})
	b.IncCounter("tabular_tasks_total", 1, metrics.Labels{"operation": "serialize", "status": "failed"})
	b.IncCounter("unknown_metric", 99, nil) // ignored

	if got := readCounterValue(t, b.stageCounter.WithLabelValues("parse", "success")); got != 3 {
		t.Errorf("stage counter = %v, want 3", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("parsed")); got != 10 {
		t.Errorf("row counter = %v, want 10", got)
	}
	if got := readCounterValue(t, b.taskCounter.WithLabelValues("serialize", "failed")); got != 1 {
		t.Errorf("task counter = %v, want 1", got)
	}
}

func TestObserveHistogramRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://pushgateway:9091")
	if err != nil {
		t.Fatal(err)
	}

	b.ObserveHistogram("tabular_stage_duration_seconds", 0.5, metrics.Labels{"stage": "parse", "status": "success"})
	b.ObserveHistogram("tabular_stage_duration_seconds", 1.5, metrics.Labels{"stage": "parse", "status": "success"})
	b.ObserveHistogram("tabular_task_duration_seconds", 2.0, metrics.Labels{"operation": "parse", "status": "completed"})
	b.ObserveHistogram("unknown_metric", 9, nil) // ignored

	count, sum := readSummaryCountSum(t, b.stageDuration, "parse", "success")
	if count != 2 || sum != 2.0 {
		t.Errorf("stage duration = (%d, %v), want (2, 2.0)", count, sum)
	}
	count, sum = readSummaryCountSum(t, b.taskDuration, "parse", "completed")
	if count != 1 || sum != 2.0 {
		t.Errorf("task duration = (%d, %v), want (1, 2.0)", count, sum)
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("push-job", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter("tabular_rows_total", 7, metrics.Labels{"kind": "serialized"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if gotPath != "/metrics/job/push-job" {
		t.Errorf("push path = %q", gotPath)
	}
	if len(gotBody) == 0 {
		t.Error("push body is empty")
	}
}
