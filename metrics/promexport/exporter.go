// Package promexport exposes worker-pool state as Prometheus gauges for
// pull-based scraping.
//
// Unlike prompush, which pushes counters for batch jobs, this package is for
// long-lived processes that keep a pool alive: register the collector once
// and every scrape reads a fresh Stats snapshot.
package promexport

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"

	"tabular/pool"
)

// StatsFunc returns a point-in-time pool snapshot; typically Pool.Stats.
type StatsFunc func() pool.Stats

// Collector adapts a StatsFunc to prometheus.Collector.
type Collector struct {
	stats StatsFunc

	workers   *prom.Desc
	active    *prom.Desc
	idle      *prom.Desc
	queued    *prom.Desc
	completed *prom.Desc
	failed    *prom.Desc
}

// NewCollector creates a Collector with the given metric namespace
// ("tabular" when empty) and registers it with reg (the default registerer
// when nil).
func NewCollector(namespace string, reg prom.Registerer, stats StatsFunc) (*Collector, error) {
	if stats == nil {
		return nil, errors.New("promexport: stats func is required")
	}
	if namespace == "" {
		namespace = "tabular"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		stats: stats,
		workers: prom.NewDesc(prom.BuildFQName(namespace, "pool", "workers"),
			"Workers currently alive.", nil, nil),
		active: prom.NewDesc(prom.BuildFQName(namespace, "pool", "active_workers"),
			"Workers currently holding a task.", nil, nil),
		idle: prom.NewDesc(prom.BuildFQName(namespace, "pool", "idle_workers"),
			"Workers waiting for a task.", nil, nil),
		queued: prom.NewDesc(prom.BuildFQName(namespace, "pool", "queue_depth"),
			"Tasks waiting for dispatch.", nil, nil),
		completed: prom.NewDesc(prom.BuildFQName(namespace, "pool", "tasks_completed_total"),
			"Tasks that reached a successful terminal state.", nil, nil),
		failed: prom.NewDesc(prom.BuildFQName(namespace, "pool", "tasks_failed_total"),
			"Tasks that reached a failed terminal state.", nil, nil),
	}
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	ch <- c.workers
	ch <- c.active
	ch <- c.idle
	ch <- c.queued
	ch <- c.completed
	ch <- c.failed
}

// Collect implements prometheus.Collector; each scrape takes one snapshot so
// the gauges are mutually consistent.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	s := c.stats()
	ch <- prom.MustNewConstMetric(c.workers, prom.GaugeValue, float64(s.Workers))
	ch <- prom.MustNewConstMetric(c.active, prom.GaugeValue, float64(s.Active))
	ch <- prom.MustNewConstMetric(c.idle, prom.GaugeValue, float64(s.Idle))
	ch <- prom.MustNewConstMetric(c.queued, prom.GaugeValue, float64(s.Queued))
	ch <- prom.MustNewConstMetric(c.completed, prom.CounterValue, float64(s.Completed))
	ch <- prom.MustNewConstMetric(c.failed, prom.CounterValue, float64(s.Failed))
}
