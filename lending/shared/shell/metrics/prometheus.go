// Package metrics implements the MetricsCollector contract of the event store and the command
// and query handlers with Prometheus.
package metrics

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lending"

// PrometheusCollector creates metric vectors lazily, on the first observation of a metric name.
// The label names of a metric are fixed by its first observation; missing labels are recorded
// as empty values and unknown labels are dropped.
type PrometheusCollector struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	labelNames map[string][]string
}

// NewPrometheusCollector creates a collector with its own registry, including the Go runtime
// and process collectors.
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &PrometheusCollector{
		registry:   registry,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		labelNames: make(map[string][]string),
	}
}

// Registry returns the underlying registry.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the Prometheus exposition format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordDuration observes a duration in seconds.
func (c *PrometheusCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	c.histogram(metric, labels, prometheus.DefBuckets).
		WithLabelValues(c.labelValues(metric, labels)...).
		Observe(duration.Seconds())
}

// IncrementCounter adds one to a counter.
func (c *PrometheusCollector) IncrementCounter(metric string, labels map[string]string) {
	c.counter(metric, labels).
		WithLabelValues(c.labelValues(metric, labels)...).
		Inc()
}

// RecordValue observes a value, e.g. the number of events returned by a query.
func (c *PrometheusCollector) RecordValue(metric string, value float64, labels map[string]string) {
	c.histogram(metric, labels, prometheus.ExponentialBuckets(1, 4, 8)).
		WithLabelValues(c.labelValues(metric, labels)...).
		Observe(value)
}

func (c *PrometheusCollector) histogram(metric string, labels map[string]string, buckets []float64) *prometheus.HistogramVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if vec, ok := c.histograms[metric]; ok {
		return vec
	}

	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: metric, Help: metric, Buckets: buckets},
		c.fixLabelNames(metric, labels),
	)
	c.registry.MustRegister(vec)
	c.histograms[metric] = vec

	return vec
}

func (c *PrometheusCollector) counter(metric string, labels map[string]string) *prometheus.CounterVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if vec, ok := c.counters[metric]; ok {
		return vec
	}

	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: metric, Help: metric},
		c.fixLabelNames(metric, labels),
	)
	c.registry.MustRegister(vec)
	c.counters[metric] = vec

	return vec
}

// fixLabelNames must be called with mu held.
func (c *PrometheusCollector) fixLabelNames(metric string, labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.Sort(names)
	c.labelNames[metric] = names

	return names
}

func (c *PrometheusCollector) labelValues(metric string, labels map[string]string) []string {
	c.mu.Lock()
	names := c.labelNames[metric]
	c.mu.Unlock()

	values := make([]string, len(names))
	for i, name := range names {
		values[i] = labels[name]
	}

	return values
}
