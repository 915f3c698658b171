package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "preprocessing"

// Outcome labels for normalized items
const (
	OutcomeProcessed = "processed"
	OutcomeFiltered  = "filtered"
	OutcomeFailed    = "failed"
)

// Collector owns a private registry with the service metrics
type Collector struct {
	registry *prometheus.Registry

	items         *prometheus.CounterVec
	batchDuration prometheus.Histogram
	batchSize     prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	jobs          *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCollector creates a collector with Go runtime and process metrics registered
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Texts run through the pipeline by outcome.",
		}, []string{"outcome"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a batch normalization.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of texts per batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background jobs by kind and final status.",
		}, []string{"kind", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.items,
		c.batchDuration,
		c.batchSize,
		c.cacheLookups,
		c.jobs,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// ObserveBatch records one batch run
func (c *Collector) ObserveBatch(size, processed, filtered, failed int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.batchSize.Observe(float64(size))
	c.batchDuration.Observe(elapsed.Seconds())
	c.items.WithLabelValues(OutcomeProcessed).Add(float64(processed))
	c.items.WithLabelValues(OutcomeFiltered).Add(float64(filtered))
	c.items.WithLabelValues(OutcomeFailed).Add(float64(failed))
}

// ObserveItem records a single text outcome
func (c *Collector) ObserveItem(outcome string) {
	if c == nil {
		return
	}
	c.items.WithLabelValues(outcome).Inc()
}

// CacheHit counts a result cache hit
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss counts a result cache miss
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

// CacheError counts a failed cache lookup
func (c *Collector) CacheError() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("error").Inc()
}

// JobFinished counts a job reaching a terminal status
func (c *Collector) JobFinished(kind, status string) {
	if c == nil {
		return
	}
	c.jobs.WithLabelValues(kind, status).Inc()
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
