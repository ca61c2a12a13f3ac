// Package metrics exposes Prometheus collectors for the cache, the
// enrollment/payment reconciliation rules and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursedesk"

// Collector owns every metric the service exports.
type Collector struct {
	cacheHits         prometheus.Counter
	cacheStaleHits    prometheus.Counter
	cacheMisses       prometheus.Counter
	cacheEvictions    prometheus.Counter
	cacheRevalidation prometheus.Counter

	reconciliation *prometheus.CounterVec
	coursesFull    prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewCollector creates the collectors and registers them with reg. A nil
// reg gets a private registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Cache reads served from a fresh entry.",
		}),
		cacheStaleHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "stale_hits_total",
			Help: "Cache reads served from a stale entry while it revalidates.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Cache reads that fetched synchronously.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "evictions_total",
			Help: "Entries dropped to make room for a new key.",
		}),
		cacheRevalidation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "revalidation_failures_total",
			Help: "Background refreshes whose fetch failed.",
		}),
		reconciliation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reconcile", Name: "operations_total",
			Help: "Reconciliation operations by name and outcome kind.",
		}, []string{"op", "outcome"}),
		coursesFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reconcile", Name: "course_full_transitions_total",
			Help: "Times a course was flagged full.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.cacheHits, c.cacheStaleHits, c.cacheMisses, c.cacheEvictions, c.cacheRevalidation,
		c.reconciliation, c.coursesFull, c.httpRequests, c.httpDuration,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	} else {
		c.gatherer = prometheus.DefaultGatherer
	}
	return c
}

func (c *Collector) CacheHit()              { c.cacheHits.Inc() }
func (c *Collector) CacheStaleHit()         { c.cacheStaleHits.Inc() }
func (c *Collector) CacheMiss()             { c.cacheMisses.Inc() }
func (c *Collector) CacheEviction()         { c.cacheEvictions.Inc() }
func (c *Collector) CacheRevalidateFailed() { c.cacheRevalidation.Inc() }

// Reconciled counts one reconciliation operation. outcome is "ok" or an
// error kind such as "conflict".
func (c *Collector) Reconciled(op, outcome string) {
	c.reconciliation.WithLabelValues(op, outcome).Inc()
}

// CourseFilled counts a course crossing into full.
func (c *Collector) CourseFilled() { c.coursesFull.Inc() }

// ObserveHTTP records one finished request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry the collector was registered with.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
