// Package metrics exposes Prometheus collectors for the dispatch
// lifecycle of a gufohttp client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records requests, latency, in-flight dispatches, errors and
// body reads. It is safe for concurrent use. A nil *Collector is valid
// and records nothing.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	bodyBytes        *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	return &Collector{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gufohttp_requests_total",
				Help: "Total number of dispatched HTTP requests that produced a response",
			},
			[]string{"method", "status_code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gufohttp_request_duration_seconds",
				Help:    "Time from dispatch until response headers arrived",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gufohttp_requests_in_flight",
				Help: "Number of dispatches waiting for response headers",
			},
			[]string{"method"},
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gufohttp_errors_total",
				Help: "Total number of failed dispatches and body reads by error kind",
			},
			[]string{"method", "kind"},
		),
		bodyBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gufohttp_body_bytes_total",
				Help: "Total number of response body bytes read",
			},
			[]string{"method"},
		),
	}
}

// Start marks a dispatch in flight and returns the function that
// records its outcome. Pass status 0 together with a non-empty kind
// for a failed dispatch.
func (c *Collector) Start(method string) func(status int, kind string) {
	if c == nil {
		return func(int, string) {}
	}

	start := time.Now()
	inFlight := c.requestsInFlight.WithLabelValues(method)
	inFlight.Inc()

	return func(status int, kind string) {
		inFlight.Dec()
		c.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if kind != "" {
			c.errorsTotal.WithLabelValues(method, kind).Inc()
			return
		}
		c.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
}

// RecordRead counts a finished body read.
func (c *Collector) RecordRead(method string, n int, kind string) {
	if c == nil {
		return
	}
	if kind != "" {
		c.errorsTotal.WithLabelValues(method, kind).Inc()
	}
	c.bodyBytes.WithLabelValues(method).Add(float64(n))
}
