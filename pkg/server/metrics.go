package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics owns the gateway's Prometheus instruments on a private registry so
// tests can construct servers without collector collisions.
type metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	firstTokenSecs  prometheus.Histogram
	streamDuration  prometheus.Histogram
	smsSkippedTotal prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_requests_total",
			Help: "Requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		firstTokenSecs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatrelay_first_token_seconds",
			Help:    "Latency from request start to first model token.",
			Buckets: prometheus.DefBuckets,
		}),
		streamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatrelay_stream_duration_seconds",
			Help:    "Total duration of model streaming per request.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		smsSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_sms_skipped_total",
			Help: "SMS notifications skipped by the monthly meter.",
		}),
	}
}
