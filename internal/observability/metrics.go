// Package observability holds the Prometheus metrics and OTLP tracing
// setup for the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// Business metrics
	GenerationsStarted   prometheus.Counter
	GenerationsCompleted prometheus.Counter
	GenerationsFailed    *prometheus.CounterVec
	CreditsDebited       prometheus.Counter
	CreditsRefunded      prometheus.Counter
	CreditsPurchased     prometheus.Counter

	// Inference metrics
	InferenceDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry, so tests never
// trip over duplicate registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		GenerationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_started_total",
			Help:      "Total number of generation batches started",
		}),
		GenerationsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_completed_total",
			Help:      "Total number of generation batches persisted",
		}),
		GenerationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_failed_total",
			Help:      "Total number of failed generation batches",
		}, []string{"reason"}),
		CreditsDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_debited_total",
			Help:      "Total credits reserved for generations",
		}),
		CreditsRefunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_refunded_total",
			Help:      "Total credits refunded after failed generations",
		}),
		CreditsPurchased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_purchased_total",
			Help:      "Total credits added through purchases",
		}),
		InferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Duration of individual inference calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		c.GenerationsStarted,
		c.GenerationsCompleted,
		c.GenerationsFailed,
		c.CreditsDebited,
		c.CreditsRefunded,
		c.CreditsPurchased,
		c.InferenceDuration,
	)
	return c
}

// Registry exposes the collector's registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
