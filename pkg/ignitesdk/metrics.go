package ignitesdk

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the refresh interceptor's activity.
type Metrics struct {
	// Refreshes counts refresh exchanges by outcome ("success" or "failure")
	Refreshes *prometheus.CounterVec

	// Queued counts 401s that waited on an exchange already in flight
	Queued prometheus.Counter

	// Replayed counts requests sent again after a refresh
	Replayed prometheus.Counter
}

// NewMetrics creates the interceptor metrics and registers them with reg.
// A nil reg leaves them unregistered. Registering twice with the same
// registry reuses the collectors already there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ignite",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Token refresh exchanges by outcome.",
		}, []string{"outcome"}),
		Queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ignite",
			Subsystem: "client",
			Name:      "refresh_queued_total",
			Help:      "Unauthorized requests queued behind an in-flight refresh.",
		}),
		Replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ignite",
			Subsystem: "client",
			Name:      "requests_replayed_total",
			Help:      "Requests replayed after a token refresh.",
		}),
	}

	if reg != nil {
		m.Refreshes = register(reg, m.Refreshes)
		m.Queued = register(reg, m.Queued)
		m.Replayed = register(reg, m.Replayed)
	}

	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}
