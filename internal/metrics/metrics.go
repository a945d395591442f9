// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes h2sr's Prometheus counters: connections
// handled by routing decision, upstream dial errors by route, and
// hostname resolution failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds h2sr's Prometheus metrics.
type Collector struct {
	Connections *prometheus.CounterVec
	DialErrors  *prometheus.CounterVec
	ResolveFail prometheus.Counter
}

// New creates a Collector with its metrics registered against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// registry across parallel test binaries.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2sr_connections_total",
			Help: "Total number of connections handled, by routing decision.",
		}, []string{"decision"}),
		DialErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2sr_dial_errors_total",
			Help: "Total number of upstream dial failures, by route.",
		}, []string{"route"}),
		ResolveFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "h2sr_resolve_failures_total",
			Help: "Total number of hostname resolution failures.",
		}),
	}
	reg.MustRegister(c.Connections, c.DialErrors, c.ResolveFail)
	return c
}

// ObserveDecision increments the connection counter for decision.
func (c *Collector) ObserveDecision(decision string) {
	if c == nil {
		return
	}
	c.Connections.WithLabelValues(decision).Inc()
}

// ObserveDialError increments the dial-error counter for route ("direct"
// or "socks5").
func (c *Collector) ObserveDialError(route string) {
	if c == nil {
		return
	}
	c.DialErrors.WithLabelValues(route).Inc()
}

// ObserveResolveFailure increments the resolution-failure counter.
func (c *Collector) ObserveResolveFailure() {
	if c == nil {
		return
	}
	c.ResolveFail.Inc()
}
