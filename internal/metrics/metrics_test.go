// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	if err := (<-ch).Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveDecisionIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveDecision("block")
	c.ObserveDecision("block")
	c.ObserveDecision("direct")

	if v := counterValue(t, c.Connections.WithLabelValues("block")); v != 2 {
		t.Errorf("block counter = %v, want 2", v)
	}
	if v := counterValue(t, c.Connections.WithLabelValues("direct")); v != 1 {
		t.Errorf("direct counter = %v, want 1", v)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveDecision("block")
	c.ObserveDialError("direct")
	c.ObserveResolveFailure()
}
