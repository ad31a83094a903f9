package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	obs := Observer[struct{}](c)
	m := &transport.Medium[struct{}]{Name: "rock"}
	for i := 0; i < 3; i++ {
		obs.OnStep(&transport.Step[struct{}]{
			Index:  i + 1,
			Length: 0.5,
			Bound:  transport.BoundRange,
			Medium: m,
			State:  transport.NewState(-1, 1, r3.Vec{}, r3.Vec{Z: 1}),
		})
	}
	c.Event(transport.EventMedium)
	c.SetFlux(42)

	if got := testutil.ToFloat64(c.steps.WithLabelValues("range")); got != 3 {
		t.Errorf("expected 3 range steps, got %g", got)
	}
	if got := testutil.ToFloat64(c.distance.WithLabelValues("rock")); got != 1.5 {
		t.Errorf("expected 1.5 m in rock, got %g", got)
	}
	if got := testutil.ToFloat64(c.flux); got != 42 {
		t.Errorf("expected flux 42, got %g", got)
	}

	want := `
# HELP leptrans_events_total Transport calls, by returned event.
# TYPE leptrans_events_total counter
leptrans_events_total{event="medium"} 1
`
	if err := testutil.CollectAndCompare(c.events, strings.NewReader(want)); err != nil {
		t.Error(err)
	}
}

func TestCollectorDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCollector(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCollector(reg); err == nil {
		t.Error("expected a registration conflict")
	}
}
