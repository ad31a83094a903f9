package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

func sample(k, length float64, dir r3.Vec, bound transport.Bound) Sample {
	return Sample{
		Length: length,
		Bound:  bound,
		Medium: "rock",
		State:  transport.NewState(-1, k, r3.Vec{}, dir),
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	m.Observe(sample(10, 1, r3.Vec{Z: 1}, transport.BoundNone))
	m.Observe(sample(8, 1, r3.Vec{Z: 1}, transport.BoundNone))
	m.Observe(sample(9, 1, r3.Vec{Z: 1}, transport.BoundNone))

	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected drift 0.2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestMeanStep(t *testing.T) {
	m := NewMeanStep()
	if m.Value() != 0 {
		t.Error("expected zero without samples")
	}
	for _, l := range []float64{1, 2, 3} {
		m.Observe(sample(1, l, r3.Vec{Z: 1}, transport.BoundNone))
	}
	if m.Value() != 2 {
		t.Errorf("expected mean 2, got %f", m.Value())
	}
}

func TestDeflection(t *testing.T) {
	m := NewDeflection()
	m.Observe(sample(1, 1, r3.Vec{Z: 1}, transport.BoundNone))
	m.Observe(sample(1, 1, r3.Vec{X: 1}, transport.BoundNone))
	if math.Abs(m.Value()-math.Pi/2) > 1e-12 {
		t.Errorf("expected pi/2, got %f", m.Value())
	}
}

func TestBoundShare(t *testing.T) {
	m := NewBoundShare(transport.BoundGeometry)
	if m.Name() != "share_geometry" {
		t.Errorf("unexpected name %q", m.Name())
	}
	m.Observe(sample(1, 1, r3.Vec{Z: 1}, transport.BoundGeometry))
	m.Observe(sample(1, 1, r3.Vec{Z: 1}, transport.BoundRange))
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestSetAndMulti(t *testing.T) {
	set := NewSet[struct{}](NewMeanStep(), NewEnergyDrift())
	track := NewTrack[struct{}](0)
	obs := Multi[struct{}](set, track, nil)

	m := &transport.Medium[struct{}]{Name: "rock"}
	for i, k := range []float64{10, 5} {
		obs.OnStep(&transport.Step[struct{}]{
			Index:  i + 1,
			Length: 2,
			Medium: m,
			State:  transport.NewState(-1, k, r3.Vec{Z: float64(i)}, r3.Vec{Z: 1}),
		})
	}

	values := set.Values()
	if values["mean_step"] != 2 || values["energy_drift"] != 0.5 {
		t.Errorf("unexpected values %v", values)
	}
	if len(track.Points) != 2 || track.Points[1].Medium != "rock" || track.Points[1].Z != 1 {
		t.Errorf("unexpected track %+v", track.Points)
	}

	set.Reset()
	if set.Values()["mean_step"] != 0 {
		t.Error("expected reset metrics")
	}
}

func TestTrackLimit(t *testing.T) {
	track := NewTrack[struct{}](3)
	track.Start(transport.NewState(-1, 1, r3.Vec{}, r3.Vec{Z: 1}))
	for i := 0; i < 5; i++ {
		track.OnStep(&transport.Step[struct{}]{Index: i + 1, State: transport.NewState(-1, 1, r3.Vec{}, r3.Vec{Z: 1})})
	}
	if len(track.Points) != 3 {
		t.Errorf("expected 3 points, got %d", len(track.Points))
	}
	if got := track.Series(func(p Point) float64 { return float64(p.Step) }); got[2] != 2 {
		t.Errorf("unexpected step numbers %v", got)
	}
}
