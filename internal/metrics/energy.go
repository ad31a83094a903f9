package metrics

import (
	"math"

	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

// EnergyDrift is the largest relative change of the kinetic energy since
// the first observed step.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s Sample) {
	k := s.State.Kinetic
	if e.samples == 0 {
		e.initial = k
	}
	e.samples++
	if e.initial != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(k-e.initial)/e.initial)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// MeanStep is the average step length.
type MeanStep struct {
	name    string
	sum     float64
	samples int
}

func NewMeanStep() *MeanStep {
	return &MeanStep{name: "mean_step"}
}

func (m *MeanStep) Name() string { return m.name }

func (m *MeanStep) Observe(s Sample) {
	m.sum += s.Length
	m.samples++
}

func (m *MeanStep) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanStep) Reset() {
	m.sum = 0
	m.samples = 0
}

// Deflection is the angle, in rad, between the first observed direction and
// the current one.
type Deflection struct {
	name    string
	initial r3.Vec
	current r3.Vec
	samples int
}

func NewDeflection() *Deflection {
	return &Deflection{name: "deflection"}
}

func (d *Deflection) Name() string { return d.name }

func (d *Deflection) Observe(s Sample) {
	if d.samples == 0 {
		d.initial = s.State.Direction
	}
	d.current = s.State.Direction
	d.samples++
}

func (d *Deflection) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	c := r3.Dot(d.initial, d.current)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

func (d *Deflection) Reset() {
	d.initial = r3.Vec{}
	d.current = r3.Vec{}
	d.samples = 0
}

// BoundShare is the fraction of steps limited by a given constraint.
type BoundShare struct {
	name    string
	bound   transport.Bound
	hits    int
	samples int
}

func NewBoundShare(b transport.Bound) *BoundShare {
	return &BoundShare{name: "share_" + b.String(), bound: b}
}

func (b *BoundShare) Name() string { return b.name }

func (b *BoundShare) Observe(s Sample) {
	b.samples++
	if s.Bound == b.bound {
		b.hits++
	}
}

func (b *BoundShare) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.hits) / float64(b.samples)
}

func (b *BoundShare) Reset() {
	b.hits = 0
	b.samples = 0
}
