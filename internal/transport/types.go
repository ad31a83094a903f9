package transport

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/leptrans/internal/tables"
	"gonum.org/v1/gonum/spatial/r3"
)

// State is the particle state. Units: GeV, m, kg/m^2 and m/c for Time,
// which is the proper time.
type State struct {
	Charge    float64
	Kinetic   float64
	Distance  float64
	Grammage  float64
	Time      float64
	Weight    float64
	Survival  float64
	Position  r3.Vec
	Direction r3.Vec
}

// NewState returns a state with unit weight and survival probability.
func NewState(charge, kinetic float64, position, direction r3.Vec) State {
	return State{
		Charge:    charge,
		Kinetic:   kinetic,
		Weight:    1,
		Survival:  1,
		Position:  position,
		Direction: r3.Unit(direction),
	}
}

func (s *State) validate() error {
	vals := []float64{s.Charge, s.Kinetic, s.Distance, s.Grammage, s.Time, s.Weight, s.Survival,
		s.Position.X, s.Position.Y, s.Position.Z, s.Direction.X, s.Direction.Y, s.Direction.Z}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newError(ErrInvalidState, "init", "NaN or Inf in state")
		}
	}
	if s.Kinetic < 0 {
		return newError(ErrInvalidState, "init", "negative kinetic energy %g", s.Kinetic)
	}
	if s.Weight < 0 {
		return newError(ErrInvalidState, "init", "negative weight %g", s.Weight)
	}
	if s.Survival < 0 || s.Survival > 1 {
		return newError(ErrInvalidState, "init", "survival probability %g outside [0, 1]", s.Survival)
	}
	if n := r3.Norm(s.Direction); math.Abs(n-1) > unitTolerance {
		return newError(ErrInvalidState, "init", "direction is not a unit vector (norm %g)", n)
	}
	return nil
}

const unitTolerance = 1e-6

// Locals are the local properties of a medium at the current position.
// A Step <= 0 means the medium is uniform.
type Locals struct {
	Density float64 // kg/m^3
	Magnet  r3.Vec  // T
	Step    float64 // m
}

type LocalsFunc[U any] func(ctx *Context[U], m *Medium[U], s *State) Locals

// Medium binds a material of the physics tables to a locals callback.
// Media are compared by identity.
type Medium[U any] struct {
	Name     string
	Material int
	Locals   LocalsFunc[U]
}

// Resolver returns the medium at the state position, or nil outside of the
// simulated volume, together with a proposed step to the next boundary.
// A proposal <= 0 imposes no bound.
type Resolver[U any] interface {
	Medium(ctx *Context[U], s *State) (*Medium[U], float64)
}

type ResolverFunc[U any] func(ctx *Context[U], s *State) (*Medium[U], float64)

func (f ResolverFunc[U]) Medium(ctx *Context[U], s *State) (*Medium[U], float64) {
	return f(ctx, s)
}

// Random returns uniform variates in [0, 1). *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// Physics is the read-only view of the tables used by the stepper.
// *tables.Table implements it.
type Physics interface {
	Mass() float64
	CTau() float64
	NumMaterials() int
	KineticRange() (float64, float64)
	StoppingPower(loss tables.Loss, material int, kinetic float64) float64
	Grammage(loss tables.Loss, material int, kinetic float64) float64
	KineticFromGrammage(loss tables.Loss, material int, grammage float64) float64
	ProperTime(loss tables.Loss, material int, kinetic float64) float64
	KineticFromTime(loss tables.Loss, material int, time float64) float64
	MaxGrammage(loss tables.Loss, material int) float64
	MaxProperTime(loss tables.Loss, material int) float64
	CrossSection(material int, kinetic float64) float64
	SampleLoss(material int, kinetic, u float64) float64
	AdjointCrossSection(material int, kinetic float64) float64
	SampleGain(material int, kinetic, u float64) float64
	Scattering(material int, kinetic float64) float64
	Straggling(material int, kinetic float64) float64
}

type Scheme int

const (
	// SchemeStraight is the continuous slowing down approximation along
	// straight lines.
	SchemeStraight Scheme = iota
	// SchemeHybrid mixes restricted continuous losses with sampled hard
	// losses.
	SchemeHybrid
	// SchemeDetailed adds soft loss straggling and transverse transport to
	// the hybrid scheme.
	SchemeDetailed
)

func (s Scheme) String() string {
	switch s {
	case SchemeStraight:
		return "straight"
	case SchemeHybrid:
		return "hybrid"
	case SchemeDetailed:
		return "detailed"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case "straight", "csda":
		return SchemeStraight, nil
	case "hybrid", "mixed":
		return SchemeHybrid, nil
	case "detailed":
		return SchemeDetailed, nil
	}
	return 0, fmt.Errorf("%w: unknown scheme %q", ErrConfiguration, name)
}

type Mode int

const (
	Forward Mode = iota
	Backward
)

func (m Mode) String() string {
	switch m {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, name)
}

// DecayMode selects how the finite lifetime of the species is handled.
type DecayMode int

const (
	DecayNone DecayMode = iota
	// DecayWeight multiplies the weight by the survival probability.
	DecayWeight
	// DecayProcess samples the decay point. Forward only.
	DecayProcess
)

func (d DecayMode) String() string {
	switch d {
	case DecayNone:
		return "none"
	case DecayWeight:
		return "weight"
	case DecayProcess:
		return "process"
	}
	return fmt.Sprintf("decay(%d)", int(d))
}

func ParseDecay(name string) (DecayMode, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return DecayNone, nil
	case "weight":
		return DecayWeight, nil
	case "process":
		return DecayProcess, nil
	}
	return 0, fmt.Errorf("%w: unknown decay mode %q", ErrConfiguration, name)
}

// Event tells why a transport call returned. Values are single bits so that
// a set of events can be enabled with a mask.
type Event uint

const (
	EventNone          Event = 0
	EventMedium        Event = 1 << 0
	EventLimitKinetic  Event = 1 << 1
	EventLimitDistance Event = 1 << 2
	EventLimitTime     Event = 1 << 3
	EventDecay         Event = 1 << 4
	EventWeight        Event = 1 << 5

	allEvents = EventMedium | EventLimitKinetic | EventLimitDistance | EventLimitTime | EventDecay | EventWeight
)

var eventNames = []struct {
	ev   Event
	name string
}{
	{EventMedium, "medium"},
	{EventLimitKinetic, "limit_kinetic"},
	{EventLimitDistance, "limit_distance"},
	{EventLimitTime, "limit_time"},
	{EventDecay, "decay"},
	{EventWeight, "weight"},
}

func (e Event) String() string {
	if e == EventNone {
		return "none"
	}
	var parts []string
	for _, n := range eventNames {
		if e&n.ev != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := e &^ allEvents; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseEvents parses a list of event names into a mask.
func ParseEvents(names []string) (Event, error) {
	var mask Event
	for _, name := range names {
		found := false
		for _, n := range eventNames {
			if n.name == strings.ToLower(name) {
				mask |= n.ev
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown event %q", ErrConfiguration, name)
		}
	}
	return mask, nil
}

// Result is the outcome of a transport call. Media[0] is the medium the
// particle was travelling in when the call ended, Media[1] the medium at
// its final position. Either is nil outside of the simulated volume.
type Result[U any] struct {
	Event Event
	Media [2]*Medium[U]
}

// Bound names the constraint that limited a step.
type Bound int

const (
	BoundNone Bound = iota
	BoundGeometry
	BoundLocals
	BoundDistance
	BoundTime
	BoundKinetic
	BoundRange
	BoundDecay
	BoundInteraction
	BoundEnergyLoss
	BoundScattering
	BoundMagnetic
	BoundExtent
)

func (b Bound) String() string {
	names := [...]string{"none", "geometry", "locals", "distance", "time", "kinetic", "range",
		"decay", "interaction", "energy_loss", "scattering", "magnetic", "extent"}
	if b < 0 || int(b) >= len(names) {
		return fmt.Sprintf("bound(%d)", int(b))
	}
	return names[b]
}

// Step describes one elementary step, as seen by an Observer.
type Step[U any] struct {
	Index    int
	Length   float64
	Bound    Bound
	Geometry float64 // resolver proposal for this step
	Locals   Locals
	Medium   *Medium[U]
	State    State // after the step
}

type Observer[U any] interface {
	OnStep(step *Step[U])
}

type ObserverFunc[U any] func(step *Step[U])

func (f ObserverFunc[U]) OnStep(step *Step[U]) { f(step) }
