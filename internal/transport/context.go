package transport

import (
	"math"

	"github.com/san-kum/leptrans/internal/integrators"
)

// Limits stop the transport when reached, if the matching event is
// enabled. A zero value disables the limit, except for Weight.
type Limits struct {
	Kinetic  float64 // GeV
	Distance float64 // m
	Time     float64 // m/c
	Weight   float64
}

// Accuracy holds the step size control parameters. The ratios bound the
// relative change of a quantity over a single step.
type Accuracy struct {
	EnergyLoss float64
	Scattering float64
	Magnetic   float64
	Boundary   float64 // m, resolution of boundary crossings
}

func DefaultAccuracy() Accuracy {
	return Accuracy{
		EnergyLoss: 1e-2,
		Scattering: 1e-2,
		Magnetic:   1e-2,
		Boundary:   1e-7,
	}
}

// DefaultPriority is the order in which simultaneous events are reported.
func DefaultPriority() []Event {
	return []Event{EventMedium, EventDecay, EventLimitKinetic, EventLimitDistance, EventLimitTime, EventWeight}
}

const (
	defaultExtent   = 1e8
	defaultMaxSteps = 1 << 22
)

// Context holds the configuration of a simulation stream and its user
// data. The exported fields may be changed between calls to Transport.
type Context[U any] struct {
	Scheme       Scheme
	Mode         Mode
	Decay        DecayMode
	Longitudinal bool // straight steps in hybrid mode
	Strict       bool // fail instead of clamping outside the tables

	Events   Event
	Limit    Limits
	Accuracy Accuracy
	Priority []Event

	// Extent caps the step length when nothing else bounds it.
	Extent   float64
	MaxSteps int

	Medium   Resolver[U]
	Random   Random
	Observer Observer[U]
	OnError  func(err *Error)

	UserData U

	physics Physics
	rk4     *integrators.RK4
	closed  bool
}

func NewContext[U any](physics Physics, user U) (*Context[U], error) {
	if physics == nil {
		return nil, newError(ErrConfiguration, "new", "nil physics tables")
	}
	return &Context[U]{
		Scheme:   SchemeDetailed,
		Mode:     Forward,
		Accuracy: DefaultAccuracy(),
		Priority: DefaultPriority(),
		Extent:   defaultExtent,
		MaxSteps: defaultMaxSteps,
		UserData: user,
		physics:  physics,
		rk4:      integrators.NewRK4(),
	}, nil
}

// Clone returns an independent copy sharing the physics tables. The
// resolver, random source and observer are shared too and should be
// replaced when the clone runs on another goroutine.
func (c *Context[U]) Clone(user U) *Context[U] {
	cp := *c
	cp.Priority = append([]Event(nil), c.Priority...)
	cp.UserData = user
	cp.rk4 = integrators.NewRK4()
	return &cp
}

func (c *Context[U]) Physics() Physics { return c.physics }

// Close releases the context. Further transport calls fail with ErrClosed.
func (c *Context[U]) Close() {
	c.closed = true
	c.physics = nil
}

func (c *Context[U]) Closed() bool { return c.closed }

// Heading is +1 in forward mode and -1 in backward mode.
func (c *Context[U]) Heading() float64 {
	if c.Mode == Backward {
		return -1
	}
	return 1
}

// Validate checks the configuration for consistency.
func (c *Context[U]) Validate() error {
	if c.closed {
		return newError(ErrClosed, "validate", "context is closed")
	}
	bad := func(format string, args ...any) error {
		return newError(ErrConfiguration, "validate", format, args...)
	}
	switch {
	case c.Scheme < SchemeStraight || c.Scheme > SchemeDetailed:
		return bad("unknown scheme %d", int(c.Scheme))
	case c.Mode != Forward && c.Mode != Backward:
		return bad("unknown mode %d", int(c.Mode))
	case c.Decay < DecayNone || c.Decay > DecayProcess:
		return bad("unknown decay mode %d", int(c.Decay))
	case c.Decay == DecayProcess && c.Mode == Backward:
		return bad("decay process requires forward mode")
	case c.Decay != DecayNone && !(c.physics.CTau() > 0):
		return bad("decay requires a finite lifetime")
	case c.Medium == nil:
		return bad("no medium resolver")
	case c.Random == nil && (c.Scheme != SchemeStraight || c.Decay == DecayProcess):
		return bad("%s scheme with %s decay requires a random source", c.Scheme, c.Decay)
	case c.Events&^allEvents != 0:
		return bad("unknown event bits 0x%x", uint(c.Events&^allEvents))
	case !positive(c.Extent):
		return bad("extent must be positive, got %g", c.Extent)
	case c.MaxSteps <= 0:
		return bad("max steps must be positive, got %d", c.MaxSteps)
	case !positive(c.Accuracy.EnergyLoss) || !positive(c.Accuracy.Scattering) || !positive(c.Accuracy.Magnetic):
		return bad("accuracy ratios must be positive")
	case !positive(c.Accuracy.Boundary):
		return bad("boundary accuracy must be positive, got %g", c.Accuracy.Boundary)
	case c.Limit.Kinetic < 0 || c.Limit.Distance < 0 || c.Limit.Time < 0 || c.Limit.Weight < 0:
		return bad("limits must not be negative")
	}
	if c.Events&EventLimitKinetic != 0 && c.Limit.Kinetic <= 0 {
		return bad("kinetic limit enabled without a value")
	}
	if c.Events&EventLimitDistance != 0 && c.Limit.Distance <= 0 {
		return bad("distance limit enabled without a value")
	}
	if c.Events&EventLimitTime != 0 && c.Limit.Time <= 0 {
		return bad("time limit enabled without a value")
	}
	if c.Events&EventDecay != 0 && c.Decay != DecayProcess {
		return bad("decay event requires the decay process")
	}
	return checkPriority(c.Priority)
}

func checkPriority(p []Event) error {
	if len(p) != len(eventNames) {
		return newError(ErrConfiguration, "validate", "priority must list %d events, got %d", len(eventNames), len(p))
	}
	var seen Event
	for _, ev := range p {
		if ev&allEvents == 0 || ev&(ev-1) != 0 || seen&ev != 0 {
			return newError(ErrConfiguration, "validate", "priority is not a permutation of the events: %v", p)
		}
		seen |= ev
	}
	return nil
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

func (c *Context[U]) fail(err *Error) error {
	if c.OnError != nil {
		c.OnError(err)
	}
	return err
}
