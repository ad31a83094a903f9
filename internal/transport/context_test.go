package transport

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewContextNilPhysics(t *testing.T) {
	if _, err := NewContext[none](nil, none{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	geo, _, _ := rockAir()
	tests := []struct {
		name   string
		mutate func(c *Context[none])
		ok     bool
	}{
		{"defaults", func(c *Context[none]) {}, true},
		{"bad scheme", func(c *Context[none]) { c.Scheme = 7 }, false},
		{"bad mode", func(c *Context[none]) { c.Mode = 3 }, false},
		{"bad decay", func(c *Context[none]) { c.Decay = -1 }, false},
		{"no resolver", func(c *Context[none]) { c.Medium = nil }, false},
		{"straight without random", func(c *Context[none]) { c.Random = nil }, true},
		{"detailed without random", func(c *Context[none]) { c.Random = nil; c.Scheme = SchemeDetailed }, false},
		{"decay process backward", func(c *Context[none]) { c.Decay = DecayProcess; c.Mode = Backward }, false},
		{"zero extent", func(c *Context[none]) { c.Extent = 0 }, false},
		{"infinite extent", func(c *Context[none]) { c.Extent = math.Inf(1) }, false},
		{"zero ratio", func(c *Context[none]) { c.Accuracy.Scattering = 0 }, false},
		{"zero boundary", func(c *Context[none]) { c.Accuracy.Boundary = 0 }, false},
		{"negative limit", func(c *Context[none]) { c.Limit.Distance = -1 }, false},
		{"unknown event", func(c *Context[none]) { c.Events = 1 << 9 }, false},
		{"kinetic event without limit", func(c *Context[none]) { c.Events = EventLimitKinetic }, false},
		{"kinetic event", func(c *Context[none]) { c.Events = EventLimitKinetic; c.Limit.Kinetic = 1 }, true},
		{"decay event without process", func(c *Context[none]) { c.Events = EventDecay }, false},
		{"short priority", func(c *Context[none]) { c.Priority = c.Priority[:3] }, false},
		{"duplicate priority", func(c *Context[none]) { c.Priority[1] = EventMedium }, false},
		{"composite priority", func(c *Context[none]) { c.Priority[0] = EventMedium | EventDecay }, false},
		{"zero steps", func(c *Context[none]) { c.MaxSteps = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, muonPhysics(t), geo)
			tt.mutate(ctx)
			err := ctx.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestDecayRequiresLifetime(t *testing.T) {
	geo, _, _ := rockAir()
	ctx := newTestContext(t, muonPhysics(t), geo)
	ctx.Decay = DecayWeight
	if err := ctx.Validate(); err != nil {
		t.Errorf("muons have a finite lifetime: %v", err)
	}
}

func TestClose(t *testing.T) {
	geo, _, _ := rockAir()
	ctx := newTestContext(t, muonPhysics(t), geo)
	var sunk error
	ctx.OnError = func(e *Error) { sunk = e }
	ctx.Close()

	s := upward(1)
	_, err := ctx.Transport(&s)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if sunk != err {
		t.Errorf("error sink got %v", sunk)
	}
	if !ctx.Closed() {
		t.Error("expected the context to report closed")
	}
}

func TestClone(t *testing.T) {
	geo, _, _ := rockAir()
	ctx := newTestContext(t, muonPhysics(t), geo)
	ctx.Scheme = SchemeHybrid

	type tally struct{ n int }
	parent, err := NewContext[*tally](ctx.Physics(), &tally{})
	if err != nil {
		t.Fatal(err)
	}
	child := parent.Clone(&tally{n: 3})
	child.Priority[0] = EventWeight

	if parent.Priority[0] != EventMedium {
		t.Error("clone shares the priority slice with its parent")
	}
	if child.UserData.n != 3 || parent.UserData.n != 0 {
		t.Errorf("unexpected user data: parent %d, child %d", parent.UserData.n, child.UserData.n)
	}
	if child.Physics() != parent.Physics() {
		t.Error("clone should share the physics tables")
	}
	if child.rk4 == parent.rk4 {
		t.Error("clone should own its integrator scratch")
	}
}

func TestInvalidState(t *testing.T) {
	geo, _, _ := rockAir()
	tests := []struct {
		name  string
		state State
	}{
		{"non unit direction", State{Kinetic: 1, Weight: 1, Survival: 1, Direction: r3.Vec{Z: 2}}},
		{"negative kinetic", State{Kinetic: -1, Weight: 1, Survival: 1, Direction: r3.Vec{Z: 1}}},
		{"negative weight", State{Kinetic: 1, Weight: -1, Survival: 1, Direction: r3.Vec{Z: 1}}},
		{"nan position", State{Kinetic: 1, Weight: 1, Survival: 1, Position: r3.Vec{X: math.NaN()}, Direction: r3.Vec{Z: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, muonPhysics(t), geo)
			s := tt.state
			if _, err := ctx.Transport(&s); !errors.Is(err, ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})
	}
}

func TestCollaboratorErrors(t *testing.T) {
	tests := []struct {
		name     string
		material int
		locals   Locals
		want     error
	}{
		{"negative density", 0, Locals{Density: -1}, ErrDensity},
		{"nan density", 0, Locals{Density: math.NaN()}, ErrDensity},
		{"infinite field", 0, Locals{Density: 1, Magnet: r3.Vec{Y: math.Inf(1)}}, ErrMagnet},
		{"unknown material", 5, Locals{Density: 1}, ErrMaterial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := tt.locals
			m := &Medium[none]{Name: "bad", Material: tt.material, Locals: func(*Context[none], *Medium[none], *State) Locals {
				return loc
			}}
			ctx := newTestContext(t, muonPhysics(t), infinite(m))
			var sunk []*Error
			ctx.OnError = func(e *Error) { sunk = append(sunk, e) }

			s := upward(10)
			before := s
			res, err := ctx.Transport(&s)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var te *Error
			if !errors.As(err, &te) || te.Op != "locals" || te.Step != 1 {
				t.Errorf("expected a typed locals error at step 1, got %#v", err)
			}
			if len(sunk) != 1 || sunk[0] != te {
				t.Errorf("expected the error to be sunk once, got %v", sunk)
			}
			if s != before {
				t.Error("state should be left at the last valid point")
			}
			if res.Event != EventNone || res.Media[0] != m {
				t.Errorf("unexpected result %v %v", res.Event, res.Media)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if s, err := ParseScheme("Detailed"); err != nil || s != SchemeDetailed {
		t.Errorf("expected detailed, got %v (%v)", s, err)
	}
	if _, err := ParseScheme("fancy"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if m, err := ParseMode("backward"); err != nil || m != Backward {
		t.Errorf("expected backward, got %v (%v)", m, err)
	}
	if d, err := ParseDecay(""); err != nil || d != DecayNone {
		t.Errorf("expected no decay, got %v (%v)", d, err)
	}

	mask, err := ParseEvents([]string{"medium", "limit_kinetic"})
	if err != nil {
		t.Fatal(err)
	}
	if mask != EventMedium|EventLimitKinetic {
		t.Errorf("unexpected mask %v", mask)
	}
	if got := mask.String(); got != "medium|limit_kinetic" {
		t.Errorf("unexpected string %q", got)
	}
	if _, err := ParseEvents([]string{"boom"}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if EventNone.String() != "none" {
		t.Errorf("unexpected string %q", EventNone.String())
	}
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Code: ErrDensity, Op: "locals", Step: 4, Message: "density -1"}
	want := "transport: invalid density: locals (step 4): density -1"
	if e.Error() != want {
		t.Errorf("expected %q, got %q", want, e.Error())
	}
}
