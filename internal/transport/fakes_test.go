package transport

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/san-kum/leptrans/internal/tables"
	"gonum.org/v1/gonum/spatial/r3"
)

type none = struct{}

const rockDensity = 2650.0

var (
	muonOnce  sync.Once
	muonTable *tables.Table
	tauOnce   sync.Once
	tauTable  *tables.Table
)

// muonPhysics returns shared tables for StandardRock (0) and Air (1).
func muonPhysics(t testing.TB) *tables.Table {
	t.Helper()
	muonOnce.Do(func() {
		tbl, err := tables.Build(tables.Muon(), []tables.MaterialDef{tables.StandardRock(), tables.Air()}, tables.DefaultOptions())
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		muonTable = tbl
	})
	return muonTable
}

func tauPhysics(t testing.TB) *tables.Table {
	t.Helper()
	tauOnce.Do(func() {
		tbl, err := tables.Build(tables.Tau(), []tables.MaterialDef{tables.StandardRock()}, tables.DefaultOptions())
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		tauTable = tbl
	})
	return tauTable
}

func uniform(rho float64) LocalsFunc[none] {
	return func(*Context[none], *Medium[none], *State) Locals {
		return Locals{Density: rho}
	}
}

// layers is a stack of horizontal slabs starting at z = 0. Media are
// looked up on half-open intervals [bottom, top) and no step is proposed,
// so boundaries are found by the stepper itself.
type layers struct {
	media []*Medium[none]
	tops  []float64
	calls int
}

func (l *layers) Medium(_ *Context[none], s *State) (*Medium[none], float64) {
	l.calls++
	z := s.Position.Z
	if z < 0 {
		return nil, 0
	}
	for i, top := range l.tops {
		if z < top {
			return l.media[i], 0
		}
	}
	return nil, 0
}

func rockAir() (*layers, *Medium[none], *Medium[none]) {
	rock := &Medium[none]{Name: "rock", Material: 0, Locals: uniform(rockDensity)}
	air := &Medium[none]{Name: "air", Material: 1, Locals: uniform(1.205)}
	return &layers{media: []*Medium[none]{rock, air}, tops: []float64{5, 100}}, rock, air
}

// pushed proposes the distance to the next layer boundary plus a small
// push past it.
type pushed struct {
	*layers
	push float64
}

func (p pushed) Medium(ctx *Context[none], s *State) (*Medium[none], float64) {
	m, _ := p.layers.Medium(ctx, s)
	if m == nil {
		return nil, 0
	}
	z, uz := s.Position.Z, ctx.Heading()*s.Direction.Z
	lo := 0.0
	for _, top := range p.tops {
		if z < top {
			switch {
			case uz > 0:
				return m, (top-z)/uz + p.push
			case uz < 0:
				return m, (lo-z)/uz + p.push
			}
			return m, 0
		}
		lo = top
	}
	return m, 0
}

func infinite(m *Medium[none]) Resolver[none] {
	return ResolverFunc[none](func(*Context[none], *State) (*Medium[none], float64) {
		return m, 0
	})
}

func newTestContext(t testing.TB, phys Physics, resolver Resolver[none]) *Context[none] {
	t.Helper()
	ctx, err := NewContext[none](phys, none{})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	ctx.Scheme = SchemeStraight
	ctx.Medium = resolver
	ctx.Random = rand.New(rand.NewPCG(1, 2))
	return ctx
}

func upward(k float64) State {
	return NewState(-1, k, r3.Vec{}, r3.Vec{Z: 1})
}

// recorder collects steps for assertions.
type recorder struct {
	steps []Step[none]
}

func (r *recorder) OnStep(s *Step[none]) {
	r.steps = append(r.steps, *s)
}
