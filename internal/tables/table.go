// Package tables holds the tabulated energy loss data of one lepton species
// in a set of materials.
//
// A [Table] is built once and is read-only afterwards: it is safe to share
// between any number of goroutines and transport contexts.
package tables

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var (
	ErrMaterial = errors.New("tables: unknown material")
	ErrDef      = errors.New("tables: invalid material definition")
	ErrOptions  = errors.New("tables: invalid options")
)

// Loss selects the continuous energy loss model.
type Loss int

const (
	// CSDA is the total mean energy loss.
	CSDA Loss = iota
	// Restricted is the soft part of the loss, below the hard cutoff.
	Restricted
)

func (l Loss) String() string {
	switch l {
	case CSDA:
		return "csda"
	case Restricted:
		return "restricted"
	}
	return fmt.Sprintf("loss(%d)", int(l))
}

// Options controls the tabulation grid.
type Options struct {
	Cutoff     float64 // relative energy transfer above which losses are discrete
	KineticMin float64 // GeV, first non-zero grid node
	KineticMax float64 // GeV
	Points     int
}

func DefaultOptions() Options {
	return Options{
		Cutoff:     0.05,
		KineticMin: 1e-4,
		KineticMax: 1e6,
		Points:     401,
	}
}

type curves struct {
	grammage interp.PiecewiseLinear // X(K)
	kinetic  interp.PiecewiseLinear // K(X)
	time     interp.PiecewiseLinear // T(K)
	fromTime interp.PiecewiseLinear // K(T)
	xmax     float64
	tmax     float64
}

type material struct {
	def    MaterialDef
	curves [2]curves
}

type Table struct {
	species   Species
	cutoff    float64
	grid      []float64
	materials []material
	index     map[string]int
}

// Build tabulates the range and proper time integrals of every material.
func Build(sp Species, defs []MaterialDef, opts Options) (*Table, error) {
	if sp.Mass <= 0 {
		return nil, fmt.Errorf("%w: species %q has mass %g", ErrOptions, sp.Name, sp.Mass)
	}
	if opts.Cutoff <= 0 || opts.Cutoff >= 1 {
		return nil, fmt.Errorf("%w: cutoff must be in (0, 1), got %g", ErrOptions, opts.Cutoff)
	}
	if opts.KineticMin <= 0 || opts.KineticMax <= opts.KineticMin {
		return nil, fmt.Errorf("%w: kinetic range [%g, %g]", ErrOptions, opts.KineticMin, opts.KineticMax)
	}
	if opts.Points < 3 {
		return nil, fmt.Errorf("%w: need at least 3 points, got %d", ErrOptions, opts.Points)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no materials", ErrDef)
	}

	grid := make([]float64, opts.Points)
	floats.LogSpan(grid[1:], opts.KineticMin, opts.KineticMax)

	t := &Table{
		species:   sp,
		cutoff:    opts.Cutoff,
		grid:      grid,
		materials: make([]material, len(defs)),
		index:     make(map[string]int, len(defs)),
	}

	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: material #%d has no name", ErrDef, i)
		}
		if _, dup := t.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate material %q", ErrDef, d.Name)
		}
		if d.Ionisation <= 0 || d.Radiative < 0 || d.RadiationLength <= 0 {
			return nil, fmt.Errorf("%w: %q needs A > 0, B >= 0, X0 > 0", ErrDef, d.Name)
		}
		t.index[d.Name] = i
		t.materials[i].def = d
		for _, loss := range []Loss{CSDA, Restricted} {
			c, err := t.tabulate(d, loss)
			if err != nil {
				return nil, fmt.Errorf("tables: %s (%s): %w", d.Name, loss, err)
			}
			t.materials[i].curves[loss] = c
		}
	}
	return t, nil
}

// tabulate integrates 1/S and m/(p S) with a trapezoid rule, starting
// from K = 0 where both integrands vanish.
func (t *Table) tabulate(d MaterialDef, loss Loss) (curves, error) {
	n := len(t.grid)
	x := make([]float64, n)
	tm := make([]float64, n)

	m := t.species.Mass
	f := t.radiativeFraction(loss)
	inv := func(k float64) (float64, float64) {
		if k <= 0 {
			return 0, 0
		}
		e := k + m
		p2 := k * (k + 2*m)
		beta2 := p2 / (e * e)
		den := d.Ionisation + d.Radiative*f*e*beta2
		return beta2 / den, m * math.Sqrt(p2) / (e * e * den)
	}

	g0, h0 := inv(t.grid[0])
	for i := 1; i < n; i++ {
		g1, h1 := inv(t.grid[i])
		dk := 0.5 * (t.grid[i] - t.grid[i-1])
		x[i] = x[i-1] + dk*(g0+g1)
		tm[i] = tm[i-1] + dk*(h0+h1)
		g0, h0 = g1, h1
	}

	var c curves
	if err := c.grammage.Fit(t.grid, x); err != nil {
		return c, err
	}
	if err := c.kinetic.Fit(x, t.grid); err != nil {
		return c, err
	}
	if err := c.time.Fit(t.grid, tm); err != nil {
		return c, err
	}
	if err := c.fromTime.Fit(tm, t.grid); err != nil {
		return c, err
	}
	c.xmax = x[n-1]
	c.tmax = tm[n-1]
	return c, nil
}

func (t *Table) radiativeFraction(loss Loss) float64 {
	if loss == Restricted {
		return t.cutoff
	}
	return 1
}

func (t *Table) Species() Species { return t.species }
func (t *Table) Mass() float64 { return t.species.Mass }
func (t *Table) CTau() float64 { return t.species.CTau }
func (t *Table) Cutoff() float64 { return t.cutoff }
func (t *Table) NumMaterials() int { return len(t.materials) }
func (t *Table) KineticMax() float64 { return t.grid[len(t.grid)-1] }
func (t *Table) KineticNodes() []float64 { return append([]float64(nil), t.grid...) }

// KineticRange returns the lowest non-zero and the highest tabulated
// kinetic energies.
func (t *Table) KineticRange() (float64, float64) {
	return t.grid[1], t.grid[len(t.grid)-1]
}

func (t *Table) MaterialIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrMaterial, name)
	}
	return i, nil
}

func (t *Table) MaterialName(id int) (string, error) {
	if id < 0 || id >= len(t.materials) {
		return "", fmt.Errorf("%w: index %d", ErrMaterial, id)
	}
	return t.materials[id].def.Name, nil
}

func (t *Table) Material(id int) (MaterialDef, error) {
	if id < 0 || id >= len(t.materials) {
		return MaterialDef{}, fmt.Errorf("%w: index %d", ErrMaterial, id)
	}
	return t.materials[id].def, nil
}

// StoppingPower returns dE/dX in GeV m^2/kg. It is evaluated from the
// parameterisation, with K floored to the first grid node.
func (t *Table) StoppingPower(loss Loss, id int, k float64) float64 {
	d := t.materials[id].def
	k = math.Max(k, t.grid[1])
	k = math.Min(k, t.KineticMax())
	e := k + t.species.Mass
	p2 := k * (k + 2*t.species.Mass)
	beta2 := p2 / (e * e)
	return d.Ionisation/beta2 + d.Radiative*t.radiativeFraction(loss)*e
}

// Grammage returns the CSDA range X(K) in kg/m^2.
func (t *Table) Grammage(loss Loss, id int, k float64) float64 {
	if k <= 0 {
		return 0
	}
	return t.materials[id].curves[loss].grammage.Predict(k)
}

// KineticFromGrammage inverts Grammage. Values outside the table are
// clamped to its ends.
func (t *Table) KineticFromGrammage(loss Loss, id int, x float64) float64 {
	if x <= 0 {
		return 0
	}
	return t.materials[id].curves[loss].kinetic.Predict(x)
}

// ProperTime returns the cumulative proper time integral T(K), in kg/m^2.
// Dividing a difference of T by the density gives a proper time in m/c.
func (t *Table) ProperTime(loss Loss, id int, k float64) float64 {
	if k <= 0 {
		return 0
	}
	return t.materials[id].curves[loss].time.Predict(k)
}

func (t *Table) KineticFromTime(loss Loss, id int, tm float64) float64 {
	if tm <= 0 {
		return 0
	}
	return t.materials[id].curves[loss].fromTime.Predict(tm)
}

func (t *Table) MaxGrammage(loss Loss, id int) float64 {
	return t.materials[id].curves[loss].xmax
}

func (t *Table) MaxProperTime(loss Loss, id int) float64 {
	return t.materials[id].curves[loss].tmax
}
