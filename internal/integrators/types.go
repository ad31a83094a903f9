// Package integrators provides fixed step ODE solvers used to bend
// trajectories in magnetic fields.
package integrators

// State is a flat vector of coupled variables.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// System returns the derivative of x with respect to the free variable t.
type System interface {
	Derive(x State, t float64) State
}

type SystemFunc func(x State, t float64) State

func (f SystemFunc) Derive(x State, t float64) State { return f(x, t) }

type Integrator interface {
	Step(dyn System, x State, t, dt float64) State
}
