package transport

import (
	"math"

	"github.com/san-kum/leptrans/internal/integrators"
	"github.com/san-kum/leptrans/internal/tables"
	"gonum.org/v1/gonum/spatial/r3"
)

// stepper carries the per call state of a transport.
type stepper[U any] struct {
	ctx     *Context[U]
	phys    Physics
	s       *State
	loss    tables.Loss
	mass    float64
	kmin    float64
	kmax    float64
	heading float64

	decayAt float64 // proper time of the sampled decay, DecayProcess only
	index   int
}

func newStepper[U any](c *Context[U], s *State) *stepper[U] {
	st := &stepper[U]{
		ctx:     c,
		phys:    c.physics,
		s:       s,
		loss:    tables.CSDA,
		mass:    c.physics.Mass(),
		heading: c.Heading(),
		decayAt: math.Inf(1),
	}
	if c.Scheme != SchemeStraight {
		st.loss = tables.Restricted
	}
	st.kmin, st.kmax = c.physics.KineticRange()
	return st
}

func (st *stepper[U]) forward() bool { return st.ctx.Mode == Forward }

func (st *stepper[U]) stochastic() bool { return st.ctx.Scheme != SchemeStraight }

// transverse reports whether scattering and magnetic bending are applied.
func (st *stepper[U]) transverse() bool {
	switch st.ctx.Scheme {
	case SchemeDetailed:
		return true
	case SchemeHybrid:
		return !st.ctx.Longitudinal
	}
	return false
}

// locals evaluates and checks the medium properties at the current position.
func (st *stepper[U]) locals(m *Medium[U]) (Locals, *Error) {
	if m.Material < 0 || m.Material >= st.phys.NumMaterials() {
		return Locals{}, newError(ErrMaterial, "locals", "medium %q has material index %d, tables hold %d",
			m.Name, m.Material, st.phys.NumMaterials())
	}
	if m.Locals == nil {
		return Locals{}, newError(ErrConfiguration, "locals", "medium %q has no locals callback", m.Name)
	}
	loc := m.Locals(st.ctx, m, st.s)
	if math.IsNaN(loc.Density) || math.IsInf(loc.Density, 0) || loc.Density < 0 {
		return loc, newError(ErrDensity, "locals", "medium %q reports density %g", m.Name, loc.Density)
	}
	if !finite(loc.Magnet) {
		return loc, newError(ErrMagnet, "locals", "medium %q reports field %v", m.Name, loc.Magnet)
	}
	if math.IsNaN(loc.Step) {
		return loc, newError(ErrConfiguration, "locals", "medium %q proposes a NaN step", m.Name)
	}
	return loc, nil
}

// stepLength returns the next step and the constraint that set it.
func (st *stepper[U]) stepLength(m *Medium[U], loc Locals, geo float64) (float64, Bound) {
	c, s := st.ctx, st.s
	ds, bound := math.Inf(1), BoundNone
	try := func(v float64, b Bound) {
		if v > 0 && v < ds {
			ds, bound = v, b
		}
	}

	try(geo, BoundGeometry)
	try(loc.Step, BoundLocals)
	if c.Events&EventLimitDistance != 0 {
		try(c.Limit.Distance-s.Distance, BoundDistance)
	}
	if c.Events&EventLimitTime != 0 {
		try(st.distanceToTime(m.Material, loc.Density, c.Limit.Time-s.Time), BoundTime)
	}
	if c.Decay == DecayProcess {
		try(st.distanceToTime(m.Material, loc.Density, st.decayAt-s.Time), BoundDecay)
	}

	rho, mat, k := loc.Density, m.Material, s.Kinetic
	if rho > 0 {
		x0 := st.phys.Grammage(st.loss, mat, k)
		if st.forward() {
			try(x0/rho, BoundRange)
		} else {
			try((st.phys.MaxGrammage(st.loss, mat)-x0)/rho, BoundRange)
		}

		if c.Events&EventLimitKinetic != 0 {
			kl := c.Limit.Kinetic
			xl := st.phys.Grammage(st.loss, mat, kl)
			if st.forward() && kl < k {
				try((x0-xl)/rho, BoundKinetic)
			} else if !st.forward() && kl > k {
				try((xl-x0)/rho, BoundKinetic)
			}
		}

		if st.stochastic() {
			xfloor := st.phys.Grammage(st.loss, mat, st.kmin)
			try(c.Accuracy.EnergyLoss*math.Max(x0, xfloor)/rho, BoundEnergyLoss)

			var rate float64
			if st.forward() {
				rate = st.phys.CrossSection(mat, k)
			} else {
				rate = st.phys.AdjointCrossSection(mat, k)
			}
			if rate > 0 {
				try(expo(c.Random)/(rate*rho), BoundInteraction)
			}
		}

		if st.transverse() {
			if sc := st.phys.Scattering(mat, k); sc > 0 {
				a := c.Accuracy.Scattering
				try(a*a/(sc*rho), BoundScattering)
			}
		}
	}

	if st.transverse() && s.Charge != 0 {
		if bt := r3.Norm(r3.Cross(s.Direction, loc.Magnet)); bt > 0 {
			p := momentum(st.mass, k)
			try(c.Accuracy.Magnetic*p/(larmor*math.Abs(s.Charge)*bt), BoundMagnetic)
		}
	}

	if math.IsInf(ds, 1) {
		return c.Extent, BoundExtent
	}
	return ds, bound
}

// distanceToTime returns the path length over which the proper time grows
// by dtau, or 0 when it cannot within the tables.
func (st *stepper[U]) distanceToTime(mat int, rho, dtau float64) float64 {
	if dtau <= 0 {
		return 0
	}
	k := st.s.Kinetic
	if rho <= 0 {
		return dtau * momentum(st.mass, k) / st.mass
	}
	t0 := st.phys.ProperTime(st.loss, mat, k)
	x0 := st.phys.Grammage(st.loss, mat, k)
	if st.forward() {
		t1 := t0 - rho*dtau
		if t1 <= 0 {
			return 0
		}
		k1 := st.phys.KineticFromTime(st.loss, mat, t1)
		return (x0 - st.phys.Grammage(st.loss, mat, k1)) / rho
	}
	t1 := t0 + rho*dtau
	if t1 >= st.phys.MaxProperTime(st.loss, mat) {
		return 0
	}
	k1 := st.phys.KineticFromTime(st.loss, mat, t1)
	return (st.phys.Grammage(st.loss, mat, k1) - x0) / rho
}

// advance applies the deterministic part of a step of length ds: continuous
// energy loss, motion, proper time, decay and backward weights. Quantities
// targeted by the bound are snapped to their exact value.
func (st *stepper[U]) advance(mat int, loc Locals, ds float64, bound Bound) {
	c, s := st.ctx, st.s
	rho := loc.Density
	k0 := s.Kinetic
	k1 := k0
	var dtau float64

	if rho > 0 {
		x0 := st.phys.Grammage(st.loss, mat, k0)
		dx := rho * ds
		if st.forward() {
			if x1 := x0 - dx; x1 > 0 {
				k1 = math.Min(st.phys.KineticFromGrammage(st.loss, mat, x1), k0)
			} else {
				k1 = 0
			}
		} else {
			if x1 := x0 + dx; x1 < st.phys.MaxGrammage(st.loss, mat) {
				k1 = math.Max(st.phys.KineticFromGrammage(st.loss, mat, x1), k0)
			} else {
				k1 = st.kmax
			}
		}
		switch {
		case bound == BoundKinetic:
			k1 = c.Limit.Kinetic
		case bound == BoundRange && st.forward():
			k1 = 0
		case bound == BoundRange:
			k1 = st.kmax
		}
		dtau = math.Abs(st.phys.ProperTime(st.loss, mat, k0)-st.phys.ProperTime(st.loss, mat, k1)) / rho
	} else if p := momentum(st.mass, k0); p > 0 {
		dtau = ds * st.mass / p
	}

	h := st.heading * ds
	kmid := 0.5 * (k0 + k1)
	bt := r3.Norm(r3.Cross(s.Direction, loc.Magnet))
	if st.transverse() && s.Charge != 0 && bt > 0 && kmid > 0 {
		kappa := larmor * s.Charge / momentum(st.mass, kmid)
		x := integrators.State{
			s.Position.X, s.Position.Y, s.Position.Z,
			s.Direction.X, s.Direction.Y, s.Direction.Z,
		}
		x = c.rk4.Step(lorentz{kappa: kappa, field: loc.Magnet}, x, 0, h)
		s.Position = r3.Vec{X: x[0], Y: x[1], Z: x[2]}
		s.Direction = r3.Unit(r3.Vec{X: x[3], Y: x[4], Z: x[5]})
	} else {
		s.Position = r3.Add(s.Position, r3.Scale(h, s.Direction))
	}

	s.Distance += ds
	s.Grammage += rho * ds
	s.Time += dtau
	switch bound {
	case BoundDistance:
		s.Distance = c.Limit.Distance
	case BoundTime:
		s.Time = c.Limit.Time
	case BoundDecay:
		s.Time = st.decayAt
	}

	if c.Decay != DecayNone && dtau > 0 {
		f := math.Exp(-dtau / st.phys.CTau())
		s.Survival *= f
		if c.Decay == DecayWeight {
			s.Weight *= f
		}
	}

	if !st.forward() && rho > 0 {
		if s0 := st.phys.StoppingPower(st.loss, mat, k0); s0 > 0 {
			s.Weight *= st.phys.StoppingPower(st.loss, mat, k1) / s0
		}
		if st.stochastic() {
			sigma := st.phys.CrossSection(mat, kmid) - st.phys.AdjointCrossSection(mat, kmid)
			s.Weight *= math.Exp(-sigma * rho * ds)
		}
	}
	s.Kinetic = k1
}

// scatter applies the stochastic part of a step: soft loss straggling,
// multiple scattering and, when the step ends on it, a hard collision.
func (st *stepper[U]) scatter(mat int, loc Locals, ds float64, k0 float64, bound Bound) {
	c, s := st.ctx, st.s
	rho := loc.Density
	if !st.stochastic() || rho <= 0 {
		return
	}
	kmid := 0.5 * (k0 + s.Kinetic)

	if c.Scheme == SchemeDetailed && bound != BoundKinetic && bound != BoundRange && s.Kinetic > 0 {
		if v := st.phys.Straggling(mat, kmid) * rho * ds; v > 0 {
			g, _ := gauss(c.Random)
			s.Kinetic = math.Max(s.Kinetic+math.Sqrt(v)*g, 0)
			if !st.forward() {
				s.Kinetic = math.Min(math.Max(s.Kinetic, st.kmin), st.kmax)
			}
		}
	}

	if st.transverse() && kmid > 0 {
		if theta2 := st.phys.Scattering(mat, kmid) * rho * ds; theta2 > 0 {
			tx, ty := gauss(c.Random)
			t0 := math.Sqrt(theta2)
			theta := t0 * math.Hypot(tx, ty)
			s.Direction = deflect(s.Direction, theta, math.Atan2(ty, tx))
		}
	}

	if bound == BoundInteraction && s.Kinetic > 0 {
		u := c.Random.Float64()
		if st.forward() {
			s.Kinetic = math.Max(s.Kinetic-st.phys.SampleLoss(mat, s.Kinetic, u), 0)
		} else {
			s.Kinetic = math.Min(s.Kinetic+st.phys.SampleGain(mat, s.Kinetic, u), st.kmax)
		}
	}
}
