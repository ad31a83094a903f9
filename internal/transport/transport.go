package transport

import "errors"

// tolerance on the exact landing of a step onto a limit
const tolerance = 1e-12

// Transport advances s until an enabled event occurs or the particle leaves
// the simulated volume. The state is updated in place. On error the state
// is left at the last valid step and the error is also passed to OnError.
func (c *Context[U]) Transport(s *State) (Result[U], error) {
	var res Result[U]
	if c.closed {
		return res, c.fail(newError(ErrClosed, "transport", "context is closed"))
	}
	if err := c.Validate(); err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = newError(ErrConfiguration, "transport", "%v", err)
		}
		return res, c.fail(e)
	}
	if s == nil {
		return res, c.fail(newError(ErrInvalidState, "transport", "nil state"))
	}
	if err := s.validate(); err != nil {
		return res, c.fail(err.(*Error))
	}

	st := newStepper(c, s)
	medium, geo := c.Medium.Medium(c, s)
	if medium == nil {
		res.Event = EventMedium
		return res, nil
	}
	res.Media = [2]*Medium[U]{medium, medium}
	if c.Strict && s.Kinetic > st.kmax {
		return res, c.fail(newError(ErrOutOfRange, "transport", "kinetic energy %g above table maximum %g", s.Kinetic, st.kmax))
	}
	if ev := st.pending(); ev != EventNone {
		res.Event = ev
		return res, nil
	}
	if c.Decay == DecayProcess {
		st.decayAt = s.Time + c.physics.CTau()*expo(c.Random)
	}

	for {
		st.index++
		if st.index > c.MaxSteps {
			return res, st.fail(ErrStalled, "transport", "no event after %d steps", c.MaxSteps)
		}

		loc, lerr := st.locals(medium)
		if lerr != nil {
			lerr.Step = st.index
			return res, c.fail(lerr)
		}
		if c.Strict && s.Kinetic > st.kmax {
			return res, st.fail(ErrOutOfRange, "step", "kinetic energy %g above table maximum %g", s.Kinetic, st.kmax)
		}

		ds, bound := st.stepLength(medium, loc, geo)
		k0 := s.Kinetic
		prev := *s
		st.advance(medium.Material, loc, ds, bound)

		next, _ := c.Medium.Medium(c, s)
		if next != medium {
			ds, next = st.bisect(&prev, medium, loc, ds)
			bound = BoundGeometry
		}
		if next == nil {
			st.observe(ds, bound, geo, loc, medium)
			res.Event = EventMedium
			res.Media = [2]*Medium[U]{medium, nil}
			return res, nil
		}

		st.scatter(medium.Material, loc, ds, k0, bound)
		st.observe(ds, bound, geo, loc, medium)

		cond, forced := st.conditions()
		if next != medium {
			cond |= EventMedium
		}
		if ev := c.pick(cond & (c.Events | forced)); ev != EventNone {
			res.Event = ev
			res.Media = [2]*Medium[U]{medium, next}
			return res, nil
		}

		m, g := c.Medium.Medium(c, s)
		if m == nil {
			res.Event = EventMedium
			res.Media = [2]*Medium[U]{medium, nil}
			return res, nil
		}
		medium, geo = m, g
		res.Media = [2]*Medium[U]{medium, medium}
	}
}

// pending returns the event already satisfied by the initial state, if any.
func (st *stepper[U]) pending() Event {
	cond, forced := st.conditions()
	return st.ctx.pick(cond & (st.ctx.Events | forced) &^ EventMedium)
}

// conditions returns the events whose condition holds for the current
// state, and the subset that ends the transport whether enabled or not.
func (st *stepper[U]) conditions() (cond, forced Event) {
	c, s := st.ctx, st.s
	if st.forward() {
		if s.Kinetic <= 0 {
			forced |= EventLimitKinetic
		}
		if c.Limit.Kinetic > 0 && s.Kinetic <= c.Limit.Kinetic*(1+tolerance) {
			cond |= EventLimitKinetic
		}
	} else {
		if s.Kinetic >= st.kmax*(1-tolerance) {
			forced |= EventLimitKinetic
		}
		if c.Limit.Kinetic > 0 && s.Kinetic >= c.Limit.Kinetic*(1-tolerance) {
			cond |= EventLimitKinetic
		}
	}
	if c.Limit.Distance > 0 && s.Distance >= c.Limit.Distance*(1-tolerance) {
		cond |= EventLimitDistance
	}
	if c.Limit.Time > 0 && s.Time >= c.Limit.Time*(1-tolerance) {
		cond |= EventLimitTime
	}
	if c.Decay == DecayProcess && s.Time >= st.decayAt*(1-tolerance) {
		forced |= EventDecay
	}
	if s.Weight <= c.Limit.Weight {
		cond |= EventWeight
	}
	return cond | forced, forced
}

// pick returns the first event of the priority list present in mask.
func (c *Context[U]) pick(mask Event) Event {
	if mask == EventNone {
		return EventNone
	}
	for _, ev := range c.Priority {
		if mask&ev != 0 {
			return ev
		}
	}
	return EventNone
}

// bisect locates the first medium change along the step from prev, to
// within the boundary accuracy. The state is left just past the boundary.
func (st *stepper[U]) bisect(prev *State, m *Medium[U], loc Locals, ds float64) (float64, *Medium[U]) {
	c, s := st.ctx, st.s
	lo, hi := 0.0, ds
	// steps pushed just past a boundary are bracketed within two probes
	tol := c.Accuracy.Boundary
	for _, back := range []float64{tol, 2 * tol} {
		if ds <= back {
			break
		}
		*s = *prev
		st.advance(m.Material, loc, ds-back, BoundNone)
		if got, _ := c.Medium.Medium(c, s); got == m {
			lo = ds - back
			break
		}
		hi = ds - back
	}
	for hi-lo > tol {
		mid := 0.5 * (lo + hi)
		*s = *prev
		st.advance(m.Material, loc, mid, BoundNone)
		if got, _ := c.Medium.Medium(c, s); got == m {
			lo = mid
		} else {
			hi = mid
		}
	}
	*s = *prev
	st.advance(m.Material, loc, hi, BoundNone)
	next, _ := c.Medium.Medium(c, s)
	return hi, next
}

func (st *stepper[U]) observe(ds float64, bound Bound, geo float64, loc Locals, m *Medium[U]) {
	if st.ctx.Observer == nil {
		return
	}
	st.ctx.Observer.OnStep(&Step[U]{
		Index:    st.index,
		Length:   ds,
		Bound:    bound,
		Geometry: geo,
		Locals:   loc,
		Medium:   m,
		State:    *st.s,
	})
}

func (st *stepper[U]) fail(code error, op string, format string, args ...any) error {
	e := newError(code, op, format, args...)
	e.Step = st.index
	return st.ctx.fail(e)
}
