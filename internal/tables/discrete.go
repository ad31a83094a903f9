package tables

import "math"

// Hard radiative losses follow dsigma/dnu = B/nu for nu = Q/E above the
// cutoff. Soft losses below the cutoff are part of the Restricted model.

const highland = 0.0136 // GeV

// CrossSection returns the forward rate of hard losses, in m^2/kg.
func (t *Table) CrossSection(id int, k float64) float64 {
	numax, nuc := t.nuMax(k), t.cutoff
	if numax <= nuc {
		return 0
	}
	return t.materials[id].def.Radiative * math.Log(numax/nuc)
}

// SampleLoss draws the energy lost in a hard collision at kinetic energy
// k, given a uniform variate u in [0, 1).
func (t *Table) SampleLoss(id int, k, u float64) float64 {
	numax, nuc := t.nuMax(k), t.cutoff
	if numax <= nuc {
		return 0
	}
	nu := nuc * math.Exp(u*math.Log(numax/nuc))
	return math.Min(nu*(k+t.species.Mass), k)
}

// AdjointCrossSection returns the rate of hard energy gains in backward
// transport. Since dsigma/dQ = B/Q does not depend on the initial energy,
// the adjoint kernel has the same shape over the reachable transfers.
func (t *Table) AdjointCrossSection(id int, k float64) float64 {
	qmin, qmax := t.gainRange(k)
	if qmax <= qmin {
		return 0
	}
	return t.materials[id].def.Radiative * math.Log(qmax/qmin)
}

// SampleGain draws the energy gained by a backward hard collision.
func (t *Table) SampleGain(id int, k, u float64) float64 {
	qmin, qmax := t.gainRange(k)
	if qmax <= qmin {
		return 0
	}
	return qmin * math.Exp(u*math.Log(qmax/qmin))
}

// Scattering returns the mean square deflection angle per unit grammage,
// in rad^2 m^2/kg.
func (t *Table) Scattering(id int, k float64) float64 {
	if k <= 0 {
		return 0
	}
	m := t.species.Mass
	p2 := k * (k + 2*m)
	betap := p2 / (k + m)
	a := highland / betap
	return a * a / t.materials[id].def.RadiationLength
}

// Straggling returns the variance of the soft energy loss per unit
// grammage, in GeV^2 m^2/kg.
func (t *Table) Straggling(id int, k float64) float64 {
	e := k + t.species.Mass
	nuc := t.cutoff
	return 0.5 * t.materials[id].def.Radiative * e * e * nuc * nuc
}

func (t *Table) nuMax(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return k / (k + t.species.Mass)
}

func (t *Table) gainRange(k float64) (float64, float64) {
	nuc := t.cutoff
	qmin := nuc * (math.Max(k, 0) + t.species.Mass) / (1 - nuc)
	qmax := t.KineticMax() - k
	return qmin, qmax
}
