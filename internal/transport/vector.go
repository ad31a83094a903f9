package transport

import (
	"math"

	"github.com/san-kum/leptrans/internal/integrators"
	"gonum.org/v1/gonum/spatial/r3"
)

// larmor converts p/(|q| B) from GeV/T to metres.
const larmor = 0.299792458

func momentum(mass, k float64) float64 {
	return math.Sqrt(k * (k + 2*mass))
}

// expo draws an exponential variate with unit mean.
func expo(rnd Random) float64 {
	return -math.Log(1 - rnd.Float64())
}

// gauss draws two independent standard normal variates (Box-Muller).
func gauss(rnd Random) (float64, float64) {
	r := math.Sqrt(-2 * math.Log(1-rnd.Float64()))
	phi := 2 * math.Pi * rnd.Float64()
	return r * math.Cos(phi), r * math.Sin(phi)
}

// basis returns two unit vectors orthogonal to u and to each other.
func basis(u r3.Vec) (r3.Vec, r3.Vec) {
	axis := r3.Vec{X: 1}
	ax, ay, az := math.Abs(u.X), math.Abs(u.Y), math.Abs(u.Z)
	if ay <= ax && ay <= az {
		axis = r3.Vec{Y: 1}
	} else if az <= ax && az <= ay {
		axis = r3.Vec{Z: 1}
	}
	e1 := r3.Unit(r3.Cross(u, axis))
	return e1, r3.Cross(u, e1)
}

// deflect rotates u by the polar angle theta around the azimuth phi.
func deflect(u r3.Vec, theta, phi float64) r3.Vec {
	e1, e2 := basis(u)
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	v := r3.Add(r3.Scale(ct, u), r3.Add(r3.Scale(st*cp, e1), r3.Scale(st*sp, e2)))
	return r3.Unit(v)
}

// lorentz is the trajectory of a charge in a static field, parametrised by
// the path length: x' = u, u' = kappa u x B.
type lorentz struct {
	kappa float64
	field r3.Vec
}

func (l lorentz) Derive(x integrators.State, _ float64) integrators.State {
	u := r3.Vec{X: x[3], Y: x[4], Z: x[5]}
	f := r3.Scale(l.kappa, r3.Cross(u, l.field))
	return integrators.State{u.X, u.Y, u.Z, f.X, f.Y, f.Z}
}

func finite(v r3.Vec) bool {
	for _, x := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
