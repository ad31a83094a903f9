package geometry

import (
	"math"

	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

// Uniform returns locals with a constant density and field.
func Uniform[U any](density float64, magnet r3.Vec) transport.LocalsFunc[U] {
	return func(*transport.Context[U], *transport.Medium[U], *transport.State) transport.Locals {
		return transport.Locals{Density: density, Magnet: magnet}
	}
}

// Atmosphere is an isothermal atmosphere, rho = Density exp(-(z-Reference)/Scale).
type Atmosphere struct {
	Density   float64 // kg/m^3 at Reference
	Reference float64 // m
	Scale     float64 // m
	Magnet    r3.Vec  // T
}

func StandardAtmosphere() Atmosphere {
	return Atmosphere{
		Density: 1.205,
		Scale:   12e3,
		Magnet:  r3.Vec{Y: 2e-5, Z: -4e-5},
	}
}

// minSlope floors |uz| in the step proposal of nearly horizontal tracks.
const minSlope = 5e-2

// Exponential returns the locals of an atmosphere. The proposed step is one
// percent of the density scale, projected on the track.
func Exponential[U any](a Atmosphere) transport.LocalsFunc[U] {
	return func(_ *transport.Context[U], _ *transport.Medium[U], s *transport.State) transport.Locals {
		uz := math.Max(math.Abs(s.Direction.Z), minSlope)
		return transport.Locals{
			Density: a.Density * math.Exp(-(s.Position.Z-a.Reference)/a.Scale),
			Magnet:  a.Magnet,
			Step:    1e-2 * a.Scale / uz,
		}
	}
}
