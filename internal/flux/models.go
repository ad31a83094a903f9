// Package flux estimates atmospheric muon fluxes below a rock layer by
// backward Monte-Carlo, and runs forward slab transmission experiments.
package flux

import (
	"fmt"
	"math"
	"sort"
)

const muonMass = 0.10566 // GeV

// Model returns a differential flux in GeV^-1 m^-2 s^-1 sr^-1 for a
// downgoing muon of given kinetic energy, cos(theta) being measured from
// the zenith.
type Model func(cosTheta, kinetic float64) float64

// Gaisser is the sea level parameterisation of the muon flux, valid at high
// energy and small zenith angles.
func Gaisser(cosTheta, kinetic float64) float64 {
	return gaisser(cosTheta, kinetic+muonMass)
}

func gaisser(cosTheta, emu float64) float64 {
	ec := 1.1 * emu * cosTheta
	rpi := 1 + ec/115
	rk := 1 + ec/850
	return 1.4e3 * math.Pow(emu, -2.7) * (1/rpi + 0.054/rk)
}

// CosThetaStar corrects the zenith angle for the curvature of the Earth
// (Volkova's parameterisation).
func CosThetaStar(cosTheta float64) float64 {
	p := [...]float64{0.102573, -0.068287, 0.958633, 0.0407253, 0.817285}
	cs2 := (cosTheta*cosTheta + p[0]*p[0] + p[1]*math.Pow(cosTheta, p[2]) + p[3]*math.Pow(cosTheta, p[4])) /
		(1 + p[0]*p[0] + p[1] + p[3])
	if cs2 <= 0 {
		return 0
	}
	return math.Sqrt(cs2)
}

// GCCLY is Gaisser's flux with the low energy and large angle corrections of
// Guan et al.
func GCCLY(cosTheta, kinetic float64) float64 {
	emu := kinetic + muonMass
	cs := CosThetaStar(cosTheta)
	return math.Pow(1+3.64/(emu*math.Pow(cs, 1.29)), -2.7) * gaisser(cs, emu)
}

var models = map[string]Model{
	"gaisser": Gaisser,
	"gccly":   GCCLY,
}

func LookupModel(name string) (Model, error) {
	m, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown flux model: %s", name)
	}
	return m, nil
}

func ListModels() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
