package tables

// Species describes the transported lepton.
type Species struct {
	Name string
	Mass float64 // GeV/c^2
	CTau float64 // decay length c*tau in m, 0 for a stable particle
}

func Muon() Species {
	return Species{Name: "muon", Mass: 0.10565839, CTau: 658.654}
}

func Tau() Species {
	return Species{Name: "tau", Mass: 1.77686, CTau: 87.03e-6}
}

// MaterialDef parameterises the energy loss of a material as
// dE/dX = A/beta^2 + B*E, with X the grammage in kg/m^2.
type MaterialDef struct {
	Name            string  `yaml:"name" mapstructure:"name"`
	Ionisation      float64 `yaml:"ionisation" mapstructure:"ionisation"`             // A, GeV m^2/kg
	Radiative       float64 `yaml:"radiative" mapstructure:"radiative"`               // B, m^2/kg
	RadiationLength float64 `yaml:"radiation_length" mapstructure:"radiation_length"` // X0, kg/m^2
	Density         float64 `yaml:"density" mapstructure:"density"`                   // nominal, kg/m^3
}

func StandardRock() MaterialDef {
	return MaterialDef{
		Name:            "StandardRock",
		Ionisation:      2.17e-4,
		Radiative:       4.0e-7,
		RadiationLength: 265.4,
		Density:         2.65e3,
	}
}

func Water() MaterialDef {
	return MaterialDef{
		Name:            "Water",
		Ionisation:      2.40e-4,
		Radiative:       3.3e-7,
		RadiationLength: 360.8,
		Density:         1.0e3,
	}
}

func Air() MaterialDef {
	return MaterialDef{
		Name:            "Air",
		Ionisation:      2.05e-4,
		Radiative:       3.6e-7,
		RadiationLength: 366.2,
		Density:         1.205,
	}
}

func Iron() MaterialDef {
	return MaterialDef{
		Name:            "Iron",
		Ionisation:      1.75e-4,
		Radiative:       9.5e-7,
		RadiationLength: 138.4,
		Density:         7.874e3,
	}
}

// Builtin returns the built-in material definitions keyed by name.
func Builtin() map[string]MaterialDef {
	out := make(map[string]MaterialDef)
	for _, d := range []MaterialDef{StandardRock(), Water(), Air(), Iron()} {
		out[d.Name] = d
	}
	return out
}
