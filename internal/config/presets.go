package config

import "sort"

// Presets are ready made configurations, applied over the defaults.
var Presets = map[string]func(*Config){
	"slab": func(c *Config) {
		c.Scheme = "detailed"
		c.Slab = SlabConfig{Material: "StandardRock", Thickness: 10, Kinetic: 10, Events: 1000}
	},
	"iron": func(c *Config) {
		c.Scheme = "hybrid"
		c.Slab = SlabConfig{Material: "Iron", Thickness: 2, Kinetic: 5, Events: 1000}
	},
	"tau": func(c *Config) {
		c.Species = "tau"
		c.Scheme = "detailed"
		c.Decay = "process"
		c.Slab = SlabConfig{Material: "Water", Thickness: 1, Kinetic: 100, Events: 1000}
	},
	"open-sky": func(c *Config) {
		c.Flux.RockThickness = 0
		c.Flux.KineticMin, c.Flux.KineticMax = 1, 1e3
	},
	"underground": func(c *Config) {
		c.Flux.RockThickness = 100
		c.Flux.Elevation = 60
		c.Flux.KineticMin, c.Flux.KineticMax = 1, 1e4
	},
	"horizon": func(c *Config) {
		c.Flux.RockThickness = 0
		c.Flux.Elevation = 5
		c.Flux.KineticMin, c.Flux.KineticMax = 10, 10
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
