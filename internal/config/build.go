package config

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leptrans/internal/flux"
	"github.com/san-kum/leptrans/internal/geometry"
	"github.com/san-kum/leptrans/internal/tables"
	"github.com/san-kum/leptrans/internal/transport"
)

// MaterialDefs returns the built-in materials followed by the user defined
// ones. A user definition replaces a built-in material of the same name.
func (c *Config) MaterialDefs() []tables.MaterialDef {
	builtin := tables.Builtin()
	for _, d := range c.Materials {
		delete(builtin, d.Name)
	}
	defs := make([]tables.MaterialDef, 0, len(builtin)+len(c.Materials))
	for _, name := range []string{"StandardRock", "Water", "Air", "Iron"} {
		if d, ok := builtin[name]; ok {
			defs = append(defs, d)
		}
	}
	return append(defs, c.Materials...)
}

// BuildTables tabulates the physics of the configured species for every
// known material.
func (c *Config) BuildTables() (*tables.Table, error) {
	sp, err := c.SpeciesDef()
	if err != nil {
		return nil, err
	}
	return tables.Build(sp, c.MaterialDefs(), tables.Options{
		Cutoff:     c.Tables.Cutoff,
		KineticMin: c.Tables.KineticMin,
		KineticMax: c.Tables.KineticMax,
		Points:     c.Tables.Points,
	})
}

// Apply copies the transport settings onto ctx.
func Apply[U any](c *Config, ctx *transport.Context[U]) error {
	scheme, err := transport.ParseScheme(c.Scheme)
	if err != nil {
		return err
	}
	mode, err := transport.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	decay, err := transport.ParseDecay(c.Decay)
	if err != nil {
		return err
	}
	events, err := transport.ParseEvents(c.Events)
	if err != nil {
		return err
	}
	ctx.Scheme = scheme
	ctx.Mode = mode
	ctx.Decay = decay
	ctx.Events = events
	ctx.Longitudinal = c.Longitudinal
	ctx.Strict = c.Strict
	ctx.Limit = transport.Limits{
		Kinetic:  c.Limits.Kinetic,
		Distance: c.Limits.Distance,
		Time:     c.Limits.Time,
		Weight:   c.Limits.Weight,
	}
	ctx.Accuracy = transport.Accuracy{
		EnergyLoss: c.Accuracy.EnergyLoss,
		Scattering: c.Accuracy.Scattering,
		Magnetic:   c.Accuracy.Magnetic,
		Boundary:   c.Accuracy.Boundary,
	}
	return nil
}

func (c *Config) Atmosphere() geometry.Atmosphere {
	a := c.Geometry.Atmosphere
	return geometry.Atmosphere{
		Density:   a.Density,
		Reference: a.Reference,
		Scale:     a.Scale,
		Magnet:    r3.Vec{X: a.Magnet[0], Y: a.Magnet[1], Z: a.Magnet[2]},
	}
}

// Layers builds the configured layered geometry on top of tbl.
func Layers[U any](c *Config, tbl *tables.Table) (*geometry.Layered[U], error) {
	if len(c.Geometry.Layers) == 0 {
		return nil, fmt.Errorf("%w: no geometry layers", ErrConfig)
	}
	top := c.Geometry.Bottom
	layers := make([]geometry.Layer[U], 0, len(c.Geometry.Layers))
	for _, l := range c.Geometry.Layers {
		id, err := tbl.MaterialIndex(l.Material)
		if err != nil {
			return nil, err
		}
		def, err := tbl.Material(id)
		if err != nil {
			return nil, err
		}
		name := l.Name
		if name == "" {
			name = l.Material
		}
		var locals transport.LocalsFunc[U]
		switch l.Profile {
		case "exponential":
			locals = geometry.Exponential[U](c.Atmosphere())
		default:
			density := l.Density
			if density == 0 {
				density = def.Density
			}
			locals = geometry.Uniform[U](density, r3.Vec{})
		}
		top += l.Thickness
		layers = append(layers, geometry.Layer[U]{
			Medium: &transport.Medium[U]{Name: name, Material: id, Locals: locals},
			Top:    top,
		})
	}
	return geometry.NewLayered(c.Geometry.Bottom, layers...)
}

// FluxSetup maps the flux section onto a flux run over tbl.
func (c *Config) FluxSetup(tbl *tables.Table) (flux.Setup, error) {
	model, err := flux.LookupModel(c.Flux.Model)
	if err != nil {
		return flux.Setup{}, err
	}
	s := flux.DefaultSetup(tbl)
	s.Model = model
	s.Rock = c.Flux.Rock
	s.RockThickness = c.Flux.RockThickness
	s.Atmosphere = c.Atmosphere()
	s.Top = c.Flux.Top
	s.Elevation = c.Flux.Elevation
	s.KineticMin = c.Flux.KineticMin
	s.KineticMax = c.Flux.KineticMax
	s.Switch = c.Flux.Switch
	s.Events = c.Flux.Events
	s.Workers = c.Workers
	s.Seed = c.Seed
	return s, nil
}

func (c *Config) SlabSetup(tbl *tables.Table) (flux.Slab, error) {
	scheme, err := transport.ParseScheme(c.Scheme)
	if err != nil {
		return flux.Slab{}, err
	}
	decay, err := transport.ParseDecay(c.Decay)
	if err != nil {
		return flux.Slab{}, err
	}
	return flux.Slab{
		Table:     tbl,
		Material:  c.Slab.Material,
		Density:   c.Slab.Density,
		Thickness: c.Slab.Thickness,
		Kinetic:   c.Slab.Kinetic,
		Scheme:    scheme,
		Decay:     decay,
		Events:    c.Slab.Events,
		Workers:   c.Workers,
		Seed:      c.Seed,
	}, nil
}
