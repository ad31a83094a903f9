package flux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/san-kum/leptrans/internal/geometry"
	"github.com/san-kum/leptrans/internal/tables"
	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

var ErrSetup = errors.New("flux: invalid setup")

type none = struct{}

// Setup describes a backward flux computation below a flat rock layer
// topped by an atmosphere. The detector sits at z = 0, under the rock.
type Setup struct {
	Table         *tables.Table
	Rock          string // material names in Table
	Air           string
	RockThickness float64 // m
	RockDensity   float64 // kg/m^3, 0 for the nominal density
	Atmosphere    geometry.Atmosphere
	Top           float64 // m, altitude where the flux model applies

	Elevation  float64 // deg, above the horizon
	KineticMin float64 // GeV
	KineticMax float64 // GeV, equal to KineticMin for a point estimate
	Switch     float64 // GeV, detailed below and hybrid above

	Events  int
	Workers int
	Seed    uint64
	Model   Model

	Observer transport.Observer[none]
	OnEvent  func(transport.Event)
	Progress func(done int)
	Logger   *slog.Logger
}

func DefaultSetup(table *tables.Table) Setup {
	return Setup{
		Table:      table,
		Rock:       "StandardRock",
		Air:        "Air",
		Atmosphere: geometry.StandardAtmosphere(),
		Top:        1e3,
		Elevation:  90,
		KineticMin: 1,
		KineticMax: 1,
		Switch:     100,
		Events:     10000,
		Model:      GCCLY,
	}
}

// Estimate is a Monte-Carlo flux estimate. For a point estimate the unit is
// GeV^-1 m^-2 s^-1 sr^-1, otherwise m^-2 s^-1 sr^-1.
type Estimate struct {
	Flux    float64
	Sigma   float64
	Events  int
	Point   bool
	Samples []float64
	Elapsed time.Duration
}

func (e Estimate) Unit() string {
	if e.Point {
		return "GeV^-1 m^-2 s^-1 sr^-1"
	}
	return "m^-2 s^-1 sr^-1"
}

func (s *Setup) check() error {
	switch {
	case s.Table == nil:
		return fmt.Errorf("%w: no tables", ErrSetup)
	case s.Model == nil:
		return fmt.Errorf("%w: no flux model", ErrSetup)
	case s.Top <= 0:
		return fmt.Errorf("%w: top altitude must be positive", ErrSetup)
	case s.RockThickness < 0 || s.RockThickness >= s.Top:
		return fmt.Errorf("%w: rock thickness %g outside [0, %g)", ErrSetup, s.RockThickness, s.Top)
	case s.Elevation <= 0 || s.Elevation > 90:
		return fmt.Errorf("%w: elevation %g outside (0, 90]", ErrSetup, s.Elevation)
	case s.KineticMin <= 0 || s.KineticMax < s.KineticMin:
		return fmt.Errorf("%w: kinetic range [%g, %g]", ErrSetup, s.KineticMin, s.KineticMax)
	case s.Events <= 0:
		return fmt.Errorf("%w: no events", ErrSetup)
	case s.Switch <= 0:
		return fmt.Errorf("%w: scheme switch must be positive", ErrSetup)
	}
	return nil
}

func (s *Setup) geometry() (*geometry.Layered[none], error) {
	air, err := medium(s.Table, s.Air, geometry.Exponential[none](s.Atmosphere))
	if err != nil {
		return nil, err
	}
	if s.RockThickness == 0 {
		return geometry.NewLayered(0, geometry.Layer[none]{Medium: air, Top: s.Top})
	}
	rock, err := medium(s.Table, s.Rock, nil)
	if err != nil {
		return nil, err
	}
	density := s.RockDensity
	if density == 0 {
		def, err := s.Table.Material(rock.Material)
		if err != nil {
			return nil, err
		}
		density = def.Density
	}
	rock.Locals = geometry.Uniform[none](density, r3.Vec{})
	return geometry.NewLayered(0,
		geometry.Layer[none]{Medium: rock, Top: s.RockThickness},
		geometry.Layer[none]{Medium: air, Top: s.Top},
	)
}

func medium(t *tables.Table, name string, locals transport.LocalsFunc[none]) (*transport.Medium[none], error) {
	id, err := t.MaterialIndex(name)
	if err != nil {
		return nil, err
	}
	return &transport.Medium[none]{Name: name, Material: id, Locals: locals}, nil
}

// Run computes the flux of muons reaching the detector at the given
// elevation. Final energies are drawn log-uniformly over the kinetic range
// and transported backwards up to the top of the atmosphere, where the flux
// model is folded in.
func Run(ctx context.Context, setup Setup) (Estimate, error) {
	if err := setup.check(); err != nil {
		return Estimate{}, err
	}
	logger := setup.Logger
	if logger == nil {
		logger = slog.Default()
	}
	geo, err := setup.geometry()
	if err != nil {
		return Estimate{}, err
	}

	base, err := transport.NewContext[none](setup.Table, none{})
	if err != nil {
		return Estimate{}, err
	}
	base.Mode = transport.Backward
	base.Medium = geo
	base.Events = transport.EventLimitKinetic
	base.Observer = setup.Observer

	workers := workerCount(setup.Workers, setup.Events)
	contexts := make([]*transport.Context[none], workers)
	for i := range contexts {
		contexts[i] = base.Clone(none{})
	}

	cosTheta := math.Cos((90 - setup.Elevation) * math.Pi / 180)
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	direction := r3.Vec{X: -sinTheta, Z: -cosTheta}
	rk := math.Log(setup.KineticMax / setup.KineticMin)
	_, tableMax := setup.Table.KineticRange()
	threshold := math.Min(setup.KineticMax*1e3, tableMax)

	logger.Info("flux run",
		"events", setup.Events,
		"workers", workers,
		"rock", setup.RockThickness,
		"elevation", setup.Elevation,
		"kinetic_min", setup.KineticMin,
		"kinetic_max", setup.KineticMax)

	start := time.Now()
	samples := make([]float64, setup.Events)
	err = fanOut(ctx, workers, setup.Events, setup.Seed, setup.Progress, func(w int, rnd *rand.Rand, i int) error {
		tc := contexts[w]
		tc.Random = rnd

		kf, wf := setup.KineticMin, 1.0
		if rk > 0 {
			kf = setup.KineticMin * math.Exp(rk*rnd.Float64())
			wf = kf * rk
		}
		s := transport.NewState(-1, kf, r3.Vec{}, direction)
		s.Weight = wf

		for s.Kinetic < threshold*(1-1e-9) {
			if s.Kinetic < setup.Switch {
				tc.Scheme = transport.SchemeDetailed
				tc.Longitudinal = false
				tc.Limit.Kinetic = math.Min(setup.Switch, threshold)
			} else {
				tc.Scheme = transport.SchemeHybrid
				tc.Longitudinal = true
				tc.Limit.Kinetic = threshold
			}
			res, err := tc.Transport(&s)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			if setup.OnEvent != nil {
				setup.OnEvent(res.Event)
			}
			switch res.Event {
			case transport.EventMedium:
				if res.Media[1] == nil {
					if s.Position.Z >= setup.Top {
						samples[i] = s.Weight * setup.Model(-s.Direction.Z, s.Kinetic)
					}
					return nil
				}
			case transport.EventLimitKinetic:
			default:
				return fmt.Errorf("event %d: unexpected transport event %v", i, res.Event)
			}
		}
		return nil
	})
	if err != nil {
		return Estimate{}, err
	}

	mean, std := stat.PopMeanStdDev(samples, nil)
	est := Estimate{
		Flux:    mean,
		Sigma:   stat.StdErr(std, float64(len(samples))),
		Events:  len(samples),
		Point:   rk == 0,
		Samples: samples,
		Elapsed: time.Since(start),
	}
	logger.Info("flux estimate", "flux", est.Flux, "sigma", est.Sigma, "unit", est.Unit(), "elapsed", est.Elapsed)
	return est, nil
}
