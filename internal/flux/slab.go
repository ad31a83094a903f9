package flux

import (
	"context"
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

// Slab is a forward run of mono-energetic leptons shot vertically through a
// uniform slab of matter.
type Slab struct {
	Table     *tables.Table
	Material  string
	Density   float64 // kg/m^3, 0 for the nominal density
	Thickness float64 // m
	Kinetic   float64 // GeV
	Charge    float64
	Scheme    transport.Scheme
	Decay     transport.DecayMode

	Events  int
	Workers int
	Seed    uint64

	Observer transport.Observer[none]
	OnEvent  func(transport.Event)
	Progress func(done int)
	Logger   *slog.Logger
}

type SlabResult struct {
	Transmitted int
	Stopped     int
	Reflected   int
	Decayed     int
	// kinetic energies and polar deflections of transmitted particles
	Energies    []float64
	Deflections []float64
	MeanEnergy  float64
	StdEnergy   float64
	Elapsed     time.Duration
}

// Transmission is the fraction of events leaving through the far side.
func (r SlabResult) Transmission() float64 {
	n := r.Transmitted + r.Stopped + r.Reflected + r.Decayed
	if n == 0 {
		return 0
	}
	return float64(r.Transmitted) / float64(n)
}

type outcome struct {
	kind       int
	kinetic    float64
	deflection float64
}

const (
	kindStopped = iota
	kindTransmitted
	kindReflected
	kindDecayed
)

func (s *Slab) check() error {
	switch {
	case s.Table == nil:
		return fmt.Errorf("%w: no tables", ErrSetup)
	case s.Thickness <= 0:
		return fmt.Errorf("%w: slab thickness must be positive", ErrSetup)
	case s.Kinetic <= 0:
		return fmt.Errorf("%w: kinetic energy must be positive", ErrSetup)
	case s.Events <= 0:
		return fmt.Errorf("%w: no events", ErrSetup)
	case s.Density < 0:
		return fmt.Errorf("%w: negative density", ErrSetup)
	}
	return nil
}

// RunSlab transports every event until it leaves the slab or stops.
func RunSlab(ctx context.Context, setup Slab) (SlabResult, error) {
	if err := setup.check(); err != nil {
		return SlabResult{}, err
	}
	logger := setup.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m, err := medium(setup.Table, setup.Material, nil)
	if err != nil {
		return SlabResult{}, err
	}
	density := setup.Density
	if density == 0 {
		def, err := setup.Table.Material(m.Material)
		if err != nil {
			return SlabResult{}, err
		}
		density = def.Density
	}
	m.Locals = geometry.Uniform[none](density, r3.Vec{})
	geo, err := geometry.NewLayered(0, geometry.Layer[none]{Medium: m, Top: setup.Thickness})
	if err != nil {
		return SlabResult{}, err
	}
	charge := setup.Charge
	if charge == 0 {
		charge = -1
	}

	base, err := transport.NewContext[none](setup.Table, none{})
	if err != nil {
		return SlabResult{}, err
	}
	base.Scheme = setup.Scheme
	base.Decay = setup.Decay
	base.Medium = geo
	base.Observer = setup.Observer
	if setup.Decay == transport.DecayProcess {
		base.Events = transport.EventDecay
	}

	workers := workerCount(setup.Workers, setup.Events)
	contexts := make([]*transport.Context[none], workers)
	for i := range contexts {
		contexts[i] = base.Clone(none{})
	}

	logger.Info("slab run",
		"events", setup.Events,
		"workers", workers,
		"material", setup.Material,
		"thickness", setup.Thickness,
		"kinetic", setup.Kinetic,
		"scheme", setup.Scheme)

	start := time.Now()
	outcomes := make([]outcome, setup.Events)
	err = fanOut(ctx, workers, setup.Events, setup.Seed, setup.Progress, func(w int, rnd *rand.Rand, i int) error {
		tc := contexts[w]
		tc.Random = rnd
		s := transport.NewState(charge, setup.Kinetic, r3.Vec{}, r3.Vec{Z: 1})
		res, err := tc.Transport(&s)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if setup.OnEvent != nil {
			setup.OnEvent(res.Event)
		}
		o := outcome{kinetic: s.Kinetic, deflection: math.Acos(math.Max(-1, math.Min(1, s.Direction.Z)))}
		switch {
		case res.Event == transport.EventDecay:
			o.kind = kindDecayed
		case res.Event == transport.EventMedium && s.Position.Z >= setup.Thickness:
			o.kind = kindTransmitted
		case res.Event == transport.EventMedium:
			o.kind = kindReflected
		default:
			o.kind = kindStopped
		}
		outcomes[i] = o
		return nil
	})
	if err != nil {
		return SlabResult{}, err
	}

	var out SlabResult
	for _, o := range outcomes {
		switch o.kind {
		case kindTransmitted:
			out.Transmitted++
			out.Energies = append(out.Energies, o.kinetic)
			out.Deflections = append(out.Deflections, o.deflection)
		case kindReflected:
			out.Reflected++
		case kindDecayed:
			out.Decayed++
		default:
			out.Stopped++
		}
	}
	switch len(out.Energies) {
	case 0:
	case 1:
		out.MeanEnergy = out.Energies[0]
	default:
		out.MeanEnergy, out.StdEnergy = stat.MeanStdDev(out.Energies, nil)
	}
	out.Elapsed = time.Since(start)
	logger.Info("slab result",
		"transmitted", out.Transmitted,
		"stopped", out.Stopped,
		"reflected", out.Reflected,
		"decayed", out.Decayed,
		"mean_energy", out.MeanEnergy,
		"elapsed", out.Elapsed)
	return out, nil
}
