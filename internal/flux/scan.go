package flux

import (
	"context"
	"fmt"
	"maps"
)

// Grid is a cartesian product of setup parameters. Known names are
// elevation, rock, kinetic_min and kinetic_max.
type Grid struct {
	Names  []string
	Values [][]float64
}

type ScanPoint struct {
	Params   map[string]float64
	Estimate Estimate
}

func setParam(s *Setup, name string, v float64) error {
	switch name {
	case "elevation":
		s.Elevation = v
	case "rock":
		s.RockThickness = v
	case "kinetic_min":
		s.KineticMin = v
	case "kinetic_max":
		s.KineticMax = v
	default:
		return fmt.Errorf("%w: cannot scan %q", ErrSetup, name)
	}
	return nil
}

// Points enumerates the grid, the last parameter varying fastest.
func (g Grid) Points() ([]map[string]float64, error) {
	if len(g.Names) != len(g.Values) {
		return nil, fmt.Errorf("%w: %d names for %d value lists", ErrSetup, len(g.Names), len(g.Values))
	}
	var out []map[string]float64
	g.collect(0, map[string]float64{}, &out)
	return out, nil
}

func (g Grid) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.Names) {
		*out = append(*out, maps.Clone(current))
		return
	}
	for _, v := range g.Values[depth] {
		current[g.Names[depth]] = v
		g.collect(depth+1, current, out)
	}
}

// Scan runs one estimate per grid point, in order. A point with a kinetic
// minimum above its maximum takes a point estimate at the minimum.
func Scan(ctx context.Context, base Setup, grid Grid, each func(ScanPoint)) ([]ScanPoint, error) {
	points, err := grid.Points()
	if err != nil {
		return nil, err
	}
	out := make([]ScanPoint, 0, len(points))
	for _, params := range points {
		setup := base
		for _, name := range grid.Names {
			if err := setParam(&setup, name, params[name]); err != nil {
				return nil, err
			}
		}
		if setup.KineticMax < setup.KineticMin {
			setup.KineticMax = setup.KineticMin
		}
		est, err := Run(ctx, setup)
		if err != nil {
			return nil, fmt.Errorf("scan %v: %w", params, err)
		}
		p := ScanPoint{Params: params, Estimate: est}
		if each != nil {
			each(p)
		}
		out = append(out, p)
	}
	return out, nil
}
