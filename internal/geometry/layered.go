// Package geometry provides media resolvers and locals for common
// simulation layouts: stacks of horizontal layers, an exponential
// atmosphere and nested boxes.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/leptrans/internal/transport"
)

var ErrLayout = errors.New("geometry: invalid layout")

// DefaultPush is how far past a boundary a proposed step lands, so that the
// next lookup resolves the medium on the other side.
const DefaultPush = 1e-7

// Layer is a horizontal slab ending at Top. Its bottom is the top of the
// previous layer.
type Layer[U any] struct {
	Medium *transport.Medium[U]
	Top    float64
}

// Layered stacks layers upwards from Bottom. A point belongs to the layer
// with bottom <= z < top. Points below Bottom or above the last Top are
// outside of the simulation.
type Layered[U any] struct {
	Bottom float64
	Layers []Layer[U]
	Push   float64
}

func NewLayered[U any](bottom float64, layers ...Layer[U]) (*Layered[U], error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrLayout)
	}
	lo := bottom
	for i, l := range layers {
		if l.Medium == nil {
			return nil, fmt.Errorf("%w: layer %d has no medium", ErrLayout, i)
		}
		if !(l.Top > lo) {
			return nil, fmt.Errorf("%w: layer %d top %g not above %g", ErrLayout, i, l.Top, lo)
		}
		lo = l.Top
	}
	return &Layered[U]{Bottom: bottom, Layers: layers, Push: DefaultPush}, nil
}

// Top returns the upper end of the stack.
func (l *Layered[U]) Top() float64 {
	return l.Layers[len(l.Layers)-1].Top
}

// Medium implements transport.Resolver. The proposed step is the distance
// to the layer boundary along the direction of motion, or 0 for horizontal
// tracks.
func (l *Layered[U]) Medium(ctx *transport.Context[U], s *transport.State) (*transport.Medium[U], float64) {
	z := s.Position.Z
	if z < l.Bottom {
		return nil, 0
	}
	lo := l.Bottom
	for _, layer := range l.Layers {
		if z < layer.Top {
			uz := ctx.Heading() * s.Direction.Z
			var d float64
			switch {
			case uz > 0:
				d = (layer.Top - z) / uz
			case uz < 0:
				d = (lo - z) / uz
			default:
				return layer.Medium, 0
			}
			return layer.Medium, math.Max(d, 0) + l.Push
		}
		lo = layer.Top
	}
	return nil, 0
}
