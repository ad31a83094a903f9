package geometry

import (
	"fmt"
	"math"

	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis aligned box.
type Box[U any] struct {
	Medium *transport.Medium[U]
	Center r3.Vec
	Half   r3.Vec // half widths
}

func (b Box[U]) Contains(p r3.Vec) bool {
	d := r3.Sub(p, b.Center)
	return math.Abs(d.X) <= b.Half.X && math.Abs(d.Y) <= b.Half.Y && math.Abs(d.Z) <= b.Half.Z
}

// Nested is a set of boxes, innermost first. It does not compute distances
// to boundaries: every lookup proposes the same Step and crossings are left
// to the stepper.
type Nested[U any] struct {
	Boxes []Box[U]
	Step  float64
}

func NewNested[U any](step float64, boxes ...Box[U]) (*Nested[U], error) {
	if len(boxes) == 0 {
		return nil, fmt.Errorf("%w: no boxes", ErrLayout)
	}
	for i, b := range boxes {
		if b.Medium == nil {
			return nil, fmt.Errorf("%w: box %d has no medium", ErrLayout, i)
		}
		if b.Half.X <= 0 || b.Half.Y <= 0 || b.Half.Z <= 0 {
			return nil, fmt.Errorf("%w: box %d has half widths %v", ErrLayout, i, b.Half)
		}
	}
	return &Nested[U]{Boxes: boxes, Step: step}, nil
}

func (n *Nested[U]) Medium(_ *transport.Context[U], s *transport.State) (*transport.Medium[U], float64) {
	for _, b := range n.Boxes {
		if b.Contains(s.Position) {
			return b.Medium, n.Step
		}
	}
	return nil, 0
}

// Cubes returns boxes centred on the origin, one per half width.
func Cubes[U any](media []*transport.Medium[U], halves []float64) []Box[U] {
	boxes := make([]Box[U], 0, len(media))
	for i, m := range media {
		h := halves[i]
		boxes = append(boxes, Box[U]{Medium: m, Half: r3.Vec{X: h, Y: h, Z: h}})
	}
	return boxes
}
