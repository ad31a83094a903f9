package metrics

import "github.com/san-kum/leptrans/internal/transport"

// Point is one recorded step of a trajectory.
type Point struct {
	Step     int     `json:"step"`
	Medium   string  `json:"medium"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Kinetic  float64 `json:"kinetic"`
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
	Weight   float64 `json:"weight"`
	Bound    string  `json:"bound"`
}

func PointOf(s Sample) Point {
	return Point{
		Step:     s.Index,
		Medium:   s.Medium,
		X:        s.State.Position.X,
		Y:        s.State.Position.Y,
		Z:        s.State.Position.Z,
		Kinetic:  s.State.Kinetic,
		Distance: s.State.Distance,
		Time:     s.State.Time,
		Weight:   s.State.Weight,
		Bound:    s.Bound.String(),
	}
}

// Track records the trajectory of a particle. Steps are numbered across
// transport calls. A zero Limit keeps every step.
type Track[U any] struct {
	Points []Point
	Limit  int
	count  int
}

func NewTrack[U any](limit int) *Track[U] {
	return &Track[U]{Limit: limit}
}

// Start records the initial state.
func (t *Track[U]) Start(s transport.State) {
	t.Points = append(t.Points[:0], PointOf(Sample{State: s}))
	t.count = 0
}

func (t *Track[U]) OnStep(step *transport.Step[U]) {
	if t.Limit > 0 && len(t.Points) >= t.Limit {
		return
	}
	t.count++
	p := PointOf(SampleOf(step))
	p.Step = t.count
	t.Points = append(t.Points, p)
}

// Series extracts one column of the trajectory.
func (t *Track[U]) Series(f func(Point) float64) []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = f(p)
	}
	return out
}
