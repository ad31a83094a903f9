// Package metrics derives summary values, trajectories and prometheus
// series from transport steps.
package metrics

import "github.com/san-kum/leptrans/internal/transport"

// Sample is the part of a step that metrics look at.
type Sample struct {
	Index  int
	Length float64
	Bound  transport.Bound
	Medium string
	State  transport.State
}

func SampleOf[U any](step *transport.Step[U]) Sample {
	s := Sample{
		Index:  step.Index,
		Length: step.Length,
		Bound:  step.Bound,
		State:  step.State,
	}
	if step.Medium != nil {
		s.Medium = step.Medium.Name
	}
	return s
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Set feeds every step to a list of metrics.
type Set[U any] struct {
	metrics []Metric
}

func NewSet[U any](metrics ...Metric) *Set[U] {
	return &Set[U]{metrics: metrics}
}

func (s *Set[U]) Add(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Set[U]) OnStep(step *transport.Step[U]) {
	sample := SampleOf(step)
	for _, m := range s.metrics {
		m.Observe(sample)
	}
}

func (s *Set[U]) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set[U]) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Multi fans a step out to several observers.
func Multi[U any](observers ...transport.Observer[U]) transport.Observer[U] {
	return transport.ObserverFunc[U](func(step *transport.Step[U]) {
		for _, o := range observers {
			if o != nil {
				o.OnStep(step)
			}
		}
	})
}
