package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/leptrans/internal/transport"
)

// Collector exports transport activity as prometheus series. It is safe
// for concurrent use and can observe several contexts at once.
type Collector struct {
	steps    *prometheus.CounterVec
	lengths  prometheus.Histogram
	distance *prometheus.CounterVec
	events   *prometheus.CounterVec
	flux     prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leptrans",
			Name:      "steps_total",
			Help:      "Transport steps, by limiting constraint.",
		}, []string{"bound"}),
		lengths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leptrans",
			Name:      "step_length_meters",
			Help:      "Length of transport steps.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 12),
		}),
		distance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leptrans",
			Name:      "distance_meters_total",
			Help:      "Path length travelled, by medium.",
		}, []string{"medium"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leptrans",
			Name:      "events_total",
			Help:      "Transport calls, by returned event.",
		}, []string{"event"}),
		flux: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leptrans",
			Name:      "flux_estimate",
			Help:      "Running flux estimate of the current run.",
		}),
	}
	for _, col := range []prometheus.Collector{c.steps, c.lengths, c.distance, c.events, c.flux} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Observe(s Sample) {
	c.steps.WithLabelValues(s.Bound.String()).Inc()
	c.lengths.Observe(s.Length)
	if s.Medium != "" {
		c.distance.WithLabelValues(s.Medium).Add(s.Length)
	}
}

func (c *Collector) Event(ev transport.Event) {
	c.events.WithLabelValues(ev.String()).Inc()
}

func (c *Collector) SetFlux(v float64) {
	c.flux.Set(v)
}

// Observer returns a transport observer feeding c.
func Observer[U any](c *Collector) transport.Observer[U] {
	return transport.ObserverFunc[U](func(step *transport.Step[U]) {
		c.Observe(SampleOf(step))
	})
}
