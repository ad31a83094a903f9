package geometry

import (
	"sort"

	"github.com/san-kum/leptrans/internal/transport"
)

// Tally accumulates the path travelled in each medium, keyed by name.
type Tally struct {
	Distance  map[string]float64
	Grammage  map[string]float64
	Crossings int
}

func NewTally() *Tally {
	return &Tally{
		Distance: make(map[string]float64),
		Grammage: make(map[string]float64),
	}
}

func (t *Tally) Add(medium string, distance, grammage float64) {
	t.Distance[medium] += distance
	t.Grammage[medium] += grammage
}

// Media returns the tallied media names, sorted.
func (t *Tally) Media() []string {
	names := make([]string, 0, len(t.Distance))
	for name := range t.Distance {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Tally) Merge(other *Tally) {
	for name, d := range other.Distance {
		t.Add(name, d, other.Grammage[name])
	}
	t.Crossings += other.Crossings
}

// Survey transports s across media boundaries until it leaves the
// geometry or another event stops it, tallying each traversed medium in
// the context user data. The event mask of ctx is restored on return.
func Survey(ctx *transport.Context[*Tally], s *transport.State) (transport.Event, error) {
	defer func(events transport.Event) { ctx.Events = events }(ctx.Events)
	ctx.Events |= transport.EventMedium
	for {
		d0, x0 := s.Distance, s.Grammage
		res, err := ctx.Transport(s)
		if err != nil {
			return transport.EventNone, err
		}
		if m := res.Media[0]; m != nil {
			ctx.UserData.Add(m.Name, s.Distance-d0, s.Grammage-x0)
		}
		if res.Event != transport.EventMedium {
			return res.Event, nil
		}
		if res.Media[1] == nil {
			return res.Event, nil
		}
		ctx.UserData.Crossings++
	}
}
