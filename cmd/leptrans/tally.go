package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leptrans/internal/config"
	"github.com/san-kum/leptrans/internal/geometry"
	"github.com/san-kum/leptrans/internal/metrics"
	"github.com/san-kum/leptrans/internal/storage"
	"github.com/san-kum/leptrans/internal/transport"
)

func tallyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "distance and grammage travelled in each medium of the geometry",
		Args:  cobra.NoArgs,
		RunE:  runTally,
	}
	f := cmd.Flags()
	f.Int("events", 1000, "number of monte-carlo events")
	f.Float64("kinetic", 10, "initial kinetic energy (GeV)")
	f.Bool("boxes", false, "nest the layers as cubes around the origin")
	f.Float64("step", 1, "step proposed inside boxes (m)")
	return cmd
}

func runTally(cmd *cobra.Command, _ []string) error {
	tbl, err := buildTables()
	if err != nil {
		return err
	}
	layered, err := config.Layers[*geometry.Tally](cfg, tbl)
	if err != nil {
		return err
	}

	tally := geometry.NewTally()
	ctx, err := transport.NewContext[*geometry.Tally](tbl, tally)
	if err != nil {
		return err
	}
	if err := config.Apply(cfg, ctx); err != nil {
		return err
	}
	if ctx.Mode != transport.Forward {
		logger.Warn("tally runs forward only, ignoring mode", "mode", ctx.Mode)
		ctx.Mode = transport.Forward
	}
	ctx.Random = rand.New(rand.NewPCG(cfg.Seed, 0))
	if collector != nil {
		ctx.Observer = metrics.Observer[*geometry.Tally](collector)
	}

	start := r3.Vec{Z: layered.Bottom}
	ctx.Medium = layered
	boxes, _ := cmd.Flags().GetBool("boxes")
	if boxes {
		step, _ := cmd.Flags().GetFloat64("step")
		media := make([]*transport.Medium[*geometry.Tally], len(layered.Layers))
		halves := make([]float64, len(layered.Layers))
		for i, l := range layered.Layers {
			media[i] = l.Medium
			halves[i] = l.Top - layered.Bottom
		}
		nested, err := geometry.NewNested(step, geometry.Cubes(media, halves)...)
		if err != nil {
			return err
		}
		ctx.Medium = nested
		start = r3.Vec{}
	}

	events := cfg.Slab.Events
	outcomes := make(map[transport.Event]int)
	work := func(c context.Context, report func(int)) (string, error) {
		for i := 0; i < events; i++ {
			if err := c.Err(); err != nil {
				return "", err
			}
			s := transport.NewState(-1, cfg.Slab.Kinetic, start, r3.Vec{Z: 1})
			ev, err := geometry.Survey(ctx, &s)
			if err != nil {
				return "", fmt.Errorf("event %d: %w", i, err)
			}
			if collector != nil {
				collector.Event(ev)
			}
			outcomes[ev]++
			if report != nil {
				report(i + 1)
			}
		}
		return tallySummary(tally, events, outcomes), nil
	}
	if err := execute(cmd.Context(), "tally", events, work); err != nil {
		return err
	}

	values := map[string]float64{"crossings": float64(tally.Crossings) / float64(events)}
	for _, name := range tally.Media() {
		values["distance_"+name] = tally.Distance[name] / float64(events)
		values["grammage_"+name] = tally.Grammage[name] / float64(events)
	}
	return store(storage.RunMetadata{
		Kind:    "tally",
		Events:  events,
		Params:  map[string]float64{"kinetic": cfg.Slab.Kinetic},
		Metrics: values,
	}, nil)
}

func tallySummary(t *geometry.Tally, events int, outcomes map[transport.Event]int) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\n   MEDIUM\tDISTANCE (m)\tGRAMMAGE (kg/m^2)")
	n := float64(events)
	for _, name := range t.Media() {
		fmt.Fprintf(w, "   %s\t%.4g\t%.4g\n", name, t.Distance[name]/n, t.Grammage[name]/n)
	}
	w.Flush()
	fmt.Fprintf(&b, "\n   crossings per event: %.3g\n", float64(t.Crossings)/n)
	for _, ev := range []transport.Event{transport.EventMedium, transport.EventLimitKinetic, transport.EventLimitDistance,
		transport.EventLimitTime, transport.EventDecay, transport.EventWeight} {
		if k := outcomes[ev]; k > 0 {
			fmt.Fprintf(&b, "   %-16s %d\n", ev, k)
		}
	}
	return b.String()
}
