package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leptrans/internal/config"
	"github.com/san-kum/leptrans/internal/metrics"
	"github.com/san-kum/leptrans/internal/storage"
	"github.com/san-kum/leptrans/internal/transport"
	"github.com/san-kum/leptrans/internal/tui"
)

func trackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "transport a single lepton through the geometry and draw its track",
		Args:  cobra.NoArgs,
		RunE:  runTrack,
	}
	f := cmd.Flags()
	f.Float64("kinetic", 10, "initial kinetic energy (GeV)")
	f.String("mode", "forward", "transport direction (forward, backward)")
	f.Int("limit", 0, "maximum number of recorded steps, 0 for all")
	f.Int("width", 70, "canvas width")
	f.Int("height", 20, "canvas height")
	return cmd
}

func runTrack(cmd *cobra.Command, _ []string) error {
	tbl, err := buildTables()
	if err != nil {
		return err
	}
	geo, err := config.Layers[none](cfg, tbl)
	if err != nil {
		return err
	}
	ctx, err := transport.NewContext[none](tbl, none{})
	if err != nil {
		return err
	}
	if err := config.Apply(cfg, ctx); err != nil {
		return err
	}
	ctx.Medium = geo
	ctx.Random = rand.New(rand.NewPCG(cfg.Seed, 0))

	limit, _ := cmd.Flags().GetInt("limit")
	track := metrics.NewTrack[none](limit)
	set := metrics.NewSet[none](
		metrics.NewEnergyDrift(),
		metrics.NewMeanStep(),
		metrics.NewDeflection(),
		metrics.NewBoundShare(transport.BoundGeometry),
	)
	var observers []transport.Observer[none]
	observers = append(observers, track, set)
	if collector != nil {
		observers = append(observers, metrics.Observer[none](collector))
	}
	ctx.Observer = metrics.Multi(observers...)

	// a backward track ends at the bottom, coming from above
	dir := r3.Vec{Z: 1}
	if ctx.Mode == transport.Backward {
		dir = r3.Vec{Z: -1}
	}
	s := transport.NewState(-1, cfg.Slab.Kinetic, r3.Vec{Z: geo.Bottom}, dir)
	track.Start(s)

	var res transport.Result[none]
	for {
		if res, err = ctx.Transport(&s); err != nil {
			return err
		}
		if collector != nil {
			collector.Event(res.Event)
		}
		if res.Event != transport.EventMedium || res.Media[1] == nil {
			break
		}
	}

	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	bounds := []float64{geo.Bottom}
	for _, l := range geo.Layers {
		bounds = append(bounds, l.Top)
	}
	fmt.Print(tui.NewTrackView(width, height, bounds...).Render(track.Points))

	if len(track.Points) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(track.Series(func(p metrics.Point) float64 { return p.Kinetic }),
			asciigraph.Height(10),
			asciigraph.Width(width),
			asciigraph.Caption("kinetic energy (GeV) vs step"),
		))
	}
	fmt.Printf("\n  event: %s\n", res.Event)

	values := set.Values()
	values["final_kinetic"] = s.Kinetic
	values["final_weight"] = s.Weight
	return store(storage.RunMetadata{
		Kind:    "track",
		Mode:    ctx.Mode.String(),
		Events:  1,
		Params:  map[string]float64{"kinetic": track.Points[0].Kinetic},
		Metrics: values,
	}, track.Points)
}
