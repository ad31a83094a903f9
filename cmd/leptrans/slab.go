package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/leptrans/internal/flux"
	"github.com/san-kum/leptrans/internal/metrics"
	"github.com/san-kum/leptrans/internal/storage"
	"github.com/san-kum/leptrans/internal/tui"
	"gonum.org/v1/gonum/stat"
)

func slabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slab",
		Short: "forward transmission of mono-energetic leptons through a slab",
		Args:  cobra.NoArgs,
		RunE:  runSlab,
	}
	f := cmd.Flags()
	f.Int("events", 1000, "number of monte-carlo events")
	f.String("material", "StandardRock", "slab material")
	f.Float64("thickness", 10, "slab thickness (m)")
	f.Float64("kinetic", 10, "initial kinetic energy (GeV)")
	f.String("decay", "none", "decay handling (none, weight, process)")
	return cmd
}

func runSlab(cmd *cobra.Command, _ []string) error {
	tbl, err := buildTables()
	if err != nil {
		return err
	}
	setup, err := cfg.SlabSetup(tbl)
	if err != nil {
		return err
	}
	setup.Logger = logger
	if collector != nil {
		setup.Observer = metrics.Observer[none](collector)
		setup.OnEvent = collector.Event
	}

	var res flux.SlabResult
	work := func(ctx context.Context, report func(int)) (string, error) {
		setup.Progress = report
		r, err := flux.RunSlab(ctx, setup)
		if err != nil {
			return "", err
		}
		res = r
		return slabSummary(setup, res), nil
	}
	if err := execute(cmd.Context(), "slab", setup.Events, work); err != nil {
		return err
	}
	return store(storage.RunMetadata{
		Kind:   "slab",
		Events: setup.Events,
		Params: map[string]float64{
			"thickness": setup.Thickness,
			"kinetic":   setup.Kinetic,
		},
		Metrics: map[string]float64{
			"transmission": res.Transmission(),
			"mean_energy":  res.MeanEnergy,
			"std_energy":   res.StdEnergy,
			"seconds":      res.Elapsed.Seconds(),
		},
	}, nil)
}

func slabSummary(s flux.Slab, res flux.SlabResult) string {
	rows := [][2]string{
		{"slab", fmt.Sprintf("%g m of %s", s.Thickness, s.Material)},
		{"initial", fmt.Sprintf("%g GeV", s.Kinetic)},
		{"transmitted", fmt.Sprintf("%d (%.1f %%)", res.Transmitted, 100*res.Transmission())},
		{"stopped", fmt.Sprint(res.Stopped)},
		{"reflected", fmt.Sprint(res.Reflected)},
	}
	if res.Decayed > 0 {
		rows = append(rows, [2]string{"decayed", fmt.Sprint(res.Decayed)})
	}
	if res.Transmitted > 0 {
		rows = append(rows,
			[2]string{"exit energy", fmt.Sprintf("%.4g ± %.2g GeV", res.MeanEnergy, res.StdEnergy)},
			[2]string{"deflection", fmt.Sprintf("%.3g mrad", 1e3*stat.Mean(res.Deflections, nil))},
		)
	}
	rows = append(rows, [2]string{"elapsed", res.Elapsed.Round(1e6).String()})
	return tui.Summary("slab", rows)
}
