package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/leptrans/internal/flux"
	"github.com/san-kum/leptrans/internal/metrics"
	"github.com/san-kum/leptrans/internal/storage"
	"github.com/san-kum/leptrans/internal/tui"
)

func fluxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flux",
		Short: "backward estimate of the atmospheric muon flux below rock",
		Long: "Draws final energies log-uniformly between kmin and kmax and transports them backwards\n" +
			"through the rock and the atmosphere. Flux models: " + strings.Join(flux.ListModels(), ", ") + ".",
		Args: cobra.NoArgs,
		RunE: runFlux,
	}
	f := cmd.Flags()
	f.Int("events", 10000, "number of monte-carlo events")
	f.Float64("rock", 0, "rock thickness above the detector (m)")
	f.Float64("elevation", 90, "elevation angle of the observation (deg)")
	f.Float64("kmin", 1, "minimum kinetic energy at the detector (GeV)")
	f.Float64("kmax", 1e3, "maximum kinetic energy at the detector (GeV)")
	f.String("model", "gccly", "flux model at the top of the atmosphere")
	return cmd
}

func runFlux(cmd *cobra.Command, _ []string) error {
	tbl, err := buildTables()
	if err != nil {
		return err
	}
	setup, err := cfg.FluxSetup(tbl)
	if err != nil {
		return err
	}
	setup.Logger = logger
	if collector != nil {
		setup.Observer = metrics.Observer[none](collector)
		setup.OnEvent = collector.Event
	}

	var est flux.Estimate
	work := func(ctx context.Context, report func(int)) (string, error) {
		setup.Progress = report
		e, err := flux.Run(ctx, setup)
		if err != nil {
			return "", err
		}
		est = e
		return fluxSummary(setup, est), nil
	}
	if err := execute(cmd.Context(), "flux", setup.Events, work); err != nil {
		return err
	}
	if collector != nil {
		collector.SetFlux(est.Flux)
	}
	return store(storage.RunMetadata{
		Kind:   "flux",
		Mode:   "backward",
		Events: est.Events,
		Params: map[string]float64{
			"rock":        setup.RockThickness,
			"elevation":   setup.Elevation,
			"kinetic_min": setup.KineticMin,
			"kinetic_max": setup.KineticMax,
		},
		Metrics: map[string]float64{
			"flux":    est.Flux,
			"sigma":   est.Sigma,
			"seconds": est.Elapsed.Seconds(),
		},
	}, nil)
}

func fluxSummary(s flux.Setup, est flux.Estimate) string {
	energy := fmt.Sprintf("%g GeV", s.KineticMin)
	if !est.Point {
		energy = fmt.Sprintf("%g - %g GeV", s.KineticMin, s.KineticMax)
	}
	rel := 0.0
	if est.Flux > 0 {
		rel = 100 * est.Sigma / est.Flux
	}
	return tui.Summary("flux", [][2]string{
		{"rock", fmt.Sprintf("%g m", s.RockThickness)},
		{"elevation", fmt.Sprintf("%g deg", s.Elevation)},
		{"energy", energy},
		{"events", fmt.Sprint(est.Events)},
		{"flux", fmt.Sprintf("%.4e ± %.1e %s", est.Flux, est.Sigma, est.Unit())},
		{"precision", fmt.Sprintf("%.2f %%", rel)},
		{"elapsed", est.Elapsed.Round(1e6).String()},
	})
}
