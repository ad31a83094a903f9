package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/leptrans/internal/flux"
	"github.com/san-kum/leptrans/internal/storage"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "flux estimates over a grid of elevations and rock thicknesses",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	f := cmd.Flags()
	f.Int("events", 2000, "monte-carlo events per grid point")
	f.Float64Slice("elevation", []float64{10, 30, 50, 70, 90}, "elevation angles (deg)")
	f.Float64Slice("rock", []float64{0}, "rock thicknesses (m)")
	f.Float64("kmin", 1, "minimum kinetic energy at the detector (GeV)")
	f.Float64("kmax", 1e3, "maximum kinetic energy at the detector (GeV)")
	f.String("model", "gccly", "flux model at the top of the atmosphere")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	tbl, err := buildTables()
	if err != nil {
		return err
	}
	base, err := cfg.FluxSetup(tbl)
	if err != nil {
		return err
	}
	base.Logger = logger
	base.Events, _ = cmd.Flags().GetInt("events")
	elevations, _ := cmd.Flags().GetFloat64Slice("elevation")
	rocks, _ := cmd.Flags().GetFloat64Slice("rock")
	grid := flux.Grid{
		Names:  []string{"rock", "elevation"},
		Values: [][]float64{rocks, elevations},
	}

	var points []flux.ScanPoint
	total := len(rocks) * len(elevations)
	work := func(ctx context.Context, report func(int)) (string, error) {
		done := 0
		p, err := flux.Scan(ctx, base, grid, func(flux.ScanPoint) {
			done++
			if report != nil {
				report(done)
			}
		})
		if err != nil {
			return "", err
		}
		points = p
		return scanTable(points), nil
	}
	if err := execute(cmd.Context(), "scan", total, work); err != nil {
		return err
	}

	if len(elevations) > 1 {
		for i := 0; i < len(points); i += len(elevations) {
			row := make([]float64, len(elevations))
			for j := range row {
				row[j] = points[i+j].Estimate.Flux
			}
			fmt.Println()
			fmt.Println(asciigraph.Plot(row,
				asciigraph.Height(10),
				asciigraph.Width(60),
				asciigraph.Caption(fmt.Sprintf("flux vs elevation, %g m of rock", points[i].Params["rock"])),
			))
		}
	}

	values := make(map[string]float64, len(points))
	for _, p := range points {
		values[fmt.Sprintf("flux_r%g_e%g", p.Params["rock"], p.Params["elevation"])] = p.Estimate.Flux
	}
	return store(storage.RunMetadata{
		Kind:    "scan",
		Mode:    "backward",
		Events:  base.Events * total,
		Metrics: values,
	}, nil)
}

func scanTable(points []flux.ScanPoint) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\n   ROCK (m)\tELEVATION (deg)\tFLUX\tSIGMA")
	for _, p := range points {
		fmt.Fprintf(w, "   %g\t%g\t%.4e\t%.2e\n", p.Params["rock"], p.Params["elevation"], p.Estimate.Flux, p.Estimate.Sigma)
	}
	w.Flush()
	if len(points) > 0 {
		fmt.Fprintf(&b, "   unit: %s\n", points[0].Estimate.Unit())
	}
	return b.String()
}

