package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/leptrans/internal/config"
	"github.com/san-kum/leptrans/internal/flux"
	"github.com/san-kum/leptrans/internal/metrics"
	"github.com/san-kum/leptrans/internal/storage"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, _ []string) error {
	runs, err := storage.New(cfg.DataDir).WithLogger(logger).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSPECIES\tSCHEME\tMODE\tEVENTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Species,
			run.Scheme,
			run.Mode,
			run.Events,
		)
	}
	return w.Flush()
}

func plotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the track of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir).WithLogger(logger)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	steps, err := st.LoadSteps(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("kind: %s\n", meta.Kind)
	printMetrics(meta.Metrics)
	if len(steps) < 2 {
		fmt.Println("\nno track to plot")
		return nil
	}
	fmt.Printf("steps: %d\n\n", len(steps)-1)

	series := []struct {
		caption string
		value   func(metrics.Point) float64
	}{
		{"kinetic energy (GeV)", func(p metrics.Point) float64 { return p.Kinetic }},
		{"altitude (m)", func(p metrics.Point) float64 { return p.Z }},
		{"distance (m)", func(p metrics.Point) float64 { return p.Distance }},
		{"weight", func(p metrics.Point) float64 { return p.Weight }},
	}
	for _, s := range series {
		data := make([]float64, len(steps))
		for i, p := range steps {
			data[i] = s.value(p)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-20s %.6g\n", name, values[name])
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringP("output", "o", "", "output file, stdout when empty")
	cmd.Flags().String("svg", "", "also draw the track to this svg file")
	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir).WithLogger(logger)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	steps, err := st.LoadSteps(meta.ID)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("svg"); path != "" {
		svg := storage.TrackSVG(steps, 800, 600, nil)
		if svg == "" {
			return fmt.Errorf("run %s has no track to draw", meta.ID)
		}
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		logger.Info("track drawn", "run", meta.ID, "path", path)
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return storage.ExportJSON(os.Stdout, *meta, steps)
	}
	if err := storage.ExportFile(out, *meta, steps); err != nil {
		return err
	}
	logger.Info("exported", "run", meta.ID, "path", out)
	return nil
}

func presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range config.ListPresets() {
					fmt.Println(name)
				}
				return nil
			}
			p := config.GetPreset(args[0])
			if p == nil {
				return fmt.Errorf("unknown preset: %s", args[0])
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(p)
		},
	}
	return cmd
}

func materialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "list known materials and flux models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MATERIAL\tA (GeV m^2/kg)\tB (m^2/kg)\tX0 (kg/m^2)\tDENSITY (kg/m^3)")
			for _, d := range cfg.MaterialDefs() {
				fmt.Fprintf(w, "%s\t%.3g\t%.3g\t%.4g\t%.4g\n", d.Name, d.Ionisation, d.Radiative, d.RadiationLength, d.Density)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println("\nflux models:")
			for _, name := range flux.ListModels() {
				fmt.Println("  " + name)
			}
			return nil
		},
	}
}
