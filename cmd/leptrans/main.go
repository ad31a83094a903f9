package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/leptrans/internal/config"
	"github.com/san-kum/leptrans/internal/metrics"
	"github.com/san-kum/leptrans/internal/storage"
	"github.com/san-kum/leptrans/internal/tables"
	"github.com/san-kum/leptrans/internal/tui"
)

type none = struct{}

var (
	configFile  string
	preset      string
	metricsAddr string
	plain       bool
	save        bool

	cfg       *config.Config
	logger    = slog.Default()
	collector *metrics.Collector
)

// bindings maps command flags onto configuration keys. Flags only override
// the configuration when set on the command line.
var bindings = map[string]map[string]string{
	"": {
		"species":   "species",
		"scheme":    "scheme",
		"seed":      "seed",
		"workers":   "workers",
		"data":      "data_dir",
		"log-level": "log_level",
	},
	"scan": {
		"kmin":  "flux.kinetic_min",
		"kmax":  "flux.kinetic_max",
		"model": "flux.model",
	},
	"flux": {
		"events":    "flux.events",
		"rock":      "flux.rock_thickness",
		"elevation": "flux.elevation",
		"kmin":      "flux.kinetic_min",
		"kmax":      "flux.kinetic_max",
		"model":     "flux.model",
	},
	"slab": {
		"events":    "slab.events",
		"material":  "slab.material",
		"thickness": "slab.thickness",
		"kinetic":   "slab.kinetic",
		"decay":     "decay",
	},
	"tally": {
		"events":  "slab.events",
		"kinetic": "slab.kinetic",
	},
	"track": {
		"kinetic": "slab.kinetic",
		"mode":    "mode",
	},
}

func main() {
	rootCmd := &cobra.Command{
		Use:               "leptrans",
		Short:             "monte-carlo transport of muons and taus through matter",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a preset configuration")
	pf.String("species", config.DefaultSpecies, "transported lepton (muon, tau)")
	pf.String("scheme", config.DefaultScheme, "stepping scheme (straight, hybrid, detailed)")
	pf.Uint64("seed", config.DefaultSeed, "random seed")
	pf.Int("workers", 0, "parallel workers, 0 for one per cpu")
	pf.String("data", config.DefaultDataDir, "data directory")
	pf.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	pf.BoolVar(&plain, "plain", false, "no progress view, plain output")
	pf.BoolVar(&save, "save", false, "store the run in the data directory")

	rootCmd.AddCommand(
		fluxCmd(),
		slabCmd(),
		tallyCmd(),
		trackCmd(),
		scanCmd(),
		listCmd(),
		plotCmd(),
		exportCmd(),
		presetsCmd(),
		materialsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup layers the configuration (defaults, preset, file, environment,
// flags) and starts the logger and the metrics endpoint.
func setup(cmd *cobra.Command, _ []string) error {
	base := config.DefaultConfig()
	if preset != "" {
		if base = config.GetPreset(preset); base == nil {
			return fmt.Errorf("unknown preset: %s (see leptrans presets)", preset)
		}
	}
	v, err := config.NewViper(base, configFile)
	if err != nil {
		return err
	}
	for _, group := range []string{"", cmd.Name()} {
		for name, key := range bindings[group] {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
	}
	if cfg, err = config.Decode(v); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if collector, err = metrics.NewCollector(reg); err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "addr", metricsAddr, "err", err)
			}
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}
	return nil
}

func buildTables() (*tables.Table, error) {
	start := time.Now()
	tbl, err := cfg.BuildTables()
	if err != nil {
		return nil, err
	}
	logger.Debug("tables built",
		"species", tbl.Species().Name,
		"materials", tbl.NumMaterials(),
		"nodes", len(tbl.KineticNodes()),
		"elapsed", time.Since(start))
	return tbl, nil
}

// execute runs work behind a progress view, or directly with --plain.
func execute(ctx context.Context, title string, total int, work func(context.Context, func(int)) (string, error)) error {
	if plain {
		summary, err := work(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Print(summary)
		return nil
	}
	return tui.Run(ctx, title, total, work)
}

func store(meta storage.RunMetadata, steps []metrics.Point) error {
	if !save {
		return nil
	}
	meta.Species = cfg.Species
	meta.Scheme = cfg.Scheme
	meta.Seed = cfg.Seed
	if meta.Mode == "" {
		meta.Mode = cfg.Mode
	}
	st := storage.New(cfg.DataDir).WithLogger(logger)
	id, err := st.Save(meta, steps)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}
