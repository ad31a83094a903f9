// Package config holds the run configuration of the leptrans CLI. Files are
// yaml, layered under LEPTRANS_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/leptrans/internal/tables"
)

var ErrConfig = errors.New("config: invalid configuration")

const (
	DefaultSpecies   = "muon"
	DefaultScheme    = "detailed"
	DefaultSeed      = 1
	DefaultDataDir   = "./runs"
	DefaultLogLevel  = "info"
	DefaultElevation = 90.0
	DefaultTop       = 1e3
)

type Config struct {
	Species      string               `yaml:"species" mapstructure:"species"`
	Scheme       string               `yaml:"scheme" mapstructure:"scheme"`
	Mode         string               `yaml:"mode" mapstructure:"mode"`
	Decay        string               `yaml:"decay" mapstructure:"decay"`
	Longitudinal bool                 `yaml:"longitudinal" mapstructure:"longitudinal"`
	Strict       bool                 `yaml:"strict" mapstructure:"strict"`
	Events       []string             `yaml:"events" mapstructure:"events"`
	Limits       LimitsConfig         `yaml:"limits" mapstructure:"limits"`
	Accuracy     AccuracyConfig       `yaml:"accuracy" mapstructure:"accuracy"`
	Tables       TablesConfig         `yaml:"tables" mapstructure:"tables"`
	Materials    []tables.MaterialDef `yaml:"materials,omitempty" mapstructure:"materials"`
	Geometry     GeometryConfig       `yaml:"geometry" mapstructure:"geometry"`
	Flux         FluxConfig           `yaml:"flux" mapstructure:"flux"`
	Slab         SlabConfig           `yaml:"slab" mapstructure:"slab"`
	Seed         uint64               `yaml:"seed" mapstructure:"seed"`
	Workers      int                  `yaml:"workers" mapstructure:"workers"`
	DataDir      string               `yaml:"data_dir" mapstructure:"data_dir"`
	LogLevel     string               `yaml:"log_level" mapstructure:"log_level"`
}

type LimitsConfig struct {
	Kinetic  float64 `yaml:"kinetic" mapstructure:"kinetic"`
	Distance float64 `yaml:"distance" mapstructure:"distance"`
	Time     float64 `yaml:"time" mapstructure:"time"`
	Weight   float64 `yaml:"weight" mapstructure:"weight"`
}

type AccuracyConfig struct {
	EnergyLoss float64 `yaml:"energy_loss" mapstructure:"energy_loss"`
	Scattering float64 `yaml:"scattering" mapstructure:"scattering"`
	Magnetic   float64 `yaml:"magnetic" mapstructure:"magnetic"`
	Boundary   float64 `yaml:"boundary" mapstructure:"boundary"`
}

type TablesConfig struct {
	Cutoff     float64 `yaml:"cutoff" mapstructure:"cutoff"`
	KineticMin float64 `yaml:"kinetic_min" mapstructure:"kinetic_min"`
	KineticMax float64 `yaml:"kinetic_max" mapstructure:"kinetic_max"`
	Points     int     `yaml:"points" mapstructure:"points"`
}

// LayerConfig is one slab of a layered geometry. Density 0 takes the
// nominal density of the material. With Profile "exponential" the density
// follows the atmosphere settings instead.
type LayerConfig struct {
	Name      string  `yaml:"name" mapstructure:"name"`
	Material  string  `yaml:"material" mapstructure:"material"`
	Thickness float64 `yaml:"thickness" mapstructure:"thickness"`
	Density   float64 `yaml:"density,omitempty" mapstructure:"density"`
	Profile   string  `yaml:"profile,omitempty" mapstructure:"profile"`
}

type AtmosphereConfig struct {
	Density   float64    `yaml:"density" mapstructure:"density"`
	Reference float64    `yaml:"reference" mapstructure:"reference"`
	Scale     float64    `yaml:"scale" mapstructure:"scale"`
	Magnet    [3]float64 `yaml:"magnet,flow" mapstructure:"magnet"`
}

type GeometryConfig struct {
	Bottom     float64          `yaml:"bottom" mapstructure:"bottom"`
	Layers     []LayerConfig    `yaml:"layers" mapstructure:"layers"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere" mapstructure:"atmosphere"`
}

type FluxConfig struct {
	Model         string  `yaml:"model" mapstructure:"model"`
	Rock          string  `yaml:"rock" mapstructure:"rock"`
	RockThickness float64 `yaml:"rock_thickness" mapstructure:"rock_thickness"`
	Top           float64 `yaml:"top" mapstructure:"top"`
	Elevation     float64 `yaml:"elevation" mapstructure:"elevation"`
	KineticMin    float64 `yaml:"kinetic_min" mapstructure:"kinetic_min"`
	KineticMax    float64 `yaml:"kinetic_max" mapstructure:"kinetic_max"`
	Switch        float64 `yaml:"switch" mapstructure:"switch"`
	Events        int     `yaml:"events" mapstructure:"events"`
}

type SlabConfig struct {
	Material  string  `yaml:"material" mapstructure:"material"`
	Thickness float64 `yaml:"thickness" mapstructure:"thickness"`
	Density   float64 `yaml:"density,omitempty" mapstructure:"density"`
	Kinetic   float64 `yaml:"kinetic" mapstructure:"kinetic"`
	Events    int     `yaml:"events" mapstructure:"events"`
}

func DefaultConfig() *Config {
	opts := tables.DefaultOptions()
	return &Config{
		Species: DefaultSpecies,
		Scheme:  DefaultScheme,
		Mode:    "forward",
		Decay:   "none",
		Accuracy: AccuracyConfig{
			EnergyLoss: 1e-2,
			Scattering: 1e-2,
			Magnetic:   1e-2,
			Boundary:   1e-7,
		},
		Tables: TablesConfig{
			Cutoff:     opts.Cutoff,
			KineticMin: opts.KineticMin,
			KineticMax: opts.KineticMax,
			Points:     opts.Points,
		},
		Geometry: GeometryConfig{
			Layers: []LayerConfig{
				{Name: "rock", Material: "StandardRock", Thickness: 10},
				{Name: "air", Material: "Air", Thickness: 990, Profile: "exponential"},
			},
			Atmosphere: AtmosphereConfig{
				Density:   1.205,
				Reference: 0,
				Scale:     12e3,
				Magnet:    [3]float64{0, 2e-5, -4e-5},
			},
		},
		Flux: FluxConfig{
			Model:      "gccly",
			Rock:       "StandardRock",
			Top:        DefaultTop,
			Elevation:  DefaultElevation,
			KineticMin: 1,
			KineticMax: 1e3,
			Switch:     100,
			Events:     10000,
		},
		Slab: SlabConfig{
			Material:  "StandardRock",
			Thickness: 10,
			Kinetic:   10,
			Events:    1000,
		},
		Seed:     DefaultSeed,
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads the configuration at path on top of the defaults. Every key
// can be overridden from the environment, e.g. LEPTRANS_FLUX_EVENTS. An
// empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	v, err := NewViper(DefaultConfig(), path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// NewViper returns a viper instance holding base, the file at path if any,
// and the environment overrides. Callers may bind flags to it before
// decoding.
func NewViper(base *Config, path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LEPTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	data, err := yaml.Marshal(base)
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if path == "" {
		return v, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := v.MergeConfig(f); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return v, nil
}

func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that are not checked again when building the
// tables or the transport context.
func (c *Config) Validate() error {
	if _, err := c.SpeciesDef(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative workers", ErrConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for i, l := range c.Geometry.Layers {
		if l.Thickness <= 0 {
			return fmt.Errorf("%w: layer #%d (%s) needs a positive thickness", ErrConfig, i, l.Material)
		}
		switch l.Profile {
		case "", "uniform", "exponential":
		default:
			return fmt.Errorf("%w: layer #%d has unknown profile %q", ErrConfig, i, l.Profile)
		}
	}
	return nil
}

func (c *Config) SpeciesDef() (tables.Species, error) {
	switch strings.ToLower(c.Species) {
	case "muon", "mu":
		return tables.Muon(), nil
	case "tau":
		return tables.Tau(), nil
	}
	return tables.Species{}, fmt.Errorf("%w: unknown species %q", ErrConfig, c.Species)
}

func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrConfig, c.LogLevel)
	}
	return lvl, nil
}
