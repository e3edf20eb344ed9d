package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"git.patyhank.net/falloutBot/pathlib/grid"
	"git.patyhank.net/falloutBot/pathlib/pathfind"
	"github.com/goxiaoy/go-eventbus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a pathfinder.
type Config struct {
	// Step is the distance between two lattice points.
	Step float64 `yaml:"step"`

	// MaxDistance is the largest straight line distance a path is searched for.
	MaxDistance float64 `yaml:"max_distance"`

	// MaxDrop is the largest amount of blocks a single step may go down.
	MaxDrop      int    `yaml:"max_drop"`
	AvoidHazards bool   `yaml:"avoid_hazards"`
	Policy       string `yaml:"policy"`

	// MaxExpanded bounds the amount of nodes expanded per search. 0 disables the bound.
	MaxExpanded int `yaml:"max_expanded"`

	// MaxGridNodes is the amount of cached nodes after which the grid is reset. 0 disables resets.
	MaxGridNodes   int     `yaml:"max_grid_nodes"`
	StartTolerance float64 `yaml:"start_tolerance"`

	LogLevel string `yaml:"log_level"`

	// MetricsAddr is the address Prometheus metrics are served on. Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Step:           1,
		MaxDistance:    64,
		MaxDrop:        3,
		AvoidHazards:   true,
		Policy:         pathfind.PolicyAStar.String(),
		MaxExpanded:    20000,
		MaxGridNodes:   1 << 20,
		StartTolerance: pathfind.DefaultStartTolerance,
		LogLevel:       "info",
	}
}

// Load reads the YAML configuration at path on top of the defaults. Unknown keys are rejected. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if cfg, err = Decode(f); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a YAML configuration from r on top of the defaults and validates it.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values that cannot be used.
func (c Config) Validate() error {
	if !(c.Step > 0) || math.IsInf(c.Step, 1) {
		return fmt.Errorf("step: %w", grid.ErrInvalidStep)
	}
	if c.MaxDistance < 0 {
		return fmt.Errorf("max_distance must not be negative, got %v", c.MaxDistance)
	}
	if c.MaxDrop < 0 {
		return fmt.Errorf("max_drop must not be negative, got %d", c.MaxDrop)
	}
	if c.MaxExpanded < 0 || c.MaxGridNodes < 0 {
		return errors.New("max_expanded and max_grid_nodes must not be negative")
	}
	if _, err := pathfind.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger returns a logger writing at the configured level.
func (c Config) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New()
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "15:04:05"
	customFormatter.FullTimestamp = true
	logger.SetFormatter(customFormatter)
	logger.SetLevel(level)
	return logger, nil
}

// Grid returns a new grid with the configured step.
func (c Config) Grid() (*grid.Grid, error) {
	return grid.New(c.Step)
}

// Options returns the finder options of the configuration. bus may be nil.
func (c Config) Options(logger *log.Logger, bus *eventbus.EventBus) (pathfind.Options, error) {
	policy, err := pathfind.ParsePolicy(c.Policy)
	if err != nil {
		return pathfind.Options{}, err
	}
	return pathfind.Options{
		Policy:         policy,
		StartTolerance: c.StartTolerance,
		MaxExpanded:    c.MaxExpanded,
		MaxGridNodes:   c.MaxGridNodes,
		Logger:         logger,
		Bus:            bus,
	}, nil
}

// Request returns a search request between start and end with the configured limits.
func (c Config) Request(start, end pathfind.Location) pathfind.Request {
	return pathfind.Request{
		Start:        start,
		End:          end,
		MaxDistance:  c.MaxDistance,
		AvoidHazards: c.AvoidHazards,
		MaxDrop:      c.MaxDrop,
	}
}
