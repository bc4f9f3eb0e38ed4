// Package config holds the build configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the build configuration.
type Config struct {
	Seed      int64     `yaml:"seed"`
	Terrain   Terrain   `yaml:"terrain"`
	Network   Network   `yaml:"network"`
	Lots      Lots      `yaml:"lots"`
	Placement Placement `yaml:"placement"`
	Prefabs   Prefabs   `yaml:"prefabs"`
	Output    Output    `yaml:"output"`
	Regions   Regions   `yaml:"regions"`
}

// Terrain configures the terrain phase. Heights and depths are in raw
// city units; HeightDivisor converts them to blocks.
type Terrain struct {
	SmoothingPasses int           `yaml:"smoothing_passes"`
	HeightDivisor   int           `yaml:"height_divisor"`
	MaxHeight       int           `yaml:"max_height"`
	WaterLevel      int           `yaml:"water_level"`
	ShoreMargin     int           `yaml:"shore_margin"`
	StoneChance     int           `yaml:"stone_chance"`
	DirtDepth       int           `yaml:"dirt_depth"`
	StoneDepth      int           `yaml:"stone_depth"`
	Workers         int           `yaml:"workers"` // 0 = derived from NumCPU
	Timeout         time.Duration `yaml:"timeout"`
}

// Network configures network rendering.
type Network struct {
	Depth           int `yaml:"depth"`
	GroundTolerance int `yaml:"ground_tolerance"`
}

// Lots configures retaining walls.
type Lots struct {
	WallDepth int `yaml:"wall_depth"`
}

// Placement configures object placement.
type Placement struct {
	ProbeLimit  int  `yaml:"probe_limit"`
	Debug       bool `yaml:"debug"`
	MarkMissing bool `yaml:"mark_missing"`
}

// Prefabs configures where prefabs beyond the bundled set come from.
type Prefabs struct {
	Dir    string `yaml:"dir"`
	Source string `yaml:"source"` // go-getter URL
}

// Output configures export and run bookkeeping.
type Output struct {
	Dir     string `yaml:"dir"`
	Journal bool   `yaml:"journal"`
	Index   string `yaml:"index"`
}

// Regions configures multi-region builds.
type Regions struct {
	Workers int `yaml:"workers"`
}

// DefaultConfig returns a Config with the stock constants.
func DefaultConfig() *Config {
	return &Config{
		Terrain: Terrain{
			SmoothingPasses: 50,
			HeightDivisor:   2,
			MaxHeight:       1024,
			WaterLevel:      250,
			ShoreMargin:     5,
			StoneChance:     5,
			DirtDepth:       1,
			StoneDepth:      64,
			Timeout:         5 * time.Minute,
		},
		Network:   Network{Depth: 16, GroundTolerance: 16},
		Lots:      Lots{WallDepth: 16},
		Placement: Placement{ProbeLimit: 10, MarkMissing: true},
		Output:    Output{Dir: "./world", Journal: true, Index: "citycraft.db"},
		Regions:   Regions{Workers: 1},
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the generators cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Terrain.HeightDivisor <= 0 {
		errs = append(errs, fmt.Errorf("terrain.height_divisor must be positive, got %d", c.Terrain.HeightDivisor))
	}
	if c.Terrain.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("terrain.max_height must be positive, got %d", c.Terrain.MaxHeight))
	}
	if c.Terrain.SmoothingPasses < 0 {
		errs = append(errs, fmt.Errorf("terrain.smoothing_passes must not be negative, got %d", c.Terrain.SmoothingPasses))
	}
	if c.Terrain.StoneChance < 0 || c.Terrain.StoneChance > 100 {
		errs = append(errs, fmt.Errorf("terrain.stone_chance must be within 0..100, got %d", c.Terrain.StoneChance))
	}
	if c.Terrain.Workers < 0 {
		errs = append(errs, fmt.Errorf("terrain.workers must not be negative, got %d", c.Terrain.Workers))
	}
	if c.Terrain.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("terrain.timeout must be positive, got %s", c.Terrain.Timeout))
	}
	if c.Network.Depth <= 0 {
		errs = append(errs, fmt.Errorf("network.depth must be positive, got %d", c.Network.Depth))
	}
	if c.Lots.WallDepth < 1 {
		errs = append(errs, fmt.Errorf("lots.wall_depth must be at least 1, got %d", c.Lots.WallDepth))
	}
	if c.Placement.ProbeLimit < 0 {
		errs = append(errs, fmt.Errorf("placement.probe_limit must not be negative, got %d", c.Placement.ProbeLimit))
	}
	if c.Regions.Workers < 1 {
		errs = append(errs, fmt.Errorf("regions.workers must be at least 1, got %d", c.Regions.Workers))
	}
	return errors.Join(errs...)
}

// TerrainWorkers returns the terrain pool size, deriving it from the CPU
// count when unset.
func (c *Config) TerrainWorkers() int {
	if c.Terrain.Workers > 0 {
		return c.Terrain.Workers
	}
	return max(1, runtime.NumCPU()*3/8)
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	flagged := *cfg
	*cfg = *fromFile
	if explicitFlags["seed"] {
		cfg.Seed = flagged.Seed
	}
	if explicitFlags["out"] {
		cfg.Output.Dir = flagged.Output.Dir
	}
	if explicitFlags["index"] {
		cfg.Output.Index = flagged.Output.Index
	}
	if explicitFlags["journal"] {
		cfg.Output.Journal = flagged.Output.Journal
	}
	if explicitFlags["prefabs"] {
		cfg.Prefabs.Dir = flagged.Prefabs.Dir
	}
	if explicitFlags["prefab-source"] {
		cfg.Prefabs.Source = flagged.Prefabs.Source
	}
	if explicitFlags["debug"] {
		cfg.Placement.Debug = flagged.Placement.Debug
	}
	if explicitFlags["workers"] {
		cfg.Terrain.Workers = flagged.Terrain.Workers
	}
	if explicitFlags["regions"] {
		cfg.Regions.Workers = flagged.Regions.Workers
	}
}
