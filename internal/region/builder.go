// Package region builds whole city regions: terrain, networks, lot walls
// and objects, in that order.
package region

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/config"
	"github.com/OCharnyshevich/citycraft/internal/journal"
	"github.com/OCharnyshevich/citycraft/internal/lot"
	"github.com/OCharnyshevich/citycraft/internal/network"
	"github.com/OCharnyshevich/citycraft/internal/terrain"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
)

// Prefabs looks prefabs up by identifier.
type Prefabs interface {
	Lookup(id string) (*prefab.Prefab, bool)
}

// Journal receives one entry per finished phase.
type Journal interface {
	Record(e journal.Entry) error
}

// Options configure a Builder.
type Options struct {
	Seed            int64
	Terrain         terrain.Options
	Network         network.Options
	GroundTolerance float64
	WallDepth       int
	ProbeLimit      int
	Debug           bool
	MarkMissing     bool
	// Workers is the number of regions BuildAll runs at once.
	Workers int
}

// OptionsFromConfig maps the build configuration onto builder options.
func OptionsFromConfig(cfg *config.Config) Options {
	t := cfg.Terrain
	return Options{
		Seed: cfg.Seed,
		Terrain: terrain.Options{
			Seed:            cfg.Seed,
			SmoothingPasses: t.SmoothingPasses,
			HeightDivisor:   t.HeightDivisor,
			MaxHeight:       t.MaxHeight,
			WaterLevel:      t.WaterLevel,
			ShoreMargin:     t.ShoreMargin,
			StoneChance:     t.StoneChance,
			DirtDepth:       t.DirtDepth,
			StoneDepth:      t.StoneDepth,
			NetworkDepth:    cfg.Network.Depth,
			Workers:         cfg.TerrainWorkers(),
			Timeout:         t.Timeout,
		},
		Network: network.Options{
			HeightDivisor: t.HeightDivisor,
			Depth:         cfg.Network.Depth,
			Seed:          cfg.Seed,
			Debug:         cfg.Placement.Debug,
		},
		GroundTolerance: float64(cfg.Network.GroundTolerance),
		WallDepth:       cfg.Lots.WallDepth,
		ProbeLimit:      cfg.Placement.ProbeLimit,
		Debug:           cfg.Placement.Debug,
		MarkMissing:     cfg.Placement.MarkMissing,
		Workers:         cfg.Regions.Workers,
	}
}

// Phase is the timing of one build phase.
type Phase struct {
	Name    string
	Elapsed time.Duration
}

// Report summarizes one region build.
type Report struct {
	Region       string
	TileX, TileZ int
	Seed         int64

	Terrain   TerrainStats
	Network   network.Stats
	Lots      lot.Stats
	Placement PlacementStats
	// Skipped lists the placeables that could not be placed.
	Skipped []string

	Phases  []Phase
	Elapsed time.Duration
}

// TerrainStats is the countable part of a terrain result.
type TerrainStats struct {
	Columns  int
	Water    int
	Occupied int
}

// Builder runs the generation phases for regions written into a shared
// world. Regions occupy disjoint block ranges so one Builder can build
// several at once.
type Builder struct {
	opts    Options
	dst     world.Surface
	prefabs Prefabs
	journal Journal
	log     *slog.Logger
}

// NewBuilder creates a builder writing into dst in world coordinates.
// prefabs and j may be nil.
func NewBuilder(dst world.Surface, prefabs Prefabs, j Journal, opts Options, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Builder{opts: opts, dst: dst, prefabs: prefabs, journal: j, log: log}
}

// Build generates one region. A terrain failure, including a timeout,
// aborts the region and is returned; everything after it is logged and
// counted in the report.
func (b *Builder) Build(ctx context.Context, c *city.City) (*Report, error) {
	start := time.Now()
	log := b.log.With("region", c.Name)
	ox, oz := c.Origin()
	dst := world.Translate(b.dst, ox, oz)
	rep := &Report{Region: c.Name, TileX: c.TileX, TileZ: c.TileZ, Seed: b.opts.Seed}

	ground := network.NewGround(c, b.opts.GroundTolerance)
	log.Info("building region", "origin_x", ox, "origin_z", oz,
		"lots", len(c.Lots), "networks", len(c.Networks), "ground", ground.Len(), "placeables", len(c.Placeables))

	phase := func(name string, since time.Time, detail map[string]any) {
		elapsed := time.Since(since)
		rep.Phases = append(rep.Phases, Phase{Name: name, Elapsed: elapsed})
		if b.journal == nil {
			return
		}
		if err := b.journal.Record(journal.Entry{Region: c.Name, Phase: name, Elapsed: elapsed, Detail: detail}); err != nil {
			log.Warn("journal write failed", "phase", name, "err", err)
		}
	}

	t0 := time.Now()
	gen := terrain.NewGenerator(dst, c, ground, b.prefabs, b.opts.Terrain, log)
	tr, err := gen.Generate(ctx)
	if err != nil {
		return nil, err
	}
	rep.Terrain = TerrainStats{Columns: tr.Columns, Water: tr.Water, Occupied: tr.Occupied}
	phase("terrain", t0, map[string]any{"columns": tr.Columns, "water": tr.Water, "occupied": tr.Occupied})

	t0 = time.Now()
	rep.Network = network.NewRenderer(dst, c, ground, b.prefabs, b.opts.Network, log).Render()
	phase("network", t0, map[string]any{"streets": rep.Network.Streets, "roads": rep.Network.Roads, "rails": rep.Network.Rails})

	t0 = time.Now()
	rep.Lots = lot.NewBuilder(dst, c, ground, tr, b.opts.WallDepth, log).Build()
	phase("lots", t0, map[string]any{"lots": rep.Lots.Lots, "columns": rep.Lots.Columns})

	t0 = time.Now()
	p := &placer{opts: b.opts, dst: dst, heights: tr, ground: ground, prefabs: b.prefabs, log: log}
	p.placeAll(c)
	rep.Placement = p.stats
	rep.Skipped = p.skipped
	phase("objects", t0, map[string]any{"placed": p.stats.Placed, "missing": p.stats.Missing, "below_bounds": p.stats.BelowBounds})

	rep.Elapsed = time.Since(start)
	phase("done", start, nil)
	log.Info("region done",
		"elapsed", rep.Elapsed,
		"network_tiles", rep.Network.Tiles(),
		"placed", rep.Placement.Placed,
		"skipped", len(rep.Skipped),
	)
	return rep, nil
}

// BuildAll builds every city, up to Options.Workers at a time. The first
// failure cancels the remaining builds. Reports are in input order.
func (b *Builder) BuildAll(ctx context.Context, cities []*city.City) ([]*Report, error) {
	reports := make([]*Report, len(cities))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.opts.Workers)
	for i, c := range cities {
		eg.Go(func() error {
			rep, err := b.Build(gctx, c)
			if err != nil {
				return fmt.Errorf("region %s: %w", c.Name, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
