package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/OCharnyshevich/citycraft/internal/buildindex"
	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/config"
	"github.com/OCharnyshevich/citycraft/internal/journal"
	"github.com/OCharnyshevich/citycraft/internal/prefabs"
	"github.com/OCharnyshevich/citycraft/internal/region"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/anvil"
)

func main() {
	cfg := config.DefaultConfig()

	var (
		cityPath   = flag.String("city", "", "city JSON file (more may follow as arguments)")
		configPath = flag.String("config", "", "YAML config file")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.StringVar(&cfg.Output.Dir, "out", cfg.Output.Dir, "world output directory")
	flag.StringVar(&cfg.Output.Index, "index", cfg.Output.Index, "SQLite build index path, empty to disable")
	flag.BoolVar(&cfg.Output.Journal, "journal", cfg.Output.Journal, "write a build journal next to the world")
	flag.StringVar(&cfg.Prefabs.Dir, "prefabs", cfg.Prefabs.Dir, "prefab override directory")
	flag.StringVar(&cfg.Prefabs.Source, "prefab-source", cfg.Prefabs.Source, "go-getter URL of a prefab pack")
	flag.BoolVar(&cfg.Placement.Debug, "debug", cfg.Placement.Debug, "mark every network tile and placeable")
	flag.IntVar(&cfg.Terrain.Workers, "workers", cfg.Terrain.Workers, "terrain workers per region, 0 for auto")
	flag.IntVar(&cfg.Regions.Workers, "regions", cfg.Regions.Workers, "regions built concurrently")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	paths := flag.Args()
	if *cityPath != "" {
		paths = append([]string{*cityPath}, paths...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: citycraft [flags] -city city.json [more.json ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, paths, log); err != nil {
		log.Error("build failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, paths []string, log *slog.Logger) error {
	start := time.Now()

	lib, err := prefabs.Load(ctx, prefabs.Options{Dir: cfg.Prefabs.Dir, Source: cfg.Prefabs.Source}, log)
	if err != nil {
		return fmt.Errorf("load prefabs: %w", err)
	}
	log.Info("prefabs loaded", "count", lib.Len())

	cities := make([]*city.City, 0, len(paths))
	for _, p := range paths {
		c, err := city.Load(p)
		if err != nil {
			return err
		}
		cities = append(cities, c)
	}

	var j region.Journal
	if cfg.Output.Journal {
		name := fmt.Sprintf("build-%s.jsonl.zst", start.UTC().Format("20060102-150405"))
		jw, err := journal.Create(filepath.Join(cfg.Output.Dir, "journal", name))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() {
			if err := jw.Close(); err != nil {
				log.Warn("close journal", "error", err)
			}
		}()
		j = jw
		log.Info("journal", "path", jw.Path())
	}

	w := world.New()
	b := region.NewBuilder(w, lib, j, region.OptionsFromConfig(cfg), log)
	reports, err := b.BuildAll(ctx, cities)
	if err != nil {
		return err
	}

	stats, err := anvil.Export(w, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	first := cities[0]
	ox, oz := first.Origin()
	sx := ox + len(first.Heights[0])*city.TileSize/2
	sz := oz + len(first.Heights)*city.TileSize/2
	if err := anvil.WriteLevel(cfg.Output.Dir, anvil.LevelOptions{
		Name:   first.Name,
		Spawn:  world.Pos{X: sx, Y: surfaceY(w, sx, sz) + 1, Z: sz},
		Seed:   cfg.Seed,
		MinY:   world.MinY,
		Height: world.MaxY - world.MinY,
	}); err != nil {
		return fmt.Errorf("write level: %w", err)
	}

	if cfg.Output.Index != "" {
		ix, err := buildindex.Open(cfg.Output.Index)
		if err != nil {
			return fmt.Errorf("open build index: %w", err)
		}
		defer ix.Close()
		for _, rep := range reports {
			if _, err := ix.Record(ctx, rep); err != nil {
				return fmt.Errorf("record build: %w", err)
			}
		}
	}

	log.Info("world written",
		"dir", cfg.Output.Dir,
		"regions", stats.Regions,
		"chunks", stats.Chunks,
		"cities", len(reports),
		"elapsed", time.Since(start),
	)
	return nil
}

// surfaceY returns the highest non-air block at (x, z), or world.MinY.
func surfaceY(w *world.World, x, z int) int {
	for y := world.MaxY - 1; y > world.MinY; y-- {
		if !w.Block(x, y, z).IsAir() {
			return y
		}
	}
	return world.MinY
}
