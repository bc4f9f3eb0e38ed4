package anvil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"

	"github.com/OCharnyshevich/citycraft/pkg/world"
)

// LevelOptions describe the level.dat written next to the region files.
type LevelOptions struct {
	Name   string
	Spawn  world.Pos
	Seed   int64
	MinY   int
	Height int
}

// WriteLevel writes a gzip-compressed level.dat for a void-generator world
// into dir.
func WriteLevel(dir string, opts LevelOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create level dir: %w", err)
	}

	overworld := map[string]any{
		"type": "minecraft:overworld",
		"generator": map[string]any{
			"type": "minecraft:flat",
			"settings": map[string]any{
				"features": int8(0),
				"biome":    defaultBiome,
				"layers": []map[string]any{
					{"block": "minecraft:air", "height": int32(1)},
				},
			},
		},
	}

	level := map[string]any{"Data": map[string]any{
		"DataVersion":   int32(DataVersion),
		"version":       int32(19133),
		"LevelName":     opts.Name,
		"GameType":      int32(1),
		"allowCommands": int8(1),
		"initialized":   int8(1),
		"SpawnX":        int32(opts.Spawn.X),
		"SpawnY":        int32(opts.Spawn.Y),
		"SpawnZ":        int32(opts.Spawn.Z),
		"LastPlayed":    time.Now().UnixMilli(),
		"Version": map[string]any{
			"Id":       int32(DataVersion),
			"Name":     "1.19.3",
			"Series":   "main",
			"Snapshot": int8(0),
		},
		"DataPacks": map[string]any{
			"Enabled":  []string{"vanilla"},
			"Disabled": []string{},
		},
		"WorldGenSettings": map[string]any{
			"seed":              opts.Seed,
			"generate_features": int8(0),
			"bonus_chest":       int8(0),
			"dimensions": map[string]any{
				"minecraft:overworld": overworld,
			},
		},
	}}

	return replaceFile(filepath.Join(dir, "level.dat"), func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("create level.dat: %w", err)
		}
		zw := gzip.NewWriter(f)
		if err := nbt.NewEncoder(zw).Encode(level, ""); err != nil {
			f.Close()
			return fmt.Errorf("encode level.dat: %w", err)
		}
		if err := zw.Close(); err != nil {
			f.Close()
			return fmt.Errorf("compress level.dat: %w", err)
		}
		return f.Close()
	})
}

// ExportStats summarises an Export call.
type ExportStats struct {
	Regions int
	Chunks  int
}

// Export writes every chunk of w into dir/region.
func Export(w *world.World, dir string) (ExportStats, error) {
	var stats ExportStats
	byRegion := make(map[RegionPos]map[world.ChunkPos][]byte)

	var encErr error
	w.ForEachChunk(func(c *world.ChunkData) {
		if encErr != nil {
			return
		}
		data, err := EncodeChunk(c)
		if err != nil {
			encErr = fmt.Errorf("encode chunk (%d,%d): %w", c.Pos.X, c.Pos.Z, err)
			return
		}
		r := RegionOf(c.Pos)
		if byRegion[r] == nil {
			byRegion[r] = make(map[world.ChunkPos][]byte)
		}
		byRegion[r][c.Pos] = data
	})
	if encErr != nil {
		return stats, encErr
	}

	regionDir := filepath.Join(dir, "region")
	for r, chunks := range byRegion {
		if err := SaveRegion(regionDir, r, chunks); err != nil {
			return stats, fmt.Errorf("save region (%d,%d): %w", r.X, r.Z, err)
		}
		stats.Regions++
		stats.Chunks += len(chunks)
	}
	return stats, nil
}
