// Package terrain lays the ground of a city region: grass, stone, dirt,
// sand and water columns over a smoothed height field.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/network"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/heightfield"
	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

const (
	tileSize    = city.TileSize
	surfaceSalt = 0x7e
)

// Ground materials.
var (
	Grass = block.Of("grass_block")
	Dirt  = block.Of("dirt")
	Sand  = block.Of("sand")
	Water = block.Of("water")
	Stone = block.Of("dripstone_block")
)

// Prefabs looks prefabs up by identifier.
type Prefabs interface {
	Lookup(id string) (*prefab.Prefab, bool)
}

// Options configure a Generator. Heights and depths are raw city units.
type Options struct {
	Seed            int64
	SmoothingPasses int
	HeightDivisor   int
	MaxHeight       int
	WaterLevel      int
	ShoreMargin     int
	StoneChance     int
	DirtDepth       int
	StoneDepth      int
	// NetworkDepth is how far below a ground network tile's min Y the
	// terrain under it is lowered.
	NetworkDepth int
	Workers      int
	Timeout      time.Duration
}

// Result is what the terrain phase leaves for later phases.
type Result struct {
	// Field holds the effective height of every block column after the
	// lot and network overrides.
	Field *heightfield.Field

	Columns  int // tile columns generated
	Water    int // block columns that took the water branch
	Occupied int // tile columns blended with a prefab

	div int
}

// Height returns the block Y of the ground surface at (x, z).
func (r *Result) Height(x, z int) int {
	return int(math.Floor(float64(r.Field.Height(x, z)) / float64(r.div)))
}

// occupant is a terrain-blend prefab claiming one tile column.
type occupant struct {
	prefab   *prefab.Prefab
	rotation int
	id       string
}

// Generator materializes the terrain of one region.
type Generator struct {
	opts    Options
	dst     world.Surface
	city    *city.City
	ground  *network.Ground
	lots    *spatial.Index2[*city.Lot]
	prefabs Prefabs
	log     *slog.Logger
}

// NewGenerator creates a generator writing to dst in region-local
// coordinates. prefabs may be nil.
func NewGenerator(dst world.Surface, c *city.City, ground *network.Ground, prefabs Prefabs, opts Options, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.HeightDivisor <= 0 {
		opts.HeightDivisor = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Generator{
		opts:    opts,
		dst:     dst,
		city:    c,
		ground:  ground,
		lots:    c.LotIndex(),
		prefabs: prefabs,
		log:     log,
	}
}

// Generate builds the height field and writes every tile column of the
// region. Columns run on a bounded pool; if the pool does not finish
// within the configured timeout the whole phase fails with a
// *GenerationTimeoutError.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	field, err := heightfield.New(g.rawHeights(), g.opts.SmoothingPasses)
	if err != nil {
		return nil, fmt.Errorf("terrain %s: %w", g.city.Name, err)
	}
	res := &Result{Field: field, div: g.opts.HeightDivisor}
	occupants := g.occupants()

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	var water, occupied atomic.Int64
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)

	tilesZ := len(g.city.Heights)
	tilesX := len(g.city.Heights[0])
	start := time.Now()

	// Dispatch and Wait both run aside: eg.Go blocks on a full pool and
	// Wait on a stalled write, and neither may hold up the deadline.
	done := make(chan error, 1)
	go func() {
	dispatch:
		for cz := 0; cz < tilesZ; cz++ {
			for cx := 0; cx < tilesX; cx++ {
				if gctx.Err() != nil {
					break dispatch
				}
				occ, hasOcc := occupants.Get(cx, cz)
				eg.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					col := &column{g: g, field: field, cx: cx, cz: cz}
					if hasOcc {
						if err := col.blend(occ); err != nil {
							return err
						}
						occupied.Add(1)
					}
					n, err := col.generate(gctx)
					water.Add(int64(n))
					return err
				})
			}
		}
		done <- eg.Wait()
	}()

	var werr error
	select {
	case werr = <-done:
	case <-ctx.Done():
	}
	if werr == nil {
		werr = ctx.Err()
	}
	if werr != nil {
		if errors.Is(werr, context.DeadlineExceeded) {
			return nil, &GenerationTimeoutError{Region: g.city.Name, Timeout: g.opts.Timeout}
		}
		return nil, fmt.Errorf("terrain %s: %w", g.city.Name, werr)
	}

	res.Columns = tilesX * tilesZ
	res.Water = int(water.Load())
	res.Occupied = int(occupied.Load())
	g.log.Info("terrain done",
		"region", g.city.Name,
		"columns", res.Columns,
		"water", res.Water,
		"occupied", res.Occupied,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// rawHeights copies the tile samples with lot and ground network
// elevations written over them, so smoothing blends toward the heights
// those tiles will be built at.
func (g *Generator) rawHeights() [][]float32 {
	raw := make([][]float32, len(g.city.Heights))
	for z, row := range g.city.Heights {
		raw[z] = append([]float32(nil), row...)
	}
	set := func(tx, tz int, h float32) {
		if tz >= 0 && tz < len(raw) && tx >= 0 && tx < len(raw[tz]) {
			raw[tz][tx] = h
		}
	}
	for i := range g.city.Lots {
		l := &g.city.Lots[i]
		l.Tiles(func(tx, tz int) { set(tx, tz, l.Y) })
	}
	g.ground.Range(func(tx, tz int, t *city.NetworkTile) {
		set(tx, tz, float32(t.Position.Y-2))
	})
	return raw
}

// occupants finds the buildings whose prefab blends into the terrain,
// keyed by the tile of their min corner.
func (g *Generator) occupants() *spatial.Index2[occupant] {
	ix := spatial.NewIndex2[occupant]()
	if g.prefabs == nil {
		return ix
	}
	for i := range g.city.Placeables {
		p := &g.city.Placeables[i]
		if p.Kind != city.KindBuilding {
			continue
		}
		pf, ok := g.prefabs.Lookup(p.ID)
		if !ok || !pf.Meta.TerrainBlend {
			continue
		}
		tx, tz := int(math.Floor(p.Min.X))>>4, int(math.Floor(p.Min.Z))>>4
		ix.Put(tx, tz, occupant{prefab: pf, rotation: p.Rotation(), id: p.ID})
	}
	return ix
}
