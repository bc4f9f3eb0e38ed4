package region

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/network"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
	"github.com/OCharnyshevich/citycraft/pkg/world/rng"
)

const chanceSalt = 0x5c

var (
	markerFill = block.Of("glass")
	markerSign = block.Of("oak_sign")
)

// PlacementStats counts the outcome of object placement.
type PlacementStats struct {
	Placed      int
	Hidden      int // not visible
	Culled      int // lost the appearance draw
	Blended     int // already built by the terrain phase
	Missing     int // no prefab
	BelowBounds int
	Markers     int
}

// Heights returns the block Y of the ground surface at a column.
type Heights interface {
	Height(x, z int) int
}

// placer pastes flora, props and buildings onto the finished ground.
type placer struct {
	opts    Options
	dst     world.Surface
	heights Heights
	ground  *network.Ground
	prefabs Prefabs
	log     *slog.Logger

	stats   PlacementStats
	skipped []string
}

// placeAll runs flora, then props, then buildings, each in input order.
func (p *placer) placeAll(c *city.City) {
	for _, kind := range []city.PlaceableKind{city.KindFlora, city.KindProp, city.KindBuilding} {
		for i := range c.Placeables {
			if c.Placeables[i].Kind == kind {
				p.place(&c.Placeables[i])
			}
		}
	}
}

func (p *placer) place(pl *city.Placeable) {
	if !pl.Visible() {
		p.stats.Hidden++
		return
	}
	if pl.Kind == city.KindProp && pl.Chance != nil {
		r := rng.New(p.opts.Seed, int(math.Floor(pl.Min.X)), int(math.Floor(pl.Min.Z)), chanceSalt)
		if r.Intn(100) >= *pl.Chance {
			p.stats.Culled++
			return
		}
	}

	minPos, maxPos := p.blockPos(pl.Min), p.blockPos(pl.Max)

	var pf *prefab.Prefab
	if p.prefabs != nil {
		pf, _ = p.prefabs.Lookup(pl.ID)
	}
	switch {
	case pf == nil:
		p.stats.Missing++
		p.log.Debug("no prefab", "id", pl.ID, "pos", minPos)
	case pf.Meta.TerrainBlend:
		p.stats.Blended++
		return
	default:
		err := p.paste(pl, pf, minPos)
		var below *PlacementBelowBoundsError
		switch {
		case errors.As(err, &below):
			p.stats.BelowBounds++
			p.skipped = append(p.skipped, pl.ID)
			p.log.Warn("placement skipped", "id", pl.ID, "err", err)
		case err != nil:
			p.skipped = append(p.skipped, pl.ID)
			p.log.Error("paste failed", "id", pl.ID, "err", err)
		default:
			p.stats.Placed++
		}
	}

	if p.opts.Debug || (pf == nil && p.opts.MarkMissing) {
		p.mark(pl, pf == nil, minPos, maxPos)
	}
}

// blockPos converts a city position to blocks, rounding to nearest.
func (p *placer) blockPos(v city.Vec3) world.Pos {
	div := float64(p.opts.Terrain.HeightDivisor)
	return world.Pos{
		X: int(math.Round(v.X)),
		Y: int(math.Round(v.Y/div + 1)),
		Z: int(math.Round(v.Z)),
	}
}

// paste finds footing for pf and pastes it. The footing column is the
// prefab centre. The position first snaps to the ground surface, unless
// a network tile claims it, then steps down while the block beneath is
// air.
func (p *placer) paste(pl *city.Placeable, pf *prefab.Prefab, pos world.Pos) error {
	if pf.Meta.OccupyChunk {
		pos.X &^= 15
		pos.Z &^= 15
	}
	offX, offY, offZ := pf.Offset()
	cx, _, cz := pf.Center()
	px, pz := pos.X+int(cx)+offX, pos.Z+int(cz)+offZ

	if !p.ground.Has(pos.X>>4, pos.Z>>4) {
		pos.Y = p.heights.Height(px, pz) + 1
	}
	for steps := 0; p.dst.Block(px, pos.Y-1, pz).IsAir(); steps++ {
		if steps >= p.opts.ProbeLimit {
			return &PlacementBelowBoundsError{ID: pl.ID, X: px, Y: pos.Y, Z: pz, Steps: steps}
		}
		pos.Y--
	}

	building := pl.Kind == city.KindBuilding
	at := pos.Add(world.Pos{X: offX, Y: offY, Z: offZ})
	res, err := pf.Paste(p.dst, at, prefab.PasteOptions{
		Rotation:    pl.Rotation(),
		PasteAir:    building,
		AboutCenter: !building,
	})
	if err != nil {
		return fmt.Errorf("paste %s: %w", pl.ID, err)
	}
	p.log.Debug("placed", "id", pl.ID, "kind", pl.Kind, "at", at, "blocks", res.Blocks)
	return nil
}

// mark leaves a sign naming the placeable above it, and fills the
// footprint with glass when there was nothing to paste.
func (p *placer) mark(pl *city.Placeable, missing bool, lo, hi world.Pos) {
	if missing {
		for x := lo.X; x < hi.X; x++ {
			for y := lo.Y; y < hi.Y; y++ {
				for z := lo.Z; z < hi.Z; z++ {
					p.dst.SetBlock(x, y, z, markerFill)
				}
			}
		}
	}
	p.dst.SetBlock(lo.X, hi.Y, lo.Z, markerSign)
	p.dst.AddBlockEntity(lo.X, hi.Y, lo.Z, block.Entity{
		"id":    "minecraft:sign",
		"Text1": fmt.Sprintf(`{"text":%q}`, pl.ID),
		"Text2": fmt.Sprintf(`{"text":"%d (%d)"}`, pl.Orientation, pl.Rotation()),
	})
	p.stats.Markers++
}
