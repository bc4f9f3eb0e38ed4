package terrain

import (
	"context"
	"fmt"
	"math"

	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/heightfield"
	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
	"github.com/OCharnyshevich/citycraft/pkg/world/rng"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

// column generates one 16x16 tile column. It only reads and writes
// blocks and field samples inside its own footprint.
type column struct {
	g      *Generator
	field  *heightfield.Field
	cx, cz int

	// occupied holds the positions a blended prefab wrote; nil when the
	// column has no occupant.
	occupied *spatial.Set3
}

func (c *column) owns(x, z int) bool {
	return x>>4 == c.cx && z>>4 == c.cz
}

// blend pastes a terrain-blend prefab so each of its blocks rides the
// smoothed surface of the column it lands on.
func (c *column) blend(occ occupant) error {
	div := float64(c.g.opts.HeightDivisor)
	c.occupied = spatial.NewSet3()
	at := world.Pos{X: c.cx * tileSize, Z: c.cz * tileSize}

	_, err := occ.prefab.Paste(c.g.dst, at, prefab.PasteOptions{
		Rotation: occ.rotation,
		Remap: func(local, placed world.Pos) (world.Pos, bool) {
			if !c.owns(placed.X, placed.Z) {
				return world.Pos{}, false
			}
			h := float64(c.field.Height(placed.X, placed.Z)) / div
			y := int(math.Floor(h + float64(local.Y)))
			c.occupied.Add(placed.X, y, placed.Z)
			return world.Pos{X: placed.X, Y: y, Z: placed.Z}, true
		},
	})
	if err != nil {
		return fmt.Errorf("blend %s at tile (%d, %d): %w", occ.id, c.cx, c.cz, err)
	}
	return nil
}

// generate writes every block column of the tile and returns how many
// took the water branch. It stops between rows once ctx is done.
func (c *column) generate(ctx context.Context) (int, error) {
	o := c.g.opts
	div := o.HeightDivisor
	rnd := rng.New(o.Seed, c.cx, c.cz, surfaceSalt)

	lot, hasLot := c.g.lots.Get(c.cx, c.cz)
	net, hasNet := c.g.ground.Get(c.cx, c.cz)
	blended := c.occupied != nil

	waterY := o.WaterLevel / div
	shore := o.ShoreMargin / div
	sandDepth := (o.StoneDepth + o.DirtDepth) / div
	dirtDepth := int(math.Ceil(float64(o.DirtDepth) / float64(div)))
	stoneDepth := o.StoneDepth / div
	half := o.MaxHeight / div / 2

	water := 0
	for lx := 0; lx < tileSize; lx++ {
		if err := ctx.Err(); err != nil {
			return water, err
		}
		for lz := 0; lz < tileSize; lz++ {
			x, z := c.cx*tileSize+lx, c.cz*tileSize+lz

			height := c.field.Height(x, z)
			if hasLot && !blended {
				height = lot.Y
			}
			if hasNet {
				height = float32(net.Min.Y) - float32(o.NetworkDepth)
			}
			c.field.Set(x, z, height)
			bh := int(math.Floor(float64(height) / float64(div)))

			if bh < waterY || bh-shore < waterY {
				if bh < waterY {
					for y := bh + 1; y <= waterY; y++ {
						c.set(x, y, z, Water)
					}
					water++
				}
				for y := bh; y >= bh-sandDepth; y-- {
					c.set(x, y, z, Sand)
				}
				c.set(x, bh-sandDepth-1, z, Stone)
				continue
			}

			if !blended && !hasNet {
				top := Grass
				if rnd.Intn(100) < stoneChance(bh, half, o.StoneChance, o.MaxHeight/div) {
					top = Stone
				}
				c.g.dst.SetBlock(x, bh, z, top)
			}
			y := bh - 1
			for i := 0; i < dirtDepth; i, y = i+1, y-1 {
				c.set(x, y, z, Dirt)
			}
			for i := 0; i < stoneDepth; i, y = i+1, y-1 {
				c.set(x, y, z, Stone)
			}
		}
	}
	return water, nil
}

// set writes st unless a blended prefab already holds the position.
func (c *column) set(x, y, z int, st block.State) {
	if c.occupied != nil && c.occupied.Contains(x, y, z) {
		return
	}
	c.g.dst.SetBlock(x, y, z, st)
}

// stoneChance is the percentage chance of a bare stone surface at block
// height bh. It ramps up linearly above half the world height.
func stoneChance(bh, half, base, top int) int {
	if bh <= half || top <= 0 {
		return base
	}
	return max(base, int(math.Floor(float64(bh-half)*2/float64(top)*100)))
}
