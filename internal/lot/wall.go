// Package lot builds the retaining walls under zoned lots.
package lot

import (
	"log/slog"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/network"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

const tileSize = city.TileSize

// Wall is a retaining wall material.
type Wall int

const (
	WallStone Wall = iota
	WallDirt
	WallConcrete
	WallDarkBricks
	WallBricks
)

var wallStates = map[Wall]block.State{
	WallStone:      block.Of("dripstone_block"),
	WallDirt:       block.Of("dirt"),
	WallConcrete:   block.Of("light_gray_concrete"),
	WallDarkBricks: block.Of("cobbled_deepslate"),
	WallBricks:     block.Of("bricks"),
}

// State returns the block the wall is built from.
func (w Wall) State() block.State { return wallStates[w] }

func (w Wall) String() string {
	switch w {
	case WallDirt:
		return "dirt"
	case WallConcrete:
		return "concrete"
	case WallDarkBricks:
		return "dark_bricks"
	case WallBricks:
		return "bricks"
	}
	return "stone"
}

var (
	concreteGroups  = []city.OccupantGroup{city.OccupantResidentialLow, city.OccupantDirtyIndustry, city.OccupantServiceLow}
	darkBrickGroups = []city.OccupantGroup{city.OccupantResidentialMid, city.OccupantManufacturing, city.OccupantOfficeMid, city.OccupantServiceMid}
	brickGroups     = []city.OccupantGroup{city.OccupantResidentialHigh, city.OccupantHighTech, city.OccupantOfficeHigh, city.OccupantServiceHigh}
	wealthFallback  = map[city.Wealth]Wall{city.WealthLow: WallConcrete, city.WealthMid: WallDarkBricks, city.WealthHigh: WallBricks}
)

// Classify picks the wall material for l. Agricultural lots get dirt;
// otherwise the first occupant set the lot shares a group with decides,
// then the zone wealth. Lots without occupant data get stone.
func Classify(l *city.Lot) Wall {
	if len(l.Occupants) == 0 {
		return WallStone
	}
	if l.HasOccupant(city.OccupantAgriculture) {
		return WallDirt
	}
	for _, set := range []struct {
		groups []city.OccupantGroup
		wall   Wall
	}{
		{concreteGroups, WallConcrete},
		{darkBrickGroups, WallDarkBricks},
		{brickGroups, WallBricks},
	} {
		for _, g := range set.groups {
			if l.HasOccupant(g) {
				return set.wall
			}
		}
	}
	if w, ok := wealthFallback[l.Wealth]; ok {
		return w
	}
	return WallStone
}

// Heights returns the block Y of the ground surface at a column.
type Heights interface {
	Height(x, z int) int
}

// Stats counts what a Build call wrote.
type Stats struct {
	Lots    int
	Columns int
	Skipped int // tiles left to a network
}

// Builder fills retaining walls under every lot of a city.
type Builder struct {
	dst     world.Surface
	city    *city.City
	ground  *network.Ground
	heights Heights
	depth   int
	log     *slog.Logger
}

// NewBuilder creates a builder writing walls depth blocks tall, counting
// the surface, below the heights left by the terrain phase.
func NewBuilder(dst world.Surface, c *city.City, ground *network.Ground, heights Heights, depth int, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{dst: dst, city: c, ground: ground, heights: heights, depth: depth, log: log}
}

// Build writes the walls of every lot.
func (b *Builder) Build() Stats {
	var st Stats
	for i := range b.city.Lots {
		l := &b.city.Lots[i]
		b.buildLot(l, &st)
		st.Lots++
	}
	b.log.Debug("lot walls built", "lots", st.Lots, "columns", st.Columns, "skipped", st.Skipped)
	return st
}

func (b *Builder) buildLot(l *city.Lot, st *Stats) {
	wall := Classify(l).State()
	l.Tiles(func(tx, tz int) {
		if b.ground.Has(tx, tz) {
			st.Skipped++
			return
		}
		for lx := 0; lx < tileSize; lx++ {
			for lz := 0; lz < tileSize; lz++ {
				x, z := tx*tileSize+lx, tz*tileSize+lz
				y := b.heights.Height(x, z)
				for d := 1; d < b.depth; d++ {
					b.dst.SetBlock(x, y-d, z, wall)
				}
				st.Columns++
			}
		}
	})
}
