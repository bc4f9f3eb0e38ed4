package network

import (
	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/rng"
)

const (
	streetEdge = 4
	streetSalt = 0x57
)

var (
	streetPavement = []block.State{block.Of("stone"), block.Of("gravel"), block.Of("andesite")}
	streetDirt     = []block.State{block.Of("dirt"), block.Of("coarse_dirt"), block.Of("rooted_dirt")}

	sidewalk = block.Of("smooth_stone")
	grass    = block.Of("grass_block")
	dirt     = block.Of("dirt")
)

// Decoration is the treatment of the unpaved cells of a street tile.
type Decoration int

const (
	DecorationNone Decoration = iota
	DecorationDirt
	DecorationSidewalk
	DecorationGrassSidewalk
)

func (d Decoration) String() string {
	switch d {
	case DecorationDirt:
		return "dirt"
	case DecorationSidewalk:
		return "sidewalk"
	case DecorationGrassSidewalk:
		return "grass_sidewalk"
	}
	return "none"
}

// streetCell is what a decorator needs to know about the cell it fills.
type streetCell struct {
	tile   *city.NetworkTile
	conn   [4]bool
	origin world.Pos
	rnd    *rng.Source
}

type decorator interface {
	decorate(l *layer, c *streetCell, x, y, z int)
}

var decorators = map[Decoration]decorator{
	DecorationNone:          noneDecorator{},
	DecorationDirt:          dirtDecorator{},
	DecorationSidewalk:      sidewalkDecorator{},
	DecorationGrassSidewalk: grassSidewalkDecorator{},
}

type noneDecorator struct{}

func (noneDecorator) decorate(*layer, *streetCell, int, int, int) {}

type dirtDecorator struct{}

func (dirtDecorator) decorate(l *layer, c *streetCell, x, y, z int) {
	l.settle(x, y, z, rng.Pick(c.rnd, streetDirt))
}

type sidewalkDecorator struct{}

func (sidewalkDecorator) decorate(l *layer, _ *streetCell, x, y, z int) {
	l.settle(x, y, z, sidewalk)
}

// grassSidewalkDecorator lays grass with a two-block smooth stone border
// along each connected axis, leaving grass at the corners beside the
// entrances.
type grassSidewalkDecorator struct{}

func (grassSidewalkDecorator) decorate(l *layer, c *streetCell, x, y, z int) {
	lx, lz := x-c.origin.X, z-c.origin.Z
	l.settle(x, y, z, grassSidewalkState(c, lx, lz))
}

func grassSidewalkState(c *streetCell, lx, lz int) block.State {
	st := grass
	if c.tile.WealthTexture == city.TextureDirt {
		st = dirt
	}
	border := func(v int) bool { return v == 0 || v == 1 || v == 14 || v == 15 }
	entrance := func(v int) bool { return v == 2 || v == 3 || v == 12 || v == 13 }

	out := st
	if (c.conn[city.East] || c.conn[city.West]) && border(lz) {
		out = sidewalk
	}
	if (c.conn[city.North] || c.conn[city.South]) && border(lx) {
		out = sidewalk
	}

	switch {
	case c.conn[city.North] && entrance(lx) && (lz == 0 || lz == 1),
		c.conn[city.East] && entrance(lz) && (lx == 14 || lx == 15),
		c.conn[city.South] && entrance(lx) && (lz == 14 || lz == 15),
		c.conn[city.West] && entrance(lz) && (lx == 0 || lx == 1):
		out = st
	}
	return out
}

// decorationFor picks a street decoration from the lots beside a tile.
// Industrial lots give dirt when poor and grass otherwise, residential
// and commercial lots give grass, and two or more wealthy non-industrial
// lots upgrade the street to a plain sidewalk. A street with no lots
// nearby is dirt.
func decorationFor(lots []*city.Lot) Decoration {
	deco := DecorationNone
	wealthy := 0
	for _, l := range lots {
		industrial := l.Zone.Industrial()
		if deco == DecorationNone && industrial {
			if l.Wealth == city.WealthLow {
				deco = DecorationDirt
			} else {
				deco = DecorationGrassSidewalk
			}
		}
		if !industrial {
			deco = DecorationGrassSidewalk
			if l.Wealth == city.WealthMid || l.Wealth == city.WealthHigh {
				wealthy++
			}
		}
	}
	if wealthy >= 2 {
		return DecorationSidewalk
	}
	if deco == DecorationNone {
		return DecorationDirt
	}
	return deco
}

// nearbyLots returns the lots on the four tiles around (tx, tz).
func (r *Renderer) nearbyLots(tx, tz int) []*city.Lot {
	var lots []*city.Lot
	for _, d := range city.Directions {
		dx, dz := d.Offset()
		if l, ok := r.lots.Get(tx+dx, tz+dz); ok {
			lots = append(lots, l)
		}
	}
	return lots
}

type streetPiece struct{}

func (streetPiece) build(r *Renderer, t *city.NetworkTile, pos world.Pos) {
	tx, tz := t.Tile()
	conn, nbs := r.connectivity(t)
	deco := decorators[decorationFor(r.nearbyLots(tx, tz))]
	cell := &streetCell{
		tile:   t,
		conn:   conn,
		origin: pos,
		rnd:    rng.New(r.opts.Seed, tx, tz, streetSalt),
	}

	y := r.base(t)
	for depth := -r.opts.Depth; depth < 0; depth++ {
		l := newLayer(r.dst)
		interior(pos, streetEdge, func(x, z int) {
			l.place(x, y+depth, z, rng.Pick(cell.rnd, streetPavement))
		})
		r.bands(pos, y+depth, streetEdge, nbs, func(d city.Direction, x, z, yPos int, inner bool) {
			if conn[d] && inner {
				l.place(x, yPos, z, rng.Pick(cell.rnd, streetPavement))
				return
			}
			deco.decorate(l, cell, x, yPos, z)
		})
	}
}
