package network

import (
	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

// Ground indexes the network tiles that sit at ground level, by tile.
// A tile counts as ground level when its min Y is at most tolerance raw
// units above the height sample of the tile it covers. Tiles outside the
// height grid are never ground level.
type Ground struct {
	tiles *spatial.Index2[*city.NetworkTile]
}

// NewGround builds the ground-level index for c.
func NewGround(c *city.City, tolerance float64) *Ground {
	g := &Ground{tiles: spatial.NewIndex2[*city.NetworkTile]()}
	for i := range c.Networks {
		t := &c.Networks[i]
		tx, tz := t.Tile()
		if tz < 0 || tz >= len(c.Heights) || tx < 0 || tx >= len(c.Heights[tz]) {
			continue
		}
		if t.Min.Y-float64(c.Heights[tz][tx]) <= tolerance {
			g.tiles.Put(tx, tz, t)
		}
	}
	return g
}

// Get returns the ground tile at (tx, tz).
func (g *Ground) Get(tx, tz int) (*city.NetworkTile, bool) {
	return g.tiles.Get(tx, tz)
}

// Has reports whether a ground tile claims (tx, tz).
func (g *Ground) Has(tx, tz int) bool {
	return g.tiles.Has(tx, tz)
}

// Len returns the number of ground tiles.
func (g *Ground) Len() int { return g.tiles.Len() }

// neighbor returns the ground tile one step from (tx, tz) toward d, or nil.
func (g *Ground) neighbor(tx, tz int, d city.Direction) *city.NetworkTile {
	dx, dz := d.Offset()
	t, _ := g.tiles.Get(tx+dx, tz+dz)
	return t
}

// Range calls fn for every ground tile.
func (g *Ground) Range(fn func(tx, tz int, t *city.NetworkTile)) {
	g.tiles.Range(fn)
}
