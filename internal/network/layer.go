package network

import (
	"math"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

// layer is one horizontal slice of a tile. It remembers the height last
// written in each column so a lower band write can clear the block a
// higher one left behind.
type layer struct {
	dst     world.Surface
	heights *spatial.Index2[int]
}

func newLayer(dst world.Surface) *layer {
	return &layer{dst: dst, heights: spatial.NewIndex2[int]()}
}

// place writes st and records y as the column height.
func (l *layer) place(x, y, z int, st block.State) {
	l.dst.SetBlock(x, y, z, st)
	l.heights.Put(x, z, y)
}

// settle writes st at y, or at the recorded height when that is not
// above y. A recorded height above y is cleared to air first.
func (l *layer) settle(x, y, z int, st block.State) {
	prev, ok := l.heights.Get(x, z)
	switch {
	case !ok:
		l.place(x, y, z, st)
	case prev <= y:
		l.dst.SetBlock(x, prev, z, st)
	default:
		l.dst.SetBlock(x, prev, z, block.Air)
		l.place(x, y, z, st)
	}
}

// paint overwrites the recorded top block of column (x, z).
func (l *layer) paint(x, z int, st block.State) {
	if y, ok := l.heights.Get(x, z); ok {
		l.dst.SetBlock(x, y, z, st)
	}
}

// interior visits the flat centre of a tile inside an edge of width edge.
func interior(pos world.Pos, edge int, fn func(x, z int)) {
	for x := edge; x < tileSize-edge; x++ {
		for z := edge; z < tileSize-edge; z++ {
			fn(pos.X+x, pos.Z+z)
		}
	}
}

// bands visits the four edge bands of the tile at pos, north first. Each
// band is graded toward its neighbour: row i of width edge sits
// floor((i+1)/edge*h) above y on the east and south sides and
// floor(h-(i+1)/edge*h) on the north and west sides, where h is half the
// height difference. inner marks cells within the road span of the edge.
func (r *Renderer) bands(pos world.Pos, y, edge int, nbs [4]*city.NetworkTile, fn func(d city.Direction, x, z, yPos int, inner bool)) {
	for _, d := range city.Directions {
		h := r.raisedHeight(pos, nbs[d])
		for i := 0; i < edge; i++ {
			frac := float64(i+1) / float64(edge)
			var off int
			if d == city.North || d == city.West {
				off = int(math.Floor(h - frac*h))
			} else {
				off = int(math.Floor(frac * h))
			}

			for j := 0; j < tileSize; j++ {
				var lx, lz int
				switch d {
				case city.North:
					lx, lz = j, i
				case city.East:
					lx, lz = tileSize-edge+i, j
				case city.South:
					lx, lz = j, tileSize-edge+i
				case city.West:
					lx, lz = i, j
				}
				inner := j >= edge && j < tileSize-edge
				fn(d, pos.X+lx, pos.Z+lz, y+off, inner)
			}
		}
	}
}
