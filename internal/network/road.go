package network

import (
	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

const roadEdge = 3

var (
	roadPavement  = block.Of("coal_block")
	roadPaint     = block.Of("yellow_concrete")
	roadRail      = block.Of("polished_andesite")
	roadCrosswalk = block.Of("smooth_quartz")

	// Offsets of crosswalk stripes and of centre lines from the tile edge.
	crosswalkSpacing = []int{4, 6, 9, 11}
	centerLines      = []int{6, 9}
)

type roadPiece struct{}

func (roadPiece) build(r *Renderer, t *city.NetworkTile, pos world.Pos) {
	conn, nbs := r.connectivity(t)
	var rail [4]bool
	for _, d := range city.Directions {
		rail[d] = nbs[d] != nil && nbs[d].Kind == city.KindRail
		conn[d] = conn[d] && !rail[d]
	}
	connections := 0
	for _, c := range conn {
		if c {
			connections++
		}
	}

	y := r.base(t)
	for depth := -r.opts.Depth; depth < 0; depth++ {
		l := newLayer(r.dst)
		interior(pos, roadEdge, func(x, z int) {
			l.place(x, y+depth, z, roadPavement)
		})
		r.bands(pos, y+depth, roadEdge, nbs, func(d city.Direction, x, z, yPos int, inner bool) {
			if conn[d] && inner {
				l.place(x, yPos, z, roadPavement)
				return
			}
			l.settle(x, yPos, z, sidewalk)
		})
		markRoad(l, pos, conn, rail, connections)
	}
}

// markRoad paints centre lines on straight tiles, track beds where rail
// crosses, and crosswalks on intersections.
func markRoad(l *layer, pos world.Pos, conn, rail [4]bool, connections int) {
	n, e, s, w := conn[city.North], conn[city.East], conn[city.South], conn[city.West]

	if n && s && !e && !w {
		for z := 0; z < tileSize; z++ {
			for _, off := range centerLines {
				l.paint(pos.X+off, pos.Z+z, roadPaint)
			}
		}
	}
	if e && w && !n && !s {
		for x := 0; x < tileSize; x++ {
			for _, off := range centerLines {
				l.paint(pos.X+x, pos.Z+off, roadPaint)
			}
		}
	}

	if rail[city.North] && rail[city.South] {
		for z := 0; z < tileSize; z++ {
			for i := 3; i <= 12; i++ {
				l.paint(pos.X+i, pos.Z+z, trackState(i))
			}
		}
	}
	if rail[city.East] && rail[city.West] {
		for x := 0; x < tileSize; x++ {
			for i := 3; i <= 12; i++ {
				l.paint(pos.X+x, pos.Z+i, trackState(i))
			}
		}
	}

	if connections >= 4 {
		for _, off := range crosswalkSpacing {
			for _, row := range []int{1, 2, 13, 14} {
				l.paint(pos.X+off, pos.Z+row, roadCrosswalk)
				l.paint(pos.X+row, pos.Z+off, roadCrosswalk)
			}
		}
	}
}

func trackState(i int) block.State {
	switch i {
	case 3, 5, 10, 12:
		return roadRail
	}
	return roadPavement
}
