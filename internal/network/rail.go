package network

import (
	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
)

// RailPrefab is the prefab pasted for every rail tile.
const RailPrefab = "rail"

var railTrack = block.Of("rail")

type railPiece struct{}

// build pastes the rail prefab one block below the tile's min Y, turned
// to run east-west when only that axis connects, and fills dirt beneath.
func (railPiece) build(r *Renderer, t *city.NetworkTile, pos world.Pos) {
	conn, _ := r.connectivity(t)
	eastWest := (conn[city.East] || conn[city.West]) && !conn[city.North] && !conn[city.South]

	at := world.Pos{X: pos.X, Y: r.blockY(t.Min.Y) - 1, Z: pos.Z}

	var p *prefab.Prefab
	if r.prefabs != nil {
		p, _ = r.prefabs.Lookup(RailPrefab)
	}
	if p != nil {
		rotation := 0
		if eastWest {
			rotation = 90
		}
		if _, err := p.Paste(r.dst, at, prefab.PasteOptions{Rotation: rotation, AboutCenter: true}); err != nil {
			r.log.Error("rail paste failed", "min", t.Min, "err", err)
		}
	} else {
		layTrack(r.dst, at, eastWest)
	}

	for depth := -r.opts.Depth; depth < 0; depth++ {
		for x := 0; x < tileSize; x++ {
			for z := 0; z < tileSize; z++ {
				r.dst.SetBlock(at.X+x, at.Y+depth, at.Z+z, dirt)
			}
		}
	}
}

// layTrack is the fallback when no rail prefab is loaded: a dirt bed with
// a double line of track down the middle.
func layTrack(dst world.Surface, at world.Pos, eastWest bool) {
	shape := "north_south"
	if eastWest {
		shape = "east_west"
	}
	track := railTrack.With("shape", shape)
	for x := 0; x < tileSize; x++ {
		for z := 0; z < tileSize; z++ {
			dst.SetBlock(at.X+x, at.Y, at.Z+z, dirt)
			lane := x
			if eastWest {
				lane = z
			}
			if lane == 7 || lane == 8 {
				dst.SetBlock(at.X+x, at.Y+1, at.Z+z, track)
			}
		}
	}
}
