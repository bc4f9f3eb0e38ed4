// Package network renders street, road and rail tiles onto the terrain.
package network

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

const tileSize = city.TileSize

// Prefabs looks prefabs up by identifier.
type Prefabs interface {
	Lookup(id string) (*prefab.Prefab, bool)
}

// Options configure a Renderer.
type Options struct {
	HeightDivisor int
	// Depth is the number of stacked layers each tile is drawn with.
	Depth int
	Seed  int64
	// Debug places a sign above every tile naming its kind.
	Debug bool
}

// Stats counts what a Render call drew.
type Stats struct {
	Streets int
	Roads   int
	Rails   int
	Skipped int
}

// Tiles returns the number of tiles drawn.
func (s Stats) Tiles() int { return s.Streets + s.Roads + s.Rails }

// piece draws one network kind.
type piece interface {
	build(r *Renderer, t *city.NetworkTile, pos world.Pos)
}

// Renderer draws every network tile of a city in input order.
type Renderer struct {
	opts    Options
	dst     world.Surface
	city    *city.City
	ground  *Ground
	lots    *spatial.Index2[*city.Lot]
	prefabs Prefabs
	pieces  map[city.NetworkKind]piece
	log     *slog.Logger
}

// NewRenderer creates a renderer writing to dst in region-local
// coordinates. prefabs may be nil.
func NewRenderer(dst world.Surface, c *city.City, ground *Ground, prefabs Prefabs, opts Options, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.HeightDivisor <= 0 {
		opts.HeightDivisor = 1
	}
	return &Renderer{
		opts:    opts,
		dst:     dst,
		city:    c,
		ground:  ground,
		lots:    c.LotIndex(),
		prefabs: prefabs,
		pieces: map[city.NetworkKind]piece{
			city.KindStreet: streetPiece{},
			city.KindRoad:   roadPiece{},
			city.KindRail:   railPiece{},
		},
		log: log,
	}
}

// Render draws all network tiles.
func (r *Renderer) Render() Stats {
	var st Stats
	for i := range r.city.Networks {
		t := &r.city.Networks[i]
		p, ok := r.pieces[t.Kind]
		if !ok {
			r.log.Warn("unknown network kind", "kind", t.Kind, "min", t.Min)
			st.Skipped++
			continue
		}

		pos := r.position(t)
		p.build(r, t, pos)

		switch t.Kind {
		case city.KindStreet:
			st.Streets++
		case city.KindRoad:
			st.Roads++
		case city.KindRail:
			st.Rails++
		}

		if r.opts.Debug {
			r.mark(t, pos)
		}
	}
	r.log.Debug("networks rendered", "streets", st.Streets, "roads", st.Roads, "rails", st.Rails)
	return st
}

// position returns the tile origin: min X/Z and the block just above the
// tile's min Y.
func (r *Renderer) position(t *city.NetworkTile) world.Pos {
	return world.Pos{
		X: int(math.Floor(t.Min.X)),
		Y: r.blockY(t.Min.Y) + 1,
		Z: int(math.Floor(t.Min.Z)),
	}
}

func (r *Renderer) blockY(raw float64) int {
	return int(math.Floor(raw / float64(r.opts.HeightDivisor)))
}

// base is the Y the tile's layers hang below.
func (r *Renderer) base(t *city.NetworkTile) int {
	return floorDiv(int(math.Floor(t.Min.Y)), r.opts.HeightDivisor)
}

// raisedHeight is half the height difference to nb; each side of a
// seam takes half the grade.
func (r *Renderer) raisedHeight(pos world.Pos, nb *city.NetworkTile) float64 {
	if nb == nil {
		return 0
	}
	return float64(r.position(nb).Y-pos.Y) / 2
}

// connectivity resolves which sides of t connect: its own flag or the
// facing flag of the ground neighbour.
func (r *Renderer) connectivity(t *city.NetworkTile) (conn [4]bool, nbs [4]*city.NetworkTile) {
	tx, tz := t.Tile()
	for _, d := range city.Directions {
		nb := r.ground.neighbor(tx, tz, d)
		nbs[d] = nb
		conn[d] = t.Connects(d) || (nb != nil && nb.Connects(d.Opposite()))
	}
	return conn, nbs
}

func (r *Renderer) mark(t *city.NetworkTile, pos world.Pos) {
	y := r.blockY(t.Max.Y) + 1
	r.dst.SetBlock(pos.X, y, pos.Z, block.Of("oak_sign"))
	r.dst.AddBlockEntity(pos.X, y, pos.Z, block.Entity{
		"id":    "minecraft:sign",
		"Text1": textComponent(string(t.Kind)),
		"Text2": textComponent(fmt.Sprintf("%d", t.Orientation)),
	})
}

func textComponent(s string) string {
	return fmt.Sprintf(`{"text":%q}`, s)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
