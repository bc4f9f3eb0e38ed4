// Package prefab loads Sponge schematics and pastes them, rotated, into a
// world surface.
package prefab

import (
	"math"

	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

// Metadata holds the placement hints stored in a schematic's Metadata
// compound.
type Metadata struct {
	TerrainBlend bool // blend into terrain instead of being placed as an object
	OccupyChunk  bool // snap placement to the chunk origin
	PasteAir     bool // always paste air blocks

	OffsetX, OffsetY, OffsetZ int

	// Rotation axis in prefab-local block units. Defaults to the centre.
	AxisX, AxisY, AxisZ float64
}

// Prefab is an immutable parsed schematic.
type Prefab struct {
	Name                  string
	Width, Height, Length int
	DataVersion           int
	Meta                  Metadata

	// rotated[q] is the palette with every state turned by q quarters.
	rotated  [4][]block.State
	blocks   *spatial.Index3[uint16]
	entities *spatial.Index3[block.Entity]
}

// Center returns the geometric centre of the bounding box.
func (p *Prefab) Center() (x, y, z float64) {
	return float64(p.Width) / 2, float64(p.Height) / 2, float64(p.Length) / 2
}

// Offset returns the metadata placement offset.
func (p *Prefab) Offset() (x, y, z int) {
	return p.Meta.OffsetX, p.Meta.OffsetY, p.Meta.OffsetZ
}

// Block returns the stored state at local coordinates, or the zero State
// if the position is absent.
func (p *Prefab) Block(x, y, z int) block.State {
	i, ok := p.blocks.Get(x, y, z)
	if !ok {
		return block.State{}
	}
	return paletteAt(p.rotated[0], i)
}

// BlockCount returns the number of stored block positions.
func (p *Prefab) BlockCount() int { return p.blocks.Len() }

// EntityCount returns the number of stored block entities.
func (p *Prefab) EntityCount() int { return p.entities.Len() }

func paletteAt(palette []block.State, i uint16) block.State {
	if int(i) >= len(palette) {
		return block.State{}
	}
	return palette[i]
}

// pivot is a rotation axis in doubled coordinates. Both components share
// a parity so quarter turns map integer positions onto integer positions.
type pivot struct {
	x2, z2 int
}

func newPivot(ax, az float64) pivot {
	p := pivot{
		x2: int(math.Round(2*ax)) - 1,
		z2: int(math.Round(2*az)) - 1,
	}
	if (p.x2-p.z2)%2 != 0 {
		p.z2--
	}
	return p
}

// rotate turns (x, z) by q quarter turns. One quarter turn moves north
// (-Z) to west (-X).
func (p pivot) rotate(x, z, q int) (int, int) {
	dx, dz := 2*x-p.x2, 2*z-p.z2
	switch q {
	case 1:
		dx, dz = dz, -dx
	case 2:
		dx, dz = -dx, -dz
	case 3:
		dx, dz = -dz, dx
	}
	return (dx + p.x2) / 2, (dz + p.z2) / 2
}

func (p *Prefab) pivot(aboutCenter bool) pivot {
	if aboutCenter {
		cx, _, cz := p.Center()
		return newPivot(cx, cz)
	}
	return newPivot(p.Meta.AxisX, p.Meta.AxisZ)
}

// quarters converts degrees to a quarter-turn count in [0, 4).
func quarters(degrees int) (int, error) {
	if degrees%90 != 0 {
		return 0, &InvalidRotationError{Degrees: degrees}
	}
	return ((degrees/90)%4 + 4) % 4, nil
}
