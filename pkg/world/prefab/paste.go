package prefab

import (
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

// RemapFunc retargets a paste. local is the unrotated prefab position and
// placed is the rotated position already offset by the paste origin. It
// returns the destination and false to skip the position entirely.
type RemapFunc func(local, placed world.Pos) (world.Pos, bool)

// PasteOptions control a single paste.
type PasteOptions struct {
	// Rotation in degrees; must be a multiple of 90.
	Rotation int
	// PasteAir writes air blocks too. The prefab's own PasteAir flag has
	// the same effect.
	PasteAir bool
	// AboutCenter rotates around the geometric centre instead of the
	// metadata axis.
	AboutCenter bool
	Remap       RemapFunc
}

// PasteResult counts what a paste wrote.
type PasteResult struct {
	Blocks   int
	Entities int
}

// RotatedPosition returns where local position (x, y, z) lands, relative
// to the paste origin, under the given rotation.
func (p *Prefab) RotatedPosition(x, y, z, degrees int, aboutCenter bool) (world.Pos, error) {
	q, err := quarters(degrees)
	if err != nil {
		return world.Pos{}, err
	}
	rx, rz := p.pivot(aboutCenter).rotate(x, z, q)
	return world.Pos{X: rx, Y: y, Z: rz}, nil
}

// Paste writes the prefab into dst with its local origin at at.
func (p *Prefab) Paste(dst world.Surface, at world.Pos, opts PasteOptions) (PasteResult, error) {
	var res PasteResult
	q, err := quarters(opts.Rotation)
	if err != nil {
		return res, err
	}
	pv := p.pivot(opts.AboutCenter)
	palette := p.rotated[q]
	pasteAir := opts.PasteAir || p.Meta.PasteAir

	resolve := func(x, y, z int) (world.Pos, bool) {
		rx, rz := pv.rotate(x, z, q)
		placed := world.Pos{X: at.X + rx, Y: at.Y + y, Z: at.Z + rz}
		if opts.Remap != nil {
			return opts.Remap(world.Pos{X: x, Y: y, Z: z}, placed)
		}
		return placed, true
	}

	p.blocks.Range(func(x, y, z int, id uint16) {
		st := paletteAt(palette, id)
		if st.IsZero() || (st.IsAir() && !pasteAir) {
			return
		}
		dstPos, ok := resolve(x, y, z)
		if !ok {
			return
		}
		dst.SetBlock(dstPos.X, dstPos.Y, dstPos.Z, st)
		res.Blocks++
	})

	p.entities.Range(func(x, y, z int, e block.Entity) {
		dstPos, ok := resolve(x, y, z)
		if !ok {
			return
		}
		dst.AddBlockEntity(dstPos.X, dstPos.Y, dstPos.Z, e)
		res.Entities++
	})
	return res, nil
}
