// Package heightfield derives a smooth per-block elevation surface from
// coarse per-tile samples.
package heightfield

import (
	"errors"
	"fmt"
	"math"
)

// TileSize is the number of blocks along one edge of an input tile.
const TileSize = 16

// Field is a block-resolution elevation grid. Heights are stored in raw
// sample units; callers divide by their own vertical scale.
type Field struct {
	width, depth int // in blocks
	heights      []float32
	min, max     float32
}

// New upsamples tiles (indexed [z][x]) to block resolution and applies
// passes rounds of neighbour averaging.
func New(tiles [][]float32, passes int) (*Field, error) {
	if len(tiles) == 0 || len(tiles[0]) == 0 {
		return nil, errors.New("heightfield: empty tile grid")
	}
	tw := len(tiles[0])
	for z, row := range tiles {
		if len(row) != tw {
			return nil, fmt.Errorf("heightfield: row %d has %d samples, want %d", z, len(row), tw)
		}
	}
	if passes < 0 {
		return nil, fmt.Errorf("heightfield: negative pass count %d", passes)
	}

	f := &Field{
		width: tw * TileSize,
		depth: len(tiles) * TileSize,
	}
	f.heights = make([]float32, f.width*f.depth)
	for z := 0; z < f.depth; z++ {
		row := tiles[z/TileSize]
		for x := 0; x < f.width; x++ {
			f.heights[z*f.width+x] = row[x/TileSize]
		}
	}

	f.updateBounds()
	for range passes {
		f.smooth()
	}
	return f, nil
}

// smooth runs one averaging sweep along X then along Z. Edge samples are
// kept as anchors.
func (f *Field) smooth() {
	w, d := f.width, f.depth
	for z := 0; z < d; z++ {
		row := f.heights[z*w : (z+1)*w]
		for x := 1; x < w-1; x++ {
			row[x] = (row[x] + (row[x-1]+row[x+1])/2) / 2
		}
	}
	for x := 0; x < w; x++ {
		for z := 1; z < d-1; z++ {
			prev := f.heights[(z-1)*w+x]
			next := f.heights[(z+1)*w+x]
			i := z*w + x
			f.heights[i] = (f.heights[i] + (prev+next)/2) / 2
		}
	}
	f.updateBounds()
}

func (f *Field) updateBounds() {
	f.min, f.max = float32(math.MaxFloat32), -float32(math.MaxFloat32)
	for _, h := range f.heights {
		f.min = min(f.min, h)
		f.max = max(f.max, h)
	}
}

// Width returns the field size along X in blocks.
func (f *Field) Width() int { return f.width }

// Depth returns the field size along Z in blocks.
func (f *Field) Depth() int { return f.depth }

// Min returns the lowest sample.
func (f *Field) Min() float32 { return f.min }

// Max returns the highest sample.
func (f *Field) Max() float32 { return f.max }

// Contains reports whether (x, z) lies inside the field.
func (f *Field) Contains(x, z int) bool {
	return x >= 0 && z >= 0 && x < f.width && z < f.depth
}

func (f *Field) index(x, z int) int {
	x = min(max(x, 0), f.width-1)
	z = min(max(z, 0), f.depth-1)
	return z*f.width + x
}

// Height returns the sample at (x, z), clamping coordinates to the field.
func (f *Field) Height(x, z int) float32 {
	return f.heights[f.index(x, z)]
}

// Set overwrites the sample at (x, z). Out-of-range coordinates are
// ignored. Concurrent callers must write disjoint coordinates.
func (f *Field) Set(x, z int, h float32) {
	if !f.Contains(x, z) {
		return
	}
	f.heights[z*f.width+x] = h
}

// InterpolatedHeight blends the four block samples surrounding the
// fractional position (x, z).
func (f *Field) InterpolatedHeight(x, z float64) float64 {
	bx, bz := math.Floor(x), math.Floor(z)
	ix, iz := int(bx), int(bz)

	nw := math.Floor(float64(f.Height(ix, iz)))
	ne := math.Floor(float64(f.Height(ix+1, iz)))
	sw := math.Floor(float64(f.Height(ix, iz+1)))
	se := math.Floor(float64(f.Height(ix+1, iz+1)))

	fx, fz := x-bx, z-bz
	north := (1-fx)*nw + fx*ne
	south := (1-fx)*sw + fx*se
	return (1-fz)*north + fz*south
}
