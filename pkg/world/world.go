// Package world is the in-memory voxel surface that generation phases
// write to.
package world

import (
	"sync"

	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

// Vertical bounds of the generated world.
const (
	MinY = 0
	MaxY = 1024
)

// Surface is the block store generation writes to. Reads outside the
// vertical range return air and writes there are ignored.
type Surface interface {
	Block(x, y, z int) block.State
	SetBlock(x, y, z int, st block.State)
	// AddBlockEntity appends e, positioned at (x, y, z), to the entity
	// list of the chunk containing that position.
	AddBlockEntity(x, y, z int, e block.Entity)
}

// World stores chunk columns created on first write.
type World struct {
	mu       sync.RWMutex
	chunks   map[ChunkPos]*ChunkData
	sections int
}

// New creates an empty world spanning [MinY, MaxY).
func New() *World {
	return &World{
		chunks:   make(map[ChunkPos]*ChunkData),
		sections: (MaxY - MinY) / SectionSize,
	}
}

// Chunk returns the chunk at (cx, cz), or nil if nothing was written there.
func (w *World) Chunk(cx, cz int) *ChunkData {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chunks[ChunkPos{cx, cz}]
}

// GetOrCreateChunk returns the chunk at (cx, cz), creating it if needed.
func (w *World) GetOrCreateChunk(cx, cz int) *ChunkData {
	pos := ChunkPos{X: cx, Z: cz}

	w.mu.RLock()
	if c, ok := w.chunks[pos]; ok {
		w.mu.RUnlock()
		return c
	}
	w.mu.RUnlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	// Double-check after acquiring write lock.
	if existing, ok := w.chunks[pos]; ok {
		return existing
	}
	c := newChunkData(pos, w.sections)
	w.chunks[pos] = c
	return c
}

// Block returns the block at world coordinates.
func (w *World) Block(x, y, z int) block.State {
	if y < MinY || y >= MaxY {
		return block.Air
	}
	c := w.Chunk(x>>4, z>>4)
	if c == nil {
		return block.Air
	}
	return c.GetBlock(x&0xF, y-MinY, z&0xF)
}

// SetBlock writes a block at world coordinates.
func (w *World) SetBlock(x, y, z int, st block.State) {
	if y < MinY || y >= MaxY || st.IsZero() {
		return
	}
	c := w.GetOrCreateChunk(x>>4, z>>4)
	c.SetBlock(x&0xF, y-MinY, z&0xF, st)
}

// AddBlockEntity stores e with its coordinates set to (x, y, z).
func (w *World) AddBlockEntity(x, y, z int, e block.Entity) {
	if y < MinY || y >= MaxY {
		return
	}
	c := w.GetOrCreateChunk(x>>4, z>>4)
	c.Entities = append(c.Entities, e.WithPosition(x, y, z))
}

// ChunkEntities returns the block entities stored in chunk (cx, cz).
func (w *World) ChunkEntities(cx, cz int) []block.Entity {
	c := w.Chunk(cx, cz)
	if c == nil {
		return nil
	}
	return c.Entities
}

// ForEachChunk calls fn for every chunk under a read lock.
func (w *World) ForEachChunk(fn func(c *ChunkData)) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, c := range w.chunks {
		fn(c)
	}
}

// ChunkCount returns the number of chunks that have been written to.
func (w *World) ChunkCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// Translate returns a view of s whose origin is moved to (dx, dz).
func Translate(s Surface, dx, dz int) Surface {
	if dx == 0 && dz == 0 {
		return s
	}
	return offsetSurface{s: s, dx: dx, dz: dz}
}

type offsetSurface struct {
	s      Surface
	dx, dz int
}

func (o offsetSurface) Block(x, y, z int) block.State {
	return o.s.Block(x+o.dx, y, z+o.dz)
}

func (o offsetSurface) SetBlock(x, y, z int, st block.State) {
	o.s.SetBlock(x+o.dx, y, z+o.dz, st)
}

func (o offsetSurface) AddBlockEntity(x, y, z int, e block.Entity) {
	o.s.AddBlockEntity(x+o.dx, y, z+o.dz, e)
}
