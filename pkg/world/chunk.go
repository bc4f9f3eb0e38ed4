package world

import "github.com/OCharnyshevich/citycraft/pkg/world/block"

// ChunkPos identifies a chunk column by its X and Z coordinates.
type ChunkPos struct{ X, Z int }

// SectionSize is the edge length of a section and of a chunk column.
const SectionSize = 16

// Section holds a 16×16×16 slice of a chunk column as palette indices.
// Index = y*256 + z*16 + x. Palette entry 0 is always air.
type Section struct {
	Palette []block.State
	Blocks  [4096]uint16

	lookup map[block.State]uint16
}

func newSection() *Section {
	return &Section{
		Palette: []block.State{block.Air},
		lookup:  map[block.State]uint16{block.Air: 0},
	}
}

func (s *Section) paletteIndex(st block.State) uint16 {
	if i, ok := s.lookup[st]; ok {
		return i
	}
	i := uint16(len(s.Palette))
	s.Palette = append(s.Palette, st)
	s.lookup[st] = i
	return i
}

// Empty reports whether every block in the section is air.
func (s *Section) Empty() bool {
	for _, b := range s.Blocks {
		if b != 0 {
			return false
		}
	}
	return true
}

// ChunkData holds one chunk column. It is not safe for concurrent
// mutation; callers own disjoint columns.
type ChunkData struct {
	Pos      ChunkPos
	Sections []*Section // nil = all-air; index 0 is the lowest section
	Entities []block.Entity
}

func newChunkData(pos ChunkPos, sections int) *ChunkData {
	return &ChunkData{Pos: pos, Sections: make([]*Section, sections)}
}

// SetBlock sets a block at chunk-local x, z and section-relative y
// (0 = the world's lowest block).
func (c *ChunkData) SetBlock(x, y, z int, st block.State) {
	sec := y >> 4
	if c.Sections[sec] == nil {
		if st.IsAir() {
			return
		}
		c.Sections[sec] = newSection()
	}
	s := c.Sections[sec]
	s.Blocks[(y&0xF)*256+z*16+x] = s.paletteIndex(st)
}

// GetBlock returns the block at chunk-local coordinates.
func (c *ChunkData) GetBlock(x, y, z int) block.State {
	s := c.Sections[y>>4]
	if s == nil {
		return block.Air
	}
	return s.Palette[s.Blocks[(y&0xF)*256+z*16+x]]
}
