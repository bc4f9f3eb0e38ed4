package anvil

import (
	"bytes"
	"math/bits"
	"sort"
	"strings"

	"github.com/Tnze/go-mc/nbt"

	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

// DataVersion is the chunk format version written by EncodeChunk (1.19.3).
const DataVersion = 3218

const defaultBiome = "minecraft:plains"

// columnNBT is the root compound of a chunk column.
type columnNBT struct {
	DataVersion   int32          `nbt:"DataVersion"`
	XPos          int32          `nbt:"xPos"`
	ZPos          int32          `nbt:"zPos"`
	YPos          int32          `nbt:"yPos"`
	Status        string         `nbt:"Status"`
	LastUpdate    int64          `nbt:"LastUpdate"`
	InhabitedTime int64          `nbt:"InhabitedTime"`
	IsLightOn     bool           `nbt:"isLightOn"`
	Sections      []sectionNBT   `nbt:"sections"`
	BlockEntities []block.Entity `nbt:"block_entities"`
}

type sectionNBT struct {
	Y           int8           `nbt:"Y"`
	BlockStates blockStatesNBT `nbt:"block_states"`
	Biomes      biomesNBT      `nbt:"biomes"`
}

type blockStatesNBT struct {
	Palette []paletteEntryNBT `nbt:"palette"`
	// Data is omitted for single-state sections.
	Data []int64 `nbt:"data,omitempty"`
}

type paletteEntryNBT struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties,omitempty"`
}

type biomesNBT struct {
	Palette []string `nbt:"palette"`
}

// EncodeChunk encodes a chunk column in the paletted section format.
// Empty sections are omitted.
func EncodeChunk(c *world.ChunkData) ([]byte, error) {
	minSection := world.MinY >> 4
	col := columnNBT{
		DataVersion:   DataVersion,
		XPos:          int32(c.Pos.X),
		ZPos:          int32(c.Pos.Z),
		YPos:          int32(minSection),
		Status:        "full",
		Sections:      []sectionNBT{},
		BlockEntities: make([]block.Entity, 0, len(c.Entities)),
	}

	for i, s := range c.Sections {
		if s == nil || s.Empty() {
			continue
		}
		palette, data := packSection(s)
		entries := make([]paletteEntryNBT, len(palette))
		for j, st := range palette {
			entries[j] = paletteEntryNBT{Name: st.Name, Properties: st.Props()}
		}
		col.Sections = append(col.Sections, sectionNBT{
			Y:           int8(minSection + i),
			BlockStates: blockStatesNBT{Palette: entries, Data: data},
			Biomes:      biomesNBT{Palette: []string{defaultBiome}},
		})
	}

	for _, e := range c.Entities {
		e = e.Clone()
		if _, ok := e["keepPacked"]; !ok {
			e["keepPacked"] = int8(0)
		}
		col.BlockEntities = append(col.BlockEntities, e)
	}

	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(col, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// packSection compacts the section palette to the states in use and packs
// the indices into longs, entries never spanning two longs. A single-state
// section has no data array.
func packSection(s *world.Section) ([]block.State, []int64) {
	used := make(map[uint16]bool)
	for _, b := range s.Blocks {
		used[b] = true
	}
	old := make([]uint16, 0, len(used))
	for b := range used {
		old = append(old, b)
	}
	sort.Slice(old, func(i, j int) bool {
		return strings.Compare(s.Palette[old[i]].String(), s.Palette[old[j]].String()) < 0
	})

	remap := make(map[uint16]uint16, len(old))
	palette := make([]block.State, len(old))
	for i, b := range old {
		remap[b] = uint16(i)
		palette[i] = s.Palette[b]
	}
	if len(palette) == 1 {
		return palette, nil
	}

	width := max(4, bits.Len(uint(len(palette)-1)))
	perLong := 64 / width
	data := make([]int64, (len(s.Blocks)+perLong-1)/perLong)
	for i, b := range s.Blocks {
		v := uint64(remap[b])
		data[i/perLong] |= int64(v << (uint(i%perLong) * uint(width)))
	}
	return palette, data
}
