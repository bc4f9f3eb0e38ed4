package prefab

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"

	"github.com/OCharnyshevich/citycraft/pkg/world/block"
	"github.com/OCharnyshevich/citycraft/pkg/world/spatial"
)

// Metadata keys understood by the loader.
const (
	KeyTerrainBlend = "SCTerrainBlend"
	KeyOccupyChunk  = "SCOccupyChunk"
	KeyPasteAir     = "SCPasteAir"
	KeyOffsetX      = "SCOffsetX"
	KeyOffsetY      = "SCOffsetY"
	KeyOffsetZ      = "SCOffsetZ"
	KeyAxisX        = "SCAxisX"
	KeyAxisY        = "SCAxisY"
	KeyAxisZ        = "SCAxisZ"
)

// maxHeight is the tallest schematic whose local Y fits a block key.
const maxHeight = 1 << 11

// schematicNBT mirrors the Sponge schematic v1/v2 root compound.
type schematicNBT struct {
	Version       int32            `nbt:"Version"`
	DataVersion   int32            `nbt:"DataVersion"`
	Width         int16            `nbt:"Width"`
	Height        int16            `nbt:"Height"`
	Length        int16            `nbt:"Length"`
	PaletteMax    int32            `nbt:"PaletteMax"`
	Palette       map[string]int32 `nbt:"Palette"`
	BlockData     []byte           `nbt:"BlockData"`
	BlockEntities []map[string]any `nbt:"BlockEntities"`
	TileEntities  []map[string]any `nbt:"TileEntities"`
	Metadata      map[string]any   `nbt:"Metadata"`
}

// Decode reads a gzip-compressed schematic.
func Decode(name string, r io.Reader) (*Prefab, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, &MalformedError{Name: name, Reason: "gzip header", Err: err}
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, &MalformedError{Name: name, Reason: "decompress", Err: err}
	}
	return DecodeNBT(name, data)
}

// DecodeNBT parses an uncompressed schematic NBT document.
func DecodeNBT(name string, data []byte) (*Prefab, error) {
	var raw schematicNBT
	if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, &MalformedError{Name: name, Reason: "nbt", Err: err}
	}
	return build(name, &raw)
}

func build(name string, raw *schematicNBT) (*Prefab, error) {
	if raw.Version != 1 && raw.Version != 2 {
		return nil, &MalformedError{Name: name, Reason: fmt.Sprintf("unsupported schematic version %d", raw.Version)}
	}

	p := &Prefab{
		Name:        name,
		Width:       int(uint16(raw.Width)),
		Height:      int(uint16(raw.Height)),
		Length:      int(uint16(raw.Length)),
		DataVersion: int(raw.DataVersion),
		blocks:      spatial.NewIndex3[uint16](),
		entities:    spatial.NewIndex3[block.Entity](),
	}
	volume := p.Width * p.Height * p.Length
	if volume == 0 {
		return nil, &MalformedError{Name: name, Reason: "zero-sized volume"}
	}
	if p.Height > maxHeight {
		return nil, &MalformedError{Name: name, Reason: fmt.Sprintf("height %d exceeds %d", p.Height, maxHeight)}
	}

	if raw.PaletteMax != 0 && int(raw.PaletteMax) != len(raw.Palette) {
		return nil, &MalformedError{Name: name, Reason: fmt.Sprintf("palette has %d entries, PaletteMax is %d", len(raw.Palette), raw.PaletteMax)}
	}
	palette, err := buildPalette(raw.Palette)
	if err != nil {
		return nil, &MalformedError{Name: name, Reason: "palette", Err: err}
	}
	for q := range 4 {
		p.rotated[q] = make([]block.State, len(palette))
		for i, st := range palette {
			p.rotated[q][i] = st.Rotate(q)
		}
	}

	if err := p.readBlocks(raw.BlockData, volume); err != nil {
		return nil, &MalformedError{Name: name, Reason: "block data", Err: err}
	}

	entities := raw.BlockEntities
	if raw.Version == 1 {
		entities = raw.TileEntities
	}
	for i, e := range entities {
		if err := p.addEntity(e); err != nil {
			return nil, &MalformedError{Name: name, Reason: fmt.Sprintf("block entity %d", i), Err: err}
		}
	}

	p.Meta = readMetadata(raw.Metadata, p)
	return p, nil
}

func buildPalette(m map[string]int32) ([]block.State, error) {
	size := 0
	for k, id := range m {
		if id < 0 || id > 0xFFFF {
			return nil, fmt.Errorf("id %d for %q out of range", id, k)
		}
		size = max(size, int(id)+1)
	}
	palette := make([]block.State, size)
	for k, id := range m {
		palette[id] = block.Parse(k)
	}
	return palette, nil
}

// readBlocks walks the varint array in X, then Z, then Y order.
func (p *Prefab) readBlocks(data []byte, volume int) error {
	layer := p.Width * p.Length
	i := 0
	for off := 0; off < len(data); i++ {
		id, n, err := readVarInt(data[off:])
		if err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		off += n
		if i >= volume {
			continue
		}
		y := i / layer
		rem := i - y*layer
		z := rem / p.Width
		x := rem - z*p.Width
		if id < 0 || int(id) >= len(p.rotated[0]) || p.rotated[0][id].IsZero() {
			return fmt.Errorf("index %d: palette id %d undefined", i, id)
		}
		p.blocks.Put(x, y, z, uint16(id))
	}
	if i != volume {
		return fmt.Errorf("%d entries for a %dx%dx%d volume", i, p.Width, p.Height, p.Length)
	}
	return nil
}

func (p *Prefab) addEntity(raw map[string]any) error {
	pos, ok := intTriple(raw["Pos"])
	if !ok {
		return fmt.Errorf("missing or invalid Pos")
	}
	e := make(block.Entity, len(raw))
	for k, v := range raw {
		switch k {
		case "Pos":
		case "Id":
			e["id"] = v
		default:
			e[k] = v
		}
	}
	p.entities.Put(pos[0], pos[1], pos[2], e)
	return nil
}

func intTriple(v any) ([3]int, bool) {
	var out [3]int
	switch a := v.(type) {
	case []int32:
		if len(a) != 3 {
			return out, false
		}
		for i, n := range a {
			out[i] = int(n)
		}
	case []any:
		if len(a) != 3 {
			return out, false
		}
		for i, n := range a {
			out[i] = int(asInt(n))
		}
	default:
		return out, false
	}
	return out, true
}

func readMetadata(m map[string]any, p *Prefab) Metadata {
	cx, cy, cz := p.Center()
	md := Metadata{AxisX: cx, AxisY: cy, AxisZ: cz}
	for k, v := range m {
		switch {
		case strings.EqualFold(k, KeyTerrainBlend):
			md.TerrainBlend = asInt(v) != 0
		case strings.EqualFold(k, KeyOccupyChunk):
			md.OccupyChunk = asInt(v) != 0
		case strings.EqualFold(k, KeyPasteAir):
			md.PasteAir = asInt(v) != 0
		case k == KeyOffsetX:
			md.OffsetX = int(asInt(v))
		case k == KeyOffsetY:
			md.OffsetY = int(asInt(v))
		case k == KeyOffsetZ:
			md.OffsetZ = int(asInt(v))
		case k == KeyAxisX:
			md.AxisX = asFloat(v)
		case k == KeyAxisY:
			md.AxisY = asFloat(v)
		case k == KeyAxisZ:
			md.AxisZ = asFloat(v)
		}
	}
	return md
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case bool:
		if n {
			return 1
		}
	case int8:
		return int64(n)
	case uint8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return float64(asInt(v))
}
