package city

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCity = `{
  "name": "Riverside",
  "tile_x": 1,
  "tile_z": -1,
  "heights": [[300, 300], [300, 310]],
  "lots": [
    {"min_tile_x": 0, "min_tile_z": 1, "size_x": 2, "size_z": 1, "y": 305,
     "zone": "industrial_low", "wealth": "$", "occupants": ["IR"]}
  ],
  "networks": [
    {"kind": "road", "orientation": 0, "connections": [0, 2, 0, 1],
     "min": {"x": 16, "y": 300, "z": 0}, "max": {"x": 32, "y": 302, "z": 16},
     "position": {"x": 24, "y": 300, "z": 8}}
  ],
  "placeables": [
    {"id": "oak", "kind": "flora", "min": {"x": 3, "y": 300, "z": 4},
     "max": {"x": 4, "y": 310, "z": 5}, "orientation": 1, "flags": 1},
    {"id": "bench", "kind": "prop", "min": {"x": 5, "y": 300, "z": 4},
     "max": {"x": 6, "y": 301, "z": 5}, "flags": 0, "chance": 40}
  ]
}`

func TestDecode(t *testing.T) {
	c, err := Decode("sample", strings.NewReader(sampleCity))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Name != "Riverside" {
		t.Errorf("Name = %q, want Riverside", c.Name)
	}
	if x, z := c.Origin(); x != 1024 || z != -1024 {
		t.Errorf("Origin() = (%d, %d), want (1024, -1024)", x, z)
	}
	if len(c.Lots) != 1 || !c.Lots[0].Zone.Industrial() || !c.Lots[0].HasOccupant(OccupantAgriculture) {
		t.Errorf("Lots = %+v, want one industrial IR lot", c.Lots)
	}

	road := c.Networks[0]
	if tx, tz := road.Tile(); tx != 1 || tz != 0 {
		t.Errorf("Tile() = (%d, %d), want (1, 0)", tx, tz)
	}
	if !road.Connects(East) || !road.Connects(West) || road.Connects(North) {
		t.Errorf("Connections %v decoded wrong", road.Connections)
	}
	if n := road.ConnectionCount(); n != 2 {
		t.Errorf("ConnectionCount() = %d, want 2", n)
	}

	if !c.Placeables[0].Visible() || c.Placeables[1].Visible() {
		t.Errorf("Visible flags decoded wrong")
	}
	if c.Placeables[1].Chance == nil || *c.Placeables[1].Chance != 40 {
		t.Errorf("Chance = %v, want 40", c.Placeables[1].Chance)
	}
	if c.Placeables[0].Chance != nil {
		t.Errorf("Chance of flora = %v, want nil", *c.Placeables[0].Chance)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing heights", `{"name": "a"}`},
		{"empty name", `{"name": "", "heights": [[1]]}`},
		{"bad kind", `{"name": "a", "heights": [[1]], "networks": [{"kind": "canal", "min": {"x":0,"y":0,"z":0}, "max": {"x":0,"y":0,"z":0}}]}`},
		{"bad wealth", `{"name": "a", "heights": [[1]], "lots": [{"min_tile_x":0,"min_tile_z":0,"size_x":1,"size_z":1,"y":1,"wealth":"$$$$"}]}`},
		{"short connections", `{"name": "a", "heights": [[1]], "networks": [{"kind": "road", "connections": [1,2], "min": {"x":0,"y":0,"z":0}, "max": {"x":0,"y":0,"z":0}}]}`},
		{"ragged heights", `{"name": "a", "heights": [[1, 2], [3]]}`},
		{"chance out of range", `{"name": "a", "heights": [[1]], "placeables": [{"id":"x","kind":"prop","min":{"x":0,"y":0,"z":0},"max":{"x":0,"y":0,"z":0},"chance":101}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.name, strings.NewReader(tt.doc))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Decode() error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city.json")
	if err := os.WriteFile(path, []byte(sampleCity), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Buildings()) != 0 {
		t.Errorf("Buildings() = %d, want 0", len(c.Buildings()))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}

func TestLotTiles(t *testing.T) {
	l := Lot{MinTileX: -1, MinTileZ: 0, SizeX: 3, SizeZ: 2}
	n := 0
	l.Tiles(func(tx, tz int) {
		if tx < 0 {
			t.Errorf("Tiles visited negative tile (%d, %d)", tx, tz)
		}
		n++
	})
	if n != 4 {
		t.Errorf("Tiles visited %d tiles, want 4", n)
	}
}

func TestPlaceableRotation(t *testing.T) {
	tests := []struct{ orientation, want int }{
		{0, 0}, {1, 90}, {2, 0}, {3, 270}, {4, 180}, {7, 0},
	}
	for _, tt := range tests {
		p := Placeable{Orientation: tt.orientation}
		if got := p.Rotation(); got != tt.want {
			t.Errorf("Rotation(%d) = %d, want %d", tt.orientation, got, tt.want)
		}
	}
}

func TestDirection(t *testing.T) {
	if North.Opposite() != South || East.Opposite() != West {
		t.Error("Opposite mismatch")
	}
	if dx, dz := West.Offset(); dx != -1 || dz != 0 {
		t.Errorf("West.Offset() = (%d, %d), want (-1, 0)", dx, dz)
	}
}
