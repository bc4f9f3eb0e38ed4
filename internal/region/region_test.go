package region

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/config"
	"github.com/OCharnyshevich/citycraft/internal/journal"
	"github.com/OCharnyshevich/citycraft/internal/lot"
	"github.com/OCharnyshevich/citycraft/internal/prefabs"
	"github.com/OCharnyshevich/citycraft/internal/terrain"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func testOptions() Options {
	cfg := config.DefaultConfig()
	cfg.Seed = 3
	cfg.Terrain.SmoothingPasses = 0
	cfg.Terrain.StoneChance = 0
	cfg.Terrain.Workers = 2
	cfg.Regions.Workers = 2
	return OptionsFromConfig(cfg)
}

func loadLibrary(t *testing.T) *prefabs.Library {
	t.Helper()
	lib, err := prefabs.Load(context.Background(), prefabs.Options{}, nil)
	if err != nil {
		t.Fatalf("prefabs.Load: %v", err)
	}
	return lib
}

func intPtr(v int) *int { return &v }

func placeable(id string, kind city.PlaceableKind, minX, minY, minZ, maxX, maxY, maxZ float64) city.Placeable {
	return city.Placeable{
		ID:          id,
		Kind:        kind,
		Min:         city.Vec3{X: minX, Y: minY, Z: minZ},
		Max:         city.Vec3{X: maxX, Y: maxY, Z: maxZ},
		Orientation: 2,
		Flags:       city.FlagVisible,
	}
}

// sampleCity is three tiles in a row at raw height 300: a road, a tile of
// props and a walled lot with a tree.
func sampleCity() *city.City {
	culled := placeable("lamp_post", city.KindProp, 22, 300, 2, 23, 308, 3)
	culled.Chance = intPtr(0)
	hidden := placeable("oak_tree", city.KindFlora, 36, 300, 10, 41, 312, 15)
	hidden.Flags = 0

	return &city.City{
		Name:    "sample",
		TileX:   1,
		Heights: [][]float32{{300, 300, 300}},
		Lots: []city.Lot{{
			MinTileX: 2, SizeX: 1, SizeZ: 1, Y: 300,
			Wealth:    city.WealthHigh,
			Occupants: []city.OccupantGroup{city.OccupantResidentialHigh},
		}},
		Networks: []city.NetworkTile{{
			Kind:     city.KindRoad,
			Min:      city.Vec3{X: 0, Y: 300, Z: 0},
			Max:      city.Vec3{X: 16, Y: 304, Z: 16},
			Position: city.Vec3{X: 0, Y: 300, Z: 0},
		}},
		Placeables: []city.Placeable{
			placeable("small_house", city.KindBuilding, 24, 300, 8, 31, 310, 15),
			placeable("bench", city.KindProp, 18, 300, 4, 21, 302, 5),
			culled,
			placeable("nope", city.KindBuilding, 18, 300, 12, 20, 304, 14),
			placeable("lamp_post", city.KindProp, 3, 400, 3, 4, 408, 4),
			hidden,
			placeable("oak_tree", city.KindFlora, 40, 300, 2, 45, 312, 7),
		},
	}
}

func TestBuild(t *testing.T) {
	w := world.New()
	j := &memJournal{}
	b := NewBuilder(w, loadLibrary(t), j, testOptions(), nil)
	rep, err := b.Build(context.Background(), sampleCity())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	const ox = 1024
	if rep.Terrain.Columns != 3 || rep.Network.Roads != 1 || rep.Lots.Lots != 1 {
		t.Errorf("Build() report = %+v", rep)
	}
	want := PlacementStats{Placed: 3, Hidden: 1, Culled: 1, Missing: 1, BelowBounds: 1, Markers: 1}
	if rep.Placement != want {
		t.Errorf("Placement = %+v, want %+v", rep.Placement, want)
	}
	if len(rep.Skipped) != 1 || rep.Skipped[0] != "lamp_post" {
		t.Errorf("Skipped = %v, want [lamp_post]", rep.Skipped)
	}

	checks := []struct {
		name    string
		x, y, z int
		want    block.State
	}{
		{"grass", ox + 20, 150, 0, terrain.Grass},
		{"bench seat", ox + 19, 151, 4, block.Parse("oak_slab[type=bottom,waterlogged=false]")},
		{"house floor", ox + 27, 151, 11, block.Of("oak_planks")},
		{"house roof", ox + 27, 155, 11, block.Of("spruce_planks")},
		{"tree trunk", ox + 42, 151, 4, block.Parse("oak_log[axis=y]")},
		{"missing marker", ox + 19, 152, 13, block.Of("glass")},
		{"missing sign", ox + 18, 153, 12, block.Of("oak_sign")},
		{"lot wall", ox + 36, 149, 8, lot.WallBricks.State()},
		{"culled lamp", ox + 22, 151, 2, block.Air},
		{"hidden tree", ox + 38, 152, 12, block.Air},
	}
	for _, c := range checks {
		if got := w.Block(c.x, c.y, c.z); got != c.want {
			t.Errorf("%s: Block(%d, %d, %d) = %s, want %s", c.name, c.x, c.y, c.z, got, c.want)
		}
	}

	var chest, sign bool
	for _, e := range w.ChunkEntities((ox+29)>>4, 0) {
		if e.ID() == "minecraft:chest" {
			x, y, z, _ := e.Position()
			chest = x == ox+29 && y == 152 && z == 13
		}
	}
	for _, e := range w.ChunkEntities((ox+18)>>4, 0) {
		if e.ID() == "minecraft:sign" && e["Text1"] == `{"text":"nope"}` && e["Text2"] == `{"text":"2 (0)"}` {
			sign = true
		}
	}
	if !chest {
		t.Error("house chest entity missing or misplaced")
	}
	if !sign {
		t.Error("marker sign entity missing")
	}

	var phases []string
	for _, e := range j.entries {
		if e.Region != "sample" {
			t.Errorf("journal entry region = %q, want sample", e.Region)
		}
		phases = append(phases, e.Phase)
	}
	wantPhases := []string{"terrain", "network", "lots", "objects", "done"}
	if len(phases) != len(wantPhases) {
		t.Fatalf("journal phases = %v, want %v", phases, wantPhases)
	}
	for i := range phases {
		if phases[i] != wantPhases[i] {
			t.Errorf("journal phase %d = %s, want %s", i, phases[i], wantPhases[i])
		}
	}
}

func TestBuildDebugMarksEverything(t *testing.T) {
	opts := testOptions()
	opts.Debug = true
	c := &city.City{
		Name:       "debug",
		Heights:    [][]float32{{300}},
		Placeables: []city.Placeable{placeable("bench", city.KindProp, 4, 300, 4, 7, 302, 5)},
	}
	w := world.New()
	rep, err := NewBuilder(w, loadLibrary(t), nil, opts, nil).Build(context.Background(), c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.Placement.Placed != 1 || rep.Placement.Markers != 1 {
		t.Errorf("Placement = %+v, want one placed and marked", rep.Placement)
	}
	if got := w.Block(4, 152, 4); got != block.Of("oak_sign") {
		t.Errorf("Block(4, 152, 4) = %s, want oak_sign", got)
	}
	if got := w.Block(5, 151, 4); got == block.Of("glass") {
		t.Error("debug marker filled a placed prefab with glass")
	}
}

func TestBuildTerrainTimeout(t *testing.T) {
	b := NewBuilder(world.New(), nil, nil, testOptions(), nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := b.Build(ctx, &city.City{Name: "late", Heights: [][]float32{{300, 300}}})
	var te *terrain.GenerationTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Build() error = %v, want *terrain.GenerationTimeoutError", err)
	}
}

func TestBuildAll(t *testing.T) {
	cities := []*city.City{
		{Name: "west", TileX: 0, Heights: [][]float32{{300}}},
		{Name: "east", TileX: 1, Heights: [][]float32{{320}}},
	}
	w := world.New()
	reports, err := NewBuilder(w, nil, nil, testOptions(), nil).BuildAll(context.Background(), cities)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(reports) != 2 || reports[0].Region != "west" || reports[1].Region != "east" {
		t.Fatalf("BuildAll() reports out of order: %+v", reports)
	}
	if got := w.Block(5, 150, 5); got != terrain.Grass {
		t.Errorf("west Block(5, 150, 5) = %s, want grass", got)
	}
	if got := w.Block(1024+5, 160, 5); got != terrain.Grass {
		t.Errorf("east Block(1029, 160, 5) = %s, want grass", got)
	}
}

func TestBuildAllFailsFast(t *testing.T) {
	cities := []*city.City{
		{Name: "ok", Heights: [][]float32{{300}}},
		{Name: "empty", TileX: 1},
	}
	_, err := NewBuilder(world.New(), nil, nil, testOptions(), nil).BuildAll(context.Background(), cities)
	if err == nil {
		t.Fatal("BuildAll() succeeded with an empty height grid")
	}
}

func TestPlacementBelowBoundsError(t *testing.T) {
	err := error(&PlacementBelowBoundsError{ID: "lamp_post", X: 3, Y: 191, Z: 3, Steps: 10})
	want := "place lamp_post: no footing within 10 blocks below (3, 191, 3)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
