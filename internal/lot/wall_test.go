package lot

import (
	"testing"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/network"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

type flatHeights int

func (h flatHeights) Height(int, int) int { return int(h) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		wealth    city.Wealth
		occupants []city.OccupantGroup
		want      Wall
	}{
		{"no occupants", city.WealthNone, nil, WallStone},
		{"no occupants rich", city.WealthHigh, nil, WallStone},
		{"agriculture", city.WealthHigh, []city.OccupantGroup{city.OccupantHighTech, city.OccupantAgriculture}, WallDirt},
		{"low residents", city.WealthNone, []city.OccupantGroup{city.OccupantResidentialLow}, WallConcrete},
		{"dirty industry", city.WealthHigh, []city.OccupantGroup{city.OccupantDirtyIndustry}, WallConcrete},
		{"manufacturing", city.WealthNone, []city.OccupantGroup{city.OccupantManufacturing}, WallDarkBricks},
		{"offices", city.WealthNone, []city.OccupantGroup{city.OccupantOfficeHigh}, WallBricks},
		{"concrete before bricks", city.WealthNone, []city.OccupantGroup{city.OccupantHighTech, city.OccupantServiceLow}, WallConcrete},
		{"wealth fallback low", city.WealthLow, []city.OccupantGroup{"X"}, WallConcrete},
		{"wealth fallback mid", city.WealthMid, []city.OccupantGroup{"X"}, WallDarkBricks},
		{"wealth fallback high", city.WealthHigh, []city.OccupantGroup{"X"}, WallBricks},
		{"unknown without wealth", city.WealthNone, []city.OccupantGroup{"X"}, WallStone},
	}
	for _, tt := range tests {
		l := &city.Lot{Wealth: tt.wealth, Occupants: tt.occupants}
		if got := Classify(l); got != tt.want {
			t.Errorf("%s: Classify() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestBuildStoneWall(t *testing.T) {
	c := &city.City{
		Name:    "test",
		Heights: [][]float32{{200, 200}},
		Lots:    []city.Lot{{MinTileX: 0, MinTileZ: 0, SizeX: 1, SizeZ: 1, Y: 200}},
	}
	w := world.New()
	st := NewBuilder(w, c, network.NewGround(c, 16), flatHeights(100), 16, nil).Build()

	if st.Lots != 1 || st.Columns != 256 || st.Skipped != 0 {
		t.Fatalf("Build() = %+v, want one lot of 256 columns", st)
	}
	stone := WallStone.State()
	for _, y := range []int{99, 85} {
		if got := w.Block(7, y, 7); got != stone {
			t.Errorf("Block(7, %d, 7) = %s, want %s", y, got, stone)
		}
	}
	for _, y := range []int{100, 84} {
		if got := w.Block(7, y, 7); got != block.Air {
			t.Errorf("Block(7, %d, 7) = %s, want air", y, got)
		}
	}
	if got := w.Block(20, 99, 7); got != block.Air {
		t.Errorf("Block(20, 99, 7) = %s, want air outside the lot", got)
	}
}

func TestBuildSkipsNetworkTiles(t *testing.T) {
	c := &city.City{
		Name:    "test",
		Heights: [][]float32{{200, 200}},
		Lots: []city.Lot{{
			MinTileX: 0, MinTileZ: 0, SizeX: 2, SizeZ: 1, Y: 200,
			Wealth:    city.WealthHigh,
			Occupants: []city.OccupantGroup{city.OccupantResidentialHigh},
		}},
		Networks: []city.NetworkTile{{
			Kind: city.KindStreet,
			Min:  city.Vec3{X: 16, Y: 200, Z: 0},
			Max:  city.Vec3{X: 32, Y: 204, Z: 16},
		}},
	}
	w := world.New()
	st := NewBuilder(w, c, network.NewGround(c, 16), flatHeights(100), 16, nil).Build()

	if st.Skipped != 1 || st.Columns != 256 {
		t.Fatalf("Build() = %+v, want one tile skipped", st)
	}
	if got := w.Block(3, 90, 3); got != WallBricks.State() {
		t.Errorf("Block(3, 90, 3) = %s, want bricks", got)
	}
	if got := w.Block(20, 90, 3); got != block.Air {
		t.Errorf("Block(20, 90, 3) = %s, want air under the street", got)
	}
}
