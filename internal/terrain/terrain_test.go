package terrain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OCharnyshevich/citycraft/internal/city"
	"github.com/OCharnyshevich/citycraft/internal/network"
	"github.com/OCharnyshevich/citycraft/internal/prefabs"
	"github.com/OCharnyshevich/citycraft/pkg/world"
	"github.com/OCharnyshevich/citycraft/pkg/world/block"
)

func flatCity(w, d int, h float32) *city.City {
	heights := make([][]float32, d)
	for z := range heights {
		heights[z] = make([]float32, w)
		for x := range heights[z] {
			heights[z][x] = h
		}
	}
	return &city.City{Name: "test", Heights: heights}
}

func testOptions() Options {
	return Options{
		Seed:            7,
		SmoothingPasses: 0,
		HeightDivisor:   2,
		MaxHeight:       1024,
		WaterLevel:      250,
		ShoreMargin:     5,
		StoneChance:     0,
		DirtDepth:       1,
		StoneDepth:      64,
		NetworkDepth:    16,
		Workers:         4,
		Timeout:         time.Minute,
	}
}

func generate(t *testing.T, c *city.City, lib Prefabs, opts Options) (*world.World, *Result) {
	t.Helper()
	w := world.New()
	g := NewGenerator(w, c, network.NewGround(c, 16), lib, opts, nil)
	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return w, res
}

func TestFlatRegion(t *testing.T) {
	c := flatCity(2, 2, 300)
	opts := testOptions()
	opts.SmoothingPasses = 10
	w, res := generate(t, c, nil, opts)

	if res.Columns != 4 || res.Water != 0 || res.Occupied != 0 {
		t.Fatalf("Generate() = %+v, want 4 dry columns", res)
	}

	for x := 0; x < 32; x++ {
		for z := 0; z < 32; z++ {
			if got := w.Block(x, 150, z); got != Grass {
				t.Fatalf("Block(%d, 150, %d) = %s, want grass", x, z, got)
			}
			if got := w.Block(x, 149, z); got != Dirt {
				t.Fatalf("Block(%d, 149, %d) = %s, want dirt", x, z, got)
			}
			for y := 117; y <= 148; y++ {
				if got := w.Block(x, y, z); got != Stone {
					t.Fatalf("Block(%d, %d, %d) = %s, want stone", x, y, z, got)
				}
			}
			if got := w.Block(x, 116, z); got != block.Air {
				t.Fatalf("Block(%d, 116, %d) = %s, want air", x, z, got)
			}
			if got := w.Block(x, 151, z); got != block.Air {
				t.Fatalf("Block(%d, 151, %d) = %s, want air", x, z, got)
			}
		}
	}
	if got := res.Height(31, 31); got != 150 {
		t.Errorf("Height(31, 31) = %d, want 150", got)
	}
}

func TestWaterAndShore(t *testing.T) {
	tests := []struct {
		name      string
		height    float32
		wantWater int
	}{
		{"lake", 200, 256},
		{"shore", 252, 0},
		{"dry", 300, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := generate(t, flatCity(1, 1, tt.height), nil, testOptions())
			if res.Water != tt.wantWater {
				t.Errorf("Water = %d, want %d", res.Water, tt.wantWater)
			}

			bh := int(tt.height) / 2
			top := w.Block(3, bh, 3)
			waterAbove := w.Block(3, bh+1, 3) == Water
			switch {
			case tt.wantWater > 0:
				if top != Sand || !waterAbove {
					t.Errorf("column = %s under water %v, want sand under water", top, waterAbove)
				}
				if got := w.Block(3, 125, 3); got != Water {
					t.Errorf("Block(3, 125, 3) = %s, want water", got)
				}
				if got := w.Block(3, 126, 3); got != block.Air {
					t.Errorf("Block(3, 126, 3) = %s, want air", got)
				}
				// 32 sand blocks below the surface, then one stone.
				if got := w.Block(3, bh-32, 3); got != Sand {
					t.Errorf("Block(3, %d, 3) = %s, want sand", bh-32, got)
				}
				if got := w.Block(3, bh-33, 3); got != Stone {
					t.Errorf("Block(3, %d, 3) = %s, want stone", bh-33, got)
				}
				if got := w.Block(3, bh-34, 3); got != block.Air {
					t.Errorf("Block(3, %d, 3) = %s, want air", bh-34, got)
				}
			case tt.height == 252:
				if top != Sand || waterAbove {
					t.Errorf("shore column = %s, water above %v, want dry sand", top, waterAbove)
				}
			default:
				if top != Grass {
					t.Errorf("Block(3, %d, 3) = %s, want grass", bh, top)
				}
			}
		})
	}
}

func TestWaterAndSurfaceExclusive(t *testing.T) {
	c := &city.City{Name: "slope", Heights: [][]float32{{200, 240, 260, 320}}}
	opts := testOptions()
	opts.SmoothingPasses = 20
	w, res := generate(t, c, nil, opts)

	for x := 0; x < 64; x++ {
		bh := res.Height(x, 8)
		top := w.Block(x, bh, 8)
		if top == Grass && w.Block(x, bh+1, 8) == Water {
			t.Errorf("column %d has grass under water", x)
		}
		if top != Grass && top != Sand && top != Stone {
			t.Errorf("column %d surface = %s", x, top)
		}
	}
}

func TestLotAndNetworkOverride(t *testing.T) {
	c := flatCity(3, 1, 300)
	c.Lots = []city.Lot{{MinTileX: 0, MinTileZ: 0, SizeX: 1, SizeZ: 1, Y: 320}}
	c.Networks = []city.NetworkTile{{
		Kind:     city.KindRoad,
		Min:      city.Vec3{X: 32, Y: 300, Z: 0},
		Max:      city.Vec3{X: 48, Y: 304, Z: 16},
		Position: city.Vec3{X: 32, Y: 300, Z: 0},
	}}
	w, res := generate(t, c, nil, testOptions())

	if got := res.Field.Height(5, 5); got != 320 {
		t.Errorf("Field.Height(5, 5) = %v, want lot Y 320", got)
	}
	if got := w.Block(5, 160, 5); got != Grass {
		t.Errorf("Block(5, 160, 5) = %s, want grass on the lot", got)
	}

	if got := res.Field.Height(40, 5); got != 284 {
		t.Errorf("Field.Height(40, 5) = %v, want 284 under the network", got)
	}
	if got := w.Block(40, 142, 5); got != block.Air {
		t.Errorf("Block(40, 142, 5) = %s, want no surface under the network", got)
	}
	if got := w.Block(40, 141, 5); got != Dirt {
		t.Errorf("Block(40, 141, 5) = %s, want dirt", got)
	}

	if got := w.Block(20, 150, 5); got != Grass {
		t.Errorf("Block(20, 150, 5) = %s, want untouched grass", got)
	}
}

func TestBlendedPrefab(t *testing.T) {
	lib, err := prefabs.Load(context.Background(), prefabs.Options{}, nil)
	if err != nil {
		t.Fatalf("prefabs.Load: %v", err)
	}
	c := flatCity(2, 1, 300)
	c.Placeables = []city.Placeable{{
		ID:          "farm_plot",
		Kind:        city.KindBuilding,
		Min:         city.Vec3{X: 16, Y: 300, Z: 0},
		Max:         city.Vec3{X: 32, Y: 304, Z: 16},
		Orientation: 2,
		Flags:       city.FlagVisible,
	}}
	w, res := generate(t, c, lib, testOptions())

	if res.Occupied != 1 {
		t.Fatalf("Occupied = %d, want 1", res.Occupied)
	}
	farmland := block.Parse("farmland[moisture=7]")
	if got := w.Block(20, 150, 4); got != farmland {
		t.Errorf("Block(20, 150, 4) = %s, want farmland", got)
	}
	if got := w.Block(23, 150, 4); got != Water {
		t.Errorf("Block(23, 150, 4) = %s, want water channel", got)
	}
	if got := w.Block(20, 151, 4); got != block.Parse("wheat[age=7]") {
		t.Errorf("Block(20, 151, 4) = %s, want wheat", got)
	}
	if got := w.Block(20, 149, 4); got != Dirt {
		t.Errorf("Block(20, 149, 4) = %s, want dirt below the plot", got)
	}
	if got := w.Block(4, 150, 4); got != Grass {
		t.Errorf("Block(4, 150, 4) = %s, want grass beside the plot", got)
	}
}

func TestGenerateTimeout(t *testing.T) {
	c := flatCity(2, 2, 300)
	g := NewGenerator(world.New(), c, network.NewGround(c, 16), nil, testOptions(), nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := g.Generate(ctx)

	var te *GenerationTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Generate() error = %v, want *GenerationTimeoutError", err)
	}
	if te.Region != "test" {
		t.Errorf("Region = %q, want test", te.Region)
	}
}

// slowSurface delays every write.
type slowSurface struct {
	*world.World
	delay time.Duration
}

func (s slowSurface) SetBlock(x, y, z int, st block.State) {
	time.Sleep(s.delay)
	s.World.SetBlock(x, y, z, st)
}

func TestGenerateTimeoutWhileRunning(t *testing.T) {
	// Two tiles on one worker: the second waits for a pool slot.
	c := flatCity(2, 1, 300)
	opts := testOptions()
	opts.Workers = 1
	opts.Timeout = 50 * time.Millisecond
	g := NewGenerator(slowSurface{World: world.New(), delay: 200 * time.Microsecond}, c, network.NewGround(c, 16), nil, opts, nil)

	start := time.Now()
	res, err := g.Generate(context.Background())
	elapsed := time.Since(start)

	var te *GenerationTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Generate() = %v, %v, want *GenerationTimeoutError", res, err)
	}
	if te.Timeout != opts.Timeout {
		t.Errorf("Timeout = %s, want %s", te.Timeout, opts.Timeout)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Generate() returned after %s, want close to %s", elapsed, opts.Timeout)
	}
}

func TestGenerateCanceled(t *testing.T) {
	c := flatCity(1, 1, 300)
	g := NewGenerator(world.New(), c, network.NewGround(c, 16), nil, testOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	var te *GenerationTimeoutError
	if errors.As(err, &te) {
		t.Errorf("Generate() error = %v, cancellation reported as a timeout", err)
	}
}

func TestStoneChance(t *testing.T) {
	tests := []struct {
		bh, half, base, top int
		want                int
	}{
		{100, 256, 5, 512, 5},
		{256, 256, 5, 512, 5},
		{300, 256, 5, 512, 17},
		{600, 256, 5, 512, 134},
		{260, 256, 20, 512, 20},
	}
	for _, tt := range tests {
		if got := stoneChance(tt.bh, tt.half, tt.base, tt.top); got != tt.want {
			t.Errorf("stoneChance(%d, %d, %d, %d) = %d, want %d", tt.bh, tt.half, tt.base, tt.top, got, tt.want)
		}
	}
}

func TestDeterministic(t *testing.T) {
	c := &city.City{Name: "hill", Heights: [][]float32{{1100, 1200}, {1150, 1300}}}
	opts := testOptions()
	opts.StoneChance = 30
	opts.MaxHeight = 1024

	w1, r1 := generate(t, c, nil, opts)
	w2, _ := generate(t, c, nil, opts)
	for x := 0; x < 32; x++ {
		for z := 0; z < 32; z++ {
			y := r1.Height(x, z)
			if a, b := w1.Block(x, y, z), w2.Block(x, y, z); a != b {
				t.Fatalf("surface at (%d, %d) differs: %s vs %s", x, z, a, b)
			}
		}
	}
}
