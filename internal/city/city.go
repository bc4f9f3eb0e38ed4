// Package city holds the read-only input records a region is built from.
package city

// RegionTiles is the edge length of a region in tiles. A tile is 16x16
// blocks.
const RegionTiles = 64

// TileSize is the edge length of a tile in blocks.
const TileSize = 16

// Vec3 is a position in city units. X and Z are block coordinates within
// the region, Y is a raw elevation that is divided down to blocks.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// City is one region worth of input.
type City struct {
	Name  string `json:"name"`
	TileX int    `json:"tile_x"`
	TileZ int    `json:"tile_z"`
	// Heights holds raw per-tile elevation samples, indexed [z][x].
	Heights    [][]float32   `json:"heights"`
	Lots       []Lot         `json:"lots"`
	Networks   []NetworkTile `json:"networks"`
	Placeables []Placeable   `json:"placeables"`
}

// Origin returns the world block coordinates of the region's (0, 0).
func (c *City) Origin() (x, z int) {
	return c.TileX * RegionTiles * TileSize, c.TileZ * RegionTiles * TileSize
}

// Buildings returns the placeables of kind building.
func (c *City) Buildings() []Placeable {
	var out []Placeable
	for _, p := range c.Placeables {
		if p.Kind == KindBuilding {
			out = append(out, p)
		}
	}
	return out
}

// Wealth is a lot's zone wealth tier.
type Wealth string

const (
	WealthNone Wealth = ""
	WealthLow  Wealth = "$"
	WealthMid  Wealth = "$$"
	WealthHigh Wealth = "$$$"
)

// Zone is a lot's zoning.
type Zone string

const (
	ZoneNone              Zone = ""
	ZoneResidentialLow    Zone = "residential_low"
	ZoneResidentialMedium Zone = "residential_medium"
	ZoneResidentialHigh   Zone = "residential_high"
	ZoneCommercialLow     Zone = "commercial_low"
	ZoneCommercialMedium  Zone = "commercial_medium"
	ZoneCommercialHigh    Zone = "commercial_high"
	ZoneIndustrialLow     Zone = "industrial_low"
	ZoneIndustrialMedium  Zone = "industrial_medium"
	ZoneIndustrialHigh    Zone = "industrial_high"
	ZoneCivic             Zone = "civic"
)

// Industrial reports whether z is one of the industrial zones.
func (z Zone) Industrial() bool {
	switch z {
	case ZoneIndustrialLow, ZoneIndustrialMedium, ZoneIndustrialHigh:
		return true
	}
	return false
}

// OccupantGroup classifies who occupies a lot, e.g. "R$$" for mid wealth
// residents or "IHT" for high-tech industry.
type OccupantGroup string

const (
	OccupantResidentialLow  OccupantGroup = "R$"
	OccupantResidentialMid  OccupantGroup = "R$$"
	OccupantResidentialHigh OccupantGroup = "R$$$"
	OccupantServiceLow      OccupantGroup = "CS$"
	OccupantServiceMid      OccupantGroup = "CS$$"
	OccupantServiceHigh     OccupantGroup = "CS$$$"
	OccupantOfficeMid       OccupantGroup = "CO$$"
	OccupantOfficeHigh      OccupantGroup = "CO$$$"
	OccupantAgriculture     OccupantGroup = "IR"
	OccupantDirtyIndustry   OccupantGroup = "ID"
	OccupantManufacturing   OccupantGroup = "IM"
	OccupantHighTech        OccupantGroup = "IHT"
)

// Lot is a zoned footprint of whole tiles.
type Lot struct {
	MinTileX  int             `json:"min_tile_x"`
	MinTileZ  int             `json:"min_tile_z"`
	SizeX     int             `json:"size_x"`
	SizeZ     int             `json:"size_z"`
	Y         float32         `json:"y"`
	Zone      Zone            `json:"zone"`
	Wealth    Wealth          `json:"wealth"`
	Occupants []OccupantGroup `json:"occupants"`
}

// Tiles calls fn for every tile the lot covers. Negative tiles are skipped.
func (l *Lot) Tiles(fn func(tx, tz int)) {
	for tx := l.MinTileX; tx < l.MinTileX+l.SizeX; tx++ {
		for tz := l.MinTileZ; tz < l.MinTileZ+l.SizeZ; tz++ {
			if tx < 0 || tz < 0 {
				continue
			}
			fn(tx, tz)
		}
	}
}

// HasOccupant reports whether g is among the lot's occupants.
func (l *Lot) HasOccupant(g OccupantGroup) bool {
	for _, o := range l.Occupants {
		if o == g {
			return true
		}
	}
	return false
}

// NetworkKind selects how a network tile is rendered.
type NetworkKind string

const (
	KindStreet NetworkKind = "street"
	KindRoad   NetworkKind = "road"
	KindRail   NetworkKind = "rail"
)

// Direction indexes NetworkTile.Connections.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Opposite returns the direction facing d.
func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// Offset returns the tile delta one step toward d.
func (d Direction) Offset() (dx, dz int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// Directions lists the four directions in Connections order.
var Directions = [4]Direction{North, East, South, West}

// TextureDirt is the wealth texture of unpaved tiles.
const TextureDirt = "dirt"

// NetworkTile is a single 16x16 piece of street, road or rail.
type NetworkTile struct {
	Kind        NetworkKind `json:"kind"`
	Orientation int         `json:"orientation"`
	// Connections holds the raw north, east, south and west flags.
	Connections   [4]uint8 `json:"connections"`
	Min           Vec3     `json:"min"`
	Max           Vec3     `json:"max"`
	Position      Vec3     `json:"position"`
	Texture       int      `json:"texture"`
	WealthTexture string   `json:"wealth_texture"`
}

// Tile returns the tile coordinates of t.
func (t *NetworkTile) Tile() (tx, tz int) {
	return int(t.Min.X) >> 4, int(t.Min.Z) >> 4
}

// Connects reports whether t's own flag toward d marks a connection.
// Flags 0x01 through 0x03 connect; anything else does not.
func (t *NetworkTile) Connects(d Direction) bool {
	c := t.Connections[d]
	return c >= 0x01 && c <= 0x03
}

// ConnectionCount counts how many directions t connects in on its own.
func (t *NetworkTile) ConnectionCount() int {
	n := 0
	for _, d := range Directions {
		if t.Connects(d) {
			n++
		}
	}
	return n
}

// PlaceableKind distinguishes how objects are gated and rotated.
type PlaceableKind string

const (
	KindFlora    PlaceableKind = "flora"
	KindProp     PlaceableKind = "prop"
	KindBuilding PlaceableKind = "building"
)

// FlagVisible is the appearance bit that makes a placeable render.
const FlagVisible = 0x01

// Placeable is a flora, prop or building instance.
type Placeable struct {
	ID          string        `json:"id"`
	Kind        PlaceableKind `json:"kind"`
	Min         Vec3          `json:"min"`
	Max         Vec3          `json:"max"`
	Orientation int           `json:"orientation"`
	Flags       uint8         `json:"flags"`
	// Chance is the appearance percentage of props; nil means always.
	Chance *int `json:"chance,omitempty"`
}

// Visible reports whether the appearance flag is set.
func (p *Placeable) Visible() bool { return p.Flags&FlagVisible != 0 }

// Rotation maps the orientation code to degrees.
func (p *Placeable) Rotation() int {
	switch p.Orientation {
	case 1:
		return 90
	case 2:
		return 0
	case 3:
		return 270
	case 4:
		return 180
	}
	return 0
}
