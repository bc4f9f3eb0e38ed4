package block

import "strings"

// Horizontal directions in counter-clockwise order as seen from above:
// a quarter turn moves north to west.
var directions = [4]string{"north", "west", "south", "east"}

func directionIndex(d string) int {
	for i, v := range directions {
		if v == d {
			return i
		}
	}
	return -1
}

// Rotate turns s by quarters*90 degrees around the vertical axis,
// remapping facing, axis, rail shape and the four horizontal side
// properties.
// Negative quarters rotate the other way.
func (s State) Rotate(quarters int) State {
	q := ((quarters % 4) + 4) % 4
	if q == 0 || s.Properties == "" {
		return s
	}

	props := s.Props()
	out := make(map[string]string, len(props))
	for k, v := range props {
		switch {
		case k == "facing" || k == "rotation_direction":
			if i := directionIndex(v); i >= 0 {
				v = directions[(i+q)%4]
			}
			out[k] = v
		case k == "shape":
			out[k] = rotateShape(v, q)
		case k == "axis" && q%2 == 1:
			switch v {
			case "x":
				v = "z"
			case "z":
				v = "x"
			}
			out[k] = v
		case directionIndex(k) >= 0:
			// Side properties move with the block: the value that was on the
			// north side is now on the west side.
			out[directions[(directionIndex(k)+q)%4]] = v
		default:
			out[k] = v
		}
	}
	return State{Name: s.Name, Properties: canonical(out)}
}

// rotateShape turns a rail shape such as "north_south", "ascending_east"
// or "south_west".
func rotateShape(v string, q int) string {
	if rest, ok := strings.CutPrefix(v, "ascending_"); ok {
		if i := directionIndex(rest); i >= 0 {
			return "ascending_" + directions[(i+q)%4]
		}
		return v
	}
	a, b, ok := strings.Cut(v, "_")
	if !ok {
		return v
	}
	i, j := directionIndex(a), directionIndex(b)
	if i < 0 || j < 0 {
		return v
	}
	a, b = directions[(i+q)%4], directions[(j+q)%4]
	// Straight shapes are named north_south and east_west; curves put the
	// north or south component first.
	if a == "east" || a == "west" {
		a, b = b, a
	}
	if a == "south" && b == "north" {
		a, b = b, a
	}
	return a + "_" + b
}
