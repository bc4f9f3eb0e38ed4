package region

import "fmt"

// PlacementBelowBoundsError reports a placeable whose footing probe ran
// out of steps without finding a solid block.
type PlacementBelowBoundsError struct {
	ID      string
	X, Y, Z int
	Steps   int
}

func (e *PlacementBelowBoundsError) Error() string {
	return fmt.Sprintf("place %s: no footing within %d blocks below (%d, %d, %d)", e.ID, e.Steps, e.X, e.Y, e.Z)
}
