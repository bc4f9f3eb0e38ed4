// Package spatial provides dense maps keyed by integer block and tile
// coordinates.
package spatial

// Coordinates are packed into a single uint64 so lookups hash one word
// and never allocate. The 3-D layout is the network block position
// layout: 26 bits X, 12 bits Y, 26 bits Z.

const (
	bits26 = 1<<26 - 1
	bits12 = 1<<12 - 1
)

func key2(x, z int) uint64 {
	return uint64(uint32(int32(x)))<<32 | uint64(uint32(int32(z)))
}

func unkey2(k uint64) (x, z int) {
	return int(int32(uint32(k >> 32))), int(int32(uint32(k)))
}

func key3(x, y, z int) uint64 {
	return (uint64(x)&bits26)<<38 | (uint64(y)&bits12)<<26 | uint64(z)&bits26
}

func unkey3(k uint64) (x, y, z int) {
	x = int(k >> 38)
	y = int(k >> 26 & bits12)
	z = int(k & bits26)
	// Sign-extend.
	if x >= 1<<25 {
		x -= 1 << 26
	}
	if y >= 1<<11 {
		y -= 1 << 12
	}
	if z >= 1<<25 {
		z -= 1 << 26
	}
	return x, y, z
}
