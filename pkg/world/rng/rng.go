// Package rng provides a small deterministic random source keyed by
// world position, so parallel generation stays reproducible.
package rng

// Source is a 64-bit LCG. It is not safe for concurrent use; create one
// per column or per tile.
type Source struct {
	state int64
}

// New seeds a source from the world seed, a column position and a salt
// that separates independent uses of the same column.
func New(seed int64, x, z int, salt int64) *Source {
	s := seed ^ (int64(x)*341873128712 + int64(z)*132897987541 + salt)
	r := &Source{state: s}
	r.next()
	return r
}

func (r *Source) next() int64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (r *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with non-positive n")
	}
	v := int(uint64(r.next())>>33) % n
	return v
}

// Pick returns a random element of options.
func Pick[T any](r *Source, options []T) T {
	return options[r.Intn(len(options))]
}
