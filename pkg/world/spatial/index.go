package spatial

// Index2 maps (x, z) coordinates to values.
// The zero value is not usable; create with NewIndex2.
type Index2[V any] struct {
	m map[uint64]V
}

// NewIndex2 creates an empty 2-D index.
func NewIndex2[V any]() *Index2[V] {
	return &Index2[V]{m: make(map[uint64]V)}
}

// Put stores v at (x, z), replacing any previous value.
func (ix *Index2[V]) Put(x, z int, v V) {
	ix.m[key2(x, z)] = v
}

// Get returns the value at (x, z) and whether it was present.
func (ix *Index2[V]) Get(x, z int) (V, bool) {
	v, ok := ix.m[key2(x, z)]
	return v, ok
}

// Has reports whether (x, z) holds a value.
func (ix *Index2[V]) Has(x, z int) bool {
	_, ok := ix.m[key2(x, z)]
	return ok
}

// Delete removes (x, z).
func (ix *Index2[V]) Delete(x, z int) {
	delete(ix.m, key2(x, z))
}

// Len returns the number of stored coordinates.
func (ix *Index2[V]) Len() int {
	return len(ix.m)
}

// Range calls fn for every stored entry in unspecified order.
func (ix *Index2[V]) Range(fn func(x, z int, v V)) {
	for k, v := range ix.m {
		x, z := unkey2(k)
		fn(x, z, v)
	}
}

// Index3 maps (x, y, z) block positions to values. X and Z must fit in
// 26 signed bits and Y in 12 signed bits.
type Index3[V any] struct {
	m map[uint64]V
}

// NewIndex3 creates an empty 3-D index.
func NewIndex3[V any]() *Index3[V] {
	return &Index3[V]{m: make(map[uint64]V)}
}

func (ix *Index3[V]) Put(x, y, z int, v V) {
	ix.m[key3(x, y, z)] = v
}

func (ix *Index3[V]) Get(x, y, z int) (V, bool) {
	v, ok := ix.m[key3(x, y, z)]
	return v, ok
}

func (ix *Index3[V]) Has(x, y, z int) bool {
	_, ok := ix.m[key3(x, y, z)]
	return ok
}

func (ix *Index3[V]) Delete(x, y, z int) {
	delete(ix.m, key3(x, y, z))
}

func (ix *Index3[V]) Len() int {
	return len(ix.m)
}

// Range calls fn for every stored entry in unspecified order.
func (ix *Index3[V]) Range(fn func(x, y, z int, v V)) {
	for k, v := range ix.m {
		x, y, z := unkey3(k)
		fn(x, y, z, v)
	}
}

// Set3 is a set of block positions.
type Set3 struct {
	ix Index3[struct{}]
}

// NewSet3 creates an empty position set.
func NewSet3() *Set3 {
	return &Set3{ix: Index3[struct{}]{m: make(map[uint64]struct{})}}
}

func (s *Set3) Add(x, y, z int) {
	s.ix.Put(x, y, z, struct{}{})
}

func (s *Set3) Contains(x, y, z int) bool {
	return s.ix.Has(x, y, z)
}

func (s *Set3) Len() int {
	return s.ix.Len()
}
