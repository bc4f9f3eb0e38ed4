package block

// Entity is a block-entity payload: an NBT compound decoded into Go
// values (string, int8..int64, float32/64, []byte, []int32, []int64,
// []any, map[string]any).
type Entity map[string]any

// Clone returns a shallow copy of e.
func (e Entity) Clone() Entity {
	c := make(Entity, len(e)+3)
	for k, v := range e {
		c[k] = v
	}
	return c
}

// WithPosition returns a copy of e carrying x, y, z.
func (e Entity) WithPosition(x, y, z int) Entity {
	c := e.Clone()
	c["x"] = int32(x)
	c["y"] = int32(y)
	c["z"] = int32(z)
	return c
}

// Position returns the x, y, z fields of e.
func (e Entity) Position() (x, y, z int, ok bool) {
	xv, ok1 := e["x"].(int32)
	yv, ok2 := e["y"].(int32)
	zv, ok3 := e["z"].(int32)
	return int(xv), int(yv), int(zv), ok1 && ok2 && ok3
}

// ID returns the entity's "id" field.
func (e Entity) ID() string {
	s, _ := e["id"].(string)
	return s
}
