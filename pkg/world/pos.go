package world

// Pos is an integer block position.
type Pos struct {
	X, Y, Z int
}

// Add returns p + o.
func (p Pos) Add(o Pos) Pos {
	return Pos{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Chunk returns the chunk column containing p.
func (p Pos) Chunk() ChunkPos {
	return ChunkPos{X: p.X >> 4, Z: p.Z >> 4}
}
