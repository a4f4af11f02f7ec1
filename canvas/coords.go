package canvas

// DefaultChunkSize is the side length of a chunk in cells.
const DefaultChunkSize = 64

// ChunkCoord identifies a square block of the canvas.
type ChunkCoord struct {
	X int
	Y int
}

// floorDiv divides rounding toward negative infinity. Go's / truncates, which
// would put -1 and 0 in the same chunk.
func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

// ToChunk returns the chunk that owns the global cell (gx, gy).
func ToChunk(gx, gy, n int) ChunkCoord {
	return ChunkCoord{X: floorDiv(gx, n), Y: floorDiv(gy, n)}
}

// ToLocal returns the position of (gx, gy) inside its chunk. Both values are
// always in [0, n).
//
// Coordinates are plain ints; near the ends of the range c*n may wrap, but the
// subtraction wraps back by the same amount so the result stays exact.
func ToLocal(gx, gy, n int) (lx, ly int) {
	c := ToChunk(gx, gy, n)
	return gx - c.X*n, gy - c.Y*n
}

// FromChunk is the inverse of ToChunk/ToLocal.
func FromChunk(c ChunkCoord, lx, ly, n int) (gx, gy int) {
	return c.X*n + lx, c.Y*n + ly
}
