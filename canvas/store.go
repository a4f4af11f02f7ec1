package canvas

import "sort"

// chunk is a dense n*n block of cells. used counts the non-empty ones so a
// clear can tell in O(1) whether the chunk should be freed.
type chunk struct {
	cells []TileRef
	used  int
}

// Store is a sparse, unbounded plane of tiles. Memory grows with the number of
// chunks holding at least one non-empty cell, never with canvas extent.
type Store struct {
	size   int
	chunks map[ChunkCoord]*chunk
}

// NewStore creates an empty store with chunks of side n. A non-positive n
// falls back to DefaultChunkSize.
func NewStore(n int) *Store {
	if n <= 0 {
		n = DefaultChunkSize
	}
	return &Store{size: n, chunks: make(map[ChunkCoord]*chunk)}
}

// ChunkSize returns the chunk side length.
func (s *Store) ChunkSize() int {
	return s.size
}

// Get returns the tile at (gx, gy). Reads never allocate.
func (s *Store) Get(gx, gy int) TileRef {
	c, ok := s.chunks[ToChunk(gx, gy, s.size)]
	if !ok {
		return Empty
	}
	lx, ly := ToLocal(gx, gy, s.size)
	return c.cells[ly*s.size+lx]
}

// Set writes v at (gx, gy). Writing Empty into the last occupied cell of a
// chunk releases the chunk.
func (s *Store) Set(gx, gy int, v TileRef) {
	key := ToChunk(gx, gy, s.size)
	lx, ly := ToLocal(gx, gy, s.size)
	idx := ly*s.size + lx

	c, ok := s.chunks[key]
	if v.IsEmpty() {
		if !ok {
			return
		}
		if !c.cells[idx].IsEmpty() {
			c.cells[idx] = Empty
			c.used--
		}
		if c.used == 0 {
			delete(s.chunks, key)
		}
		return
	}

	if !ok {
		c = &chunk{cells: make([]TileRef, s.size*s.size)}
		s.chunks[key] = c
	}
	if c.cells[idx].IsEmpty() {
		c.used++
	}
	c.cells[idx] = v
}

// ChunkCount returns the number of resident chunks.
func (s *Store) ChunkCount() int {
	return len(s.chunks)
}

// CellCount returns the number of non-empty cells.
func (s *Store) CellCount() int {
	n := 0
	for _, c := range s.chunks {
		n += c.used
	}
	return n
}

// Clear drops every chunk.
func (s *Store) Clear() {
	s.chunks = make(map[ChunkCoord]*chunk)
}

// Each calls fn for every non-empty cell. Chunks are visited in row-major
// chunk order so output is deterministic.
func (s *Store) Each(fn func(gx, gy int, t TileRef)) {
	for _, key := range s.sortedKeys() {
		s.eachInChunk(key, fn)
	}
}

// EachInRect calls fn for every non-empty cell with x0 <= gx <= x1 and
// y0 <= gy <= y1. Only chunks overlapping the rectangle are touched.
func (s *Store) EachInRect(x0, y0, x1, y1 int, fn func(gx, gy int, t TileRef)) {
	if x1 < x0 || y1 < y0 {
		return
	}
	lo := ToChunk(x0, y0, s.size)
	hi := ToChunk(x1, y1, s.size)
	w, h := hi.X-lo.X+1, hi.Y-lo.Y+1
	if w <= 0 || h <= 0 || w > len(s.chunks) || h > len(s.chunks) || w*h > len(s.chunks) {
		// Rectangle covers more chunk slots than exist; walk the map instead.
		for _, key := range s.sortedKeys() {
			if key.X < lo.X || key.X > hi.X || key.Y < lo.Y || key.Y > hi.Y {
				continue
			}
			s.eachInChunkClipped(key, x0, y0, x1, y1, fn)
		}
		return
	}
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			s.eachInChunkClipped(ChunkCoord{X: cx, Y: cy}, x0, y0, x1, y1, fn)
		}
	}
}

// Bounds returns the inclusive bounding box of all non-empty cells. ok is
// false when the store is empty.
func (s *Store) Bounds() (x0, y0, x1, y1 int, ok bool) {
	s.Each(func(gx, gy int, _ TileRef) {
		if !ok {
			x0, y0, x1, y1, ok = gx, gy, gx, gy, true
			return
		}
		x0 = min(x0, gx)
		y0 = min(y0, gy)
		x1 = max(x1, gx)
		y1 = max(y1, gy)
	})
	return x0, y0, x1, y1, ok
}

func (s *Store) eachInChunk(key ChunkCoord, fn func(gx, gy int, t TileRef)) {
	c, ok := s.chunks[key]
	if !ok {
		return
	}
	for i, t := range c.cells {
		if t.IsEmpty() {
			continue
		}
		gx, gy := FromChunk(key, i%s.size, i/s.size, s.size)
		fn(gx, gy, t)
	}
}

func (s *Store) eachInChunkClipped(key ChunkCoord, x0, y0, x1, y1 int, fn func(gx, gy int, t TileRef)) {
	s.eachInChunk(key, func(gx, gy int, t TileRef) {
		if gx < x0 || gx > x1 || gy < y0 || gy > y1 {
			return
		}
		fn(gx, gy, t)
	})
}

func (s *Store) sortedKeys() []ChunkCoord {
	keys := make([]ChunkCoord, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Y != keys[j].Y {
			return keys[i].Y < keys[j].Y
		}
		return keys[i].X < keys[j].X
	})
	return keys
}
