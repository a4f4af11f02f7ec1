package canvas

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoordinateMapping(t *testing.T) {
	cases := []struct {
		name   string
		gx     int
		wantCX int
		wantLX int
	}{
		{"origin", 0, 0, 0},
		{"last_in_first_chunk", 63, 0, 63},
		{"first_in_second_chunk", 64, 1, 0},
		{"minus_one", -1, -1, 63},
		{"minus_chunk", -64, -1, 0},
		{"minus_chunk_minus_one", -65, -2, 63},
		{"min_int", math.MinInt, math.MinInt / 64, 0},
		{"max_int", math.MaxInt, math.MaxInt / 64, 63},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cc := ToChunk(c.gx, c.gx, 64)
			lx, ly := ToLocal(c.gx, c.gx, 64)
			if cc.X != c.wantCX || cc.Y != c.wantCX {
				t.Fatalf("ToChunk(%d) = %v, want %d", c.gx, cc, c.wantCX)
			}
			if lx != c.wantLX || ly != c.wantLX {
				t.Fatalf("ToLocal(%d) = (%d,%d), want %d", c.gx, lx, ly, c.wantLX)
			}
			gx, gy := FromChunk(cc, lx, ly, 64)
			if gx != c.gx || gy != c.gx {
				t.Fatalf("FromChunk = (%d,%d), want %d", gx, gy, c.gx)
			}
		})
	}
}

func TestCoordinateMappingOddChunkSize(t *testing.T) {
	for _, n := range []int{1, 3, 7, 64, 100} {
		for gx := -3 * n; gx <= 3*n; gx++ {
			lx, _ := ToLocal(gx, 0, n)
			if lx < 0 || lx >= n {
				t.Fatalf("n=%d gx=%d: local %d out of range", n, gx, lx)
			}
			back, _ := FromChunk(ToChunk(gx, 0, n), lx, 0, n)
			if back != gx {
				t.Fatalf("n=%d gx=%d: round trip gave %d", n, gx, back)
			}
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(64)
	coords := [][2]int{
		{0, 0}, {5, 5}, {-1, -1}, {-64, 63}, {1000, -1000},
		{math.MinInt, math.MaxInt}, {math.MaxInt, math.MinInt},
	}
	for i, p := range coords {
		v := TileRef{Col: i + 1, Row: i}
		s.Set(p[0], p[1], v)
		if got := s.Get(p[0], p[1]); got != v {
			t.Fatalf("Get(%d,%d) = %v, want %v", p[0], p[1], got, v)
		}
	}
	if s.CellCount() != len(coords) {
		t.Fatalf("expected %d cells, got %d", len(coords), s.CellCount())
	}
}

func TestStoreGarbageCollection(t *testing.T) {
	s := NewStore(64)
	s.Set(5, 5, TileRef{Col: 2, Row: 3})
	if s.ChunkCount() != 1 {
		t.Fatalf("expected 1 chunk, got %d", s.ChunkCount())
	}
	s.Set(5, 5, Empty)
	if s.ChunkCount() != 0 {
		t.Fatalf("expected 0 chunks after clear, got %d", s.ChunkCount())
	}

	t.Run("partial_clear_keeps_chunk", func(t *testing.T) {
		s := NewStore(64)
		s.Set(1, 1, TileRef{Col: 1})
		s.Set(2, 2, TileRef{Col: 1})
		s.Set(1, 1, Empty)
		if s.ChunkCount() != 1 {
			t.Fatalf("expected chunk to survive, got %d", s.ChunkCount())
		}
		s.Set(2, 2, Empty)
		if s.ChunkCount() != 0 {
			t.Fatalf("expected chunk freed, got %d", s.ChunkCount())
		}
	})

	t.Run("overwrite_does_not_double_count", func(t *testing.T) {
		s := NewStore(64)
		s.Set(1, 1, TileRef{Col: 1})
		s.Set(1, 1, TileRef{Col: 2})
		s.Set(1, 1, Empty)
		if s.ChunkCount() != 0 {
			t.Fatalf("expected chunk freed, got %d", s.ChunkCount())
		}
	})

	t.Run("empty_write_to_missing_chunk_is_noop", func(t *testing.T) {
		s := NewStore(64)
		s.Set(-500, 500, Empty)
		if s.ChunkCount() != 0 {
			t.Fatalf("expected no allocation, got %d", s.ChunkCount())
		}
	})

	t.Run("read_does_not_allocate", func(t *testing.T) {
		s := NewStore(64)
		_ = s.Get(12345, -12345)
		if s.ChunkCount() != 0 {
			t.Fatalf("expected no allocation, got %d", s.ChunkCount())
		}
	})
}

func TestStoreResidentChunksMatchOccupied(t *testing.T) {
	s := NewStore(8)
	for i := -20; i < 20; i++ {
		s.Set(i, i*3, TileRef{Col: 1, Row: 1})
	}
	want := map[ChunkCoord]bool{}
	s.Each(func(gx, gy int, _ TileRef) {
		want[ToChunk(gx, gy, 8)] = true
	})
	if s.ChunkCount() != len(want) {
		t.Fatalf("resident %d, occupied %d", s.ChunkCount(), len(want))
	}
	for i := -20; i < 20; i += 2 {
		s.Set(i, i*3, Empty)
	}
	want = map[ChunkCoord]bool{}
	s.Each(func(gx, gy int, _ TileRef) {
		want[ToChunk(gx, gy, 8)] = true
	})
	if s.ChunkCount() != len(want) {
		t.Fatalf("after clears: resident %d, occupied %d", s.ChunkCount(), len(want))
	}
}

func TestStoreEachInRect(t *testing.T) {
	s := NewStore(4)
	s.Set(-5, -5, TileRef{Col: 1})
	s.Set(0, 0, TileRef{Col: 2})
	s.Set(3, 1, TileRef{Col: 3})
	s.Set(9, 9, TileRef{Col: 4})

	type cell struct {
		X, Y int
		T    TileRef
	}
	var got []cell
	s.EachInRect(-5, -5, 3, 3, func(gx, gy int, t TileRef) {
		got = append(got, cell{gx, gy, t})
	})
	want := []cell{
		{-5, -5, TileRef{Col: 1}},
		{0, 0, TileRef{Col: 2}},
		{3, 1, TileRef{Col: 3}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EachInRect mismatch (-want+got):\n%v", diff)
	}

	got = nil
	s.EachInRect(math.MinInt, math.MinInt, math.MaxInt, math.MaxInt, func(gx, gy int, t TileRef) {
		got = append(got, cell{gx, gy, t})
	})
	if len(got) != 4 {
		t.Fatalf("full-range rect: expected 4 cells, got %d", len(got))
	}
}

func TestStoreBounds(t *testing.T) {
	s := NewStore(16)
	if _, _, _, _, ok := s.Bounds(); ok {
		t.Fatalf("empty store should have no bounds")
	}
	s.Set(-3, 7, TileRef{Col: 1})
	s.Set(40, -2, TileRef{Col: 1})
	x0, y0, x1, y1, ok := s.Bounds()
	if !ok || x0 != -3 || y0 != -2 || x1 != 40 || y1 != 7 {
		t.Fatalf("Bounds = (%d,%d,%d,%d,%v)", x0, y0, x1, y1, ok)
	}
}
