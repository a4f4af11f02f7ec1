package layers

import (
	"fmt"

	"github.com/milk9111/tilecanvas/canvas"
)

// ID is a stable layer identity. Indices shift when layers are inserted,
// removed or reordered; IDs do not.
type ID uint64

// Tileset binds a layer to the image its TileRefs index into.
type Tileset struct {
	Path   string
	TileW  int
	TileH  int
	Cols   int
	Rows   int
	Loaded bool
}

// Contains reports whether t addresses a cell inside the tileset grid.
func (ts Tileset) Contains(t canvas.TileRef) bool {
	return ts.Loaded && t.Col >= 0 && t.Row >= 0 && t.Col < ts.Cols && t.Row < ts.Rows
}

// Layer is one independently addressable plane of tiles.
type Layer struct {
	ID      ID
	Name    string
	Visible bool
	Tileset Tileset
	Store   *canvas.Store
}

func defaultLayerName(i int) string {
	if i == 0 {
		return "Background"
	}
	return fmt.Sprintf("Layer %d", i)
}
