// Package levelfile reads and writes tile map documents.
//
// The current format is an object with a "layers" array; each layer record
// holds a name, a tileset path, the tile size and a dense row-major grid of
// [col,row] pairs. Files without "layers" are read as the older single-layer
// format with tileset, tileW, tileH and grid at the top level.
package levelfile

import (
	"fmt"
	"time"

	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/layers"
	"github.com/milk9111/tilecanvas/tileset"
)

// Document is a decoded map independent of any editor state.
type Document struct {
	Layers []LayerRecord
	// Legacy is set when the document was read from the single-layer schema.
	Legacy bool
}

// LayerRecord is one layer as stored on disk. Grid is row-major:
// Grid[y][x] is the tile at (x, y).
type LayerRecord struct {
	Name    string
	Tileset string
	TileW   int
	TileH   int
	Grid    [][]canvas.TileRef
}

// Window is the exported extent in cells, anchored at the origin.
type Window struct {
	Cols int
	Rows int
}

// FromStack snapshots the window of every layer. Cells outside the window are
// kept in memory by the stack but are not part of the document.
func FromStack(s *layers.Stack, win Window) *Document {
	doc := &Document{Layers: make([]LayerRecord, 0, s.Len())}
	for i, l := range s.Layers() {
		eff := s.EffectiveTileset(i)
		rec := LayerRecord{
			Name:    l.Name,
			Tileset: l.Tileset.Path,
			TileW:   l.Tileset.TileW,
			TileH:   l.Tileset.TileH,
			Grid:    make([][]canvas.TileRef, win.Rows),
		}
		if rec.Tileset == "" {
			rec.Tileset = eff.Path
		}
		if rec.TileW <= 0 || rec.TileH <= 0 {
			rec.TileW, rec.TileH = eff.TileW, eff.TileH
		}
		for y := 0; y < win.Rows; y++ {
			row := make([]canvas.TileRef, win.Cols)
			for x := 0; x < win.Cols; x++ {
				row[x] = l.Store.Get(x, y)
			}
			rec.Grid[y] = row
		}
		doc.Layers = append(doc.Layers, rec)
	}
	return doc
}

// BuildOptions control how a document becomes a layer stack.
type BuildOptions struct {
	ChunkSize int
	// TileW and TileH are used for records that do not specify a tile size.
	TileW int
	TileH int
}

// BuildStack creates a layer stack from doc. Tilesets are bound through
// loader; a tileset that fails to load leaves its layer unbound (it then
// draws with a sibling's tileset) and the failure is returned in warnings.
// A nil loader binds nothing.
func BuildStack(doc *Document, loader tileset.Loader, opts BuildOptions) (*layers.Stack, []error) {
	s := layers.NewStack(opts.ChunkSize)
	var warnings []error
	for i, rec := range doc.Layers {
		tw, th := rec.TileW, rec.TileH
		if tw <= 0 {
			tw = opts.TileW
		}
		if th <= 0 {
			th = opts.TileH
		}
		ts := layers.Tileset{Path: rec.Tileset, TileW: tw, TileH: th}
		if rec.Tileset != "" && loader != nil {
			bound, err := tileset.Bind(loader, rec.Tileset, tw, th)
			if err != nil {
				warnings = append(warnings, fmt.Errorf("layer %d: %w", i, err))
			}
			ts = bound
		}

		var l *layers.Layer
		if i == 0 {
			l = s.Layer(0)
			if rec.Name != "" {
				l.Name = rec.Name
			}
			l.Tileset = ts
		} else {
			l = s.Append(rec.Name, ts)
		}
		for y, row := range rec.Grid {
			for x, t := range row {
				if !t.IsEmpty() {
					l.Store.Set(x, y, t)
				}
			}
		}
	}
	return s, warnings
}

// TimestampName returns the file name used for saves without a chosen path.
func TimestampName(t time.Time) string {
	return t.Format("map_20060102_150405.json")
}
