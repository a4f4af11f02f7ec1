package levelfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/milk9111/tilecanvas/canvas"
)

// ErrInvalidGrid is returned when a line grid ends early or holds a
// non-numeric token.
var ErrInvalidGrid = errors.New("invalid grid file format")

// ReadLegacyGrid reads the whitespace separated "col row" format used by the
// gameplay loader: cols*rows pairs, row-major, one layer, no tileset. On
// damage the cells read so far are returned together with an error wrapping
// ErrInvalidGrid.
func ReadLegacyGrid(r io.Reader, cols, rows int) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func() (int, bool) {
		if !sc.Scan() {
			return 0, false
		}
		v, err := strconv.Atoi(sc.Text())
		return v, err == nil
	}

	grid := make([][]canvas.TileRef, 0, rows)
	done := func(err error) (*Document, error) {
		rec := LayerRecord{Name: "Background", Grid: grid}
		return &Document{Legacy: true, Layers: []LayerRecord{rec}}, err
	}

	for y := 0; y < rows; y++ {
		row := make([]canvas.TileRef, 0, cols)
		for x := 0; x < cols; x++ {
			c, ok := next()
			if !ok {
				grid = appendRow(grid, row)
				return done(fmt.Errorf("cell (%d,%d): %w", x, y, ErrInvalidGrid))
			}
			rw, ok := next()
			if !ok {
				grid = appendRow(grid, row)
				return done(fmt.Errorf("cell (%d,%d): %w", x, y, ErrInvalidGrid))
			}
			row = append(row, canvas.TileRef{Col: c, Row: rw})
		}
		grid = append(grid, row)
	}
	if err := sc.Err(); err != nil {
		return done(fmt.Errorf("read grid: %w", err))
	}
	return done(nil)
}

func appendRow(grid [][]canvas.TileRef, row []canvas.TileRef) [][]canvas.TileRef {
	if len(row) == 0 {
		return grid
	}
	return append(grid, row)
}
