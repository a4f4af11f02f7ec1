package levelfile

import (
	"strconv"

	"github.com/milk9111/tilecanvas/canvas"
)

// scanGrid reads a grid value by counting bracket depth: depth 1 is the list
// of rows, depth 2 a row, depth 3 a [col,row] pair. Number tokens end at ',',
// whitespace or ']'.
//
// Damage is contained to the cell it occurs in. A token that is not a number
// reads as 0, a pair missing its row reads as row 0, and a bare number where
// a pair belongs becomes an empty cell so the following cells keep their
// columns. Input that ends early keeps every cell read so far.
func scanGrid(src []byte) [][]canvas.TileRef {
	var (
		rows    [][]canvas.TileRef
		row     []canvas.TileRef
		pair    []int
		tok     []byte
		depth   int
		started bool
	)

	flush := func() {
		if len(tok) == 0 {
			return
		}
		v, err := strconv.Atoi(string(tok))
		if err != nil {
			v = 0
		}
		switch depth {
		case 2:
			row = append(row, canvas.Empty)
		case 3:
			pair = append(pair, v)
		}
		tok = tok[:0]
	}

scan:
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '[':
			flush()
			depth++
			started = true
			switch depth {
			case 2:
				row = nil
			case 3:
				pair = pair[:0]
			}
		case ']':
			flush()
			switch depth {
			case 2:
				rows = append(rows, row)
				row = nil
			case 3:
				row = append(row, pairRef(pair))
			}
			depth--
			if depth <= 0 {
				depth = 0
				break scan
			}
		case '{', '}':
			// grid values never contain objects; treat as the end of input
			break scan
		case ',', ' ', '\t', '\n', '\r':
			flush()
		default:
			if started {
				tok = append(tok, c)
			}
		}
	}

	flush()
	if depth >= 3 && len(pair) > 0 {
		row = append(row, pairRef(pair))
	}
	if depth >= 2 && len(row) > 0 {
		rows = append(rows, row)
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func pairRef(p []int) canvas.TileRef {
	switch len(p) {
	case 0:
		return canvas.Empty
	case 1:
		return canvas.TileRef{Col: p[0]}
	default:
		return canvas.TileRef{Col: p[0], Row: p[1]}
	}
}
