package canvas

import "fmt"

// TileRef indexes a cell of a tileset image by column and row.
type TileRef struct {
	Col int
	Row int
}

// Empty is the sentinel for an unoccupied cell. It is never stored.
var Empty = TileRef{}

// IsEmpty reports whether t is the empty sentinel.
func (t TileRef) IsEmpty() bool {
	return t == Empty
}

func (t TileRef) String() string {
	return fmt.Sprintf("[%d,%d]", t.Col, t.Row)
}
