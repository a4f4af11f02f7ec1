// Package history records paint gestures as undoable actions.
package history

import (
	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/layers"
)

// Target is the tile surface actions are applied to.
type Target interface {
	Tile(layer layers.ID, gx, gy int) canvas.TileRef
	SetTile(layer layers.ID, gx, gy int, v canvas.TileRef)
}

// TileChange is the net effect of one gesture on one cell.
type TileChange struct {
	Layer  layers.ID
	X      int
	Y      int
	Before canvas.TileRef
	After  canvas.TileRef
}

// Action is an immutable, non-empty list of cell changes made by a single
// gesture.
type Action struct {
	changes []TileChange
}

// NewAction copies changes into an Action. ok is false for an empty list.
func NewAction(changes []TileChange) (Action, bool) {
	if len(changes) == 0 {
		return Action{}, false
	}
	cp := make([]TileChange, len(changes))
	copy(cp, changes)
	return Action{changes: cp}, true
}

// Len returns the number of changed cells.
func (a Action) Len() int { return len(a.changes) }

// Changes returns a copy of the changes in recording order.
func (a Action) Changes() []TileChange {
	out := make([]TileChange, len(a.changes))
	copy(out, a.changes)
	return out
}

func (a Action) revert(t Target) {
	for i := len(a.changes) - 1; i >= 0; i-- {
		c := a.changes[i]
		t.SetTile(c.Layer, c.X, c.Y, c.Before)
	}
}

func (a Action) apply(t Target) {
	for _, c := range a.changes {
		t.SetTile(c.Layer, c.X, c.Y, c.After)
	}
}
