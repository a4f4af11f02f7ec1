package history

import (
	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/layers"
)

// State is the recorder's gesture state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Recording:
		return "Recording"
	default:
		return "Unknown"
	}
}

type cellKey struct {
	x, y int
}

// Recorder turns the individual cell writes of one gesture into a single
// Action. Each cell keeps the value it had before the gesture touched it and
// the last value written to it.
type Recorder struct {
	state   State
	layer   layers.ID
	index   map[cellKey]int
	changes []TileChange
}

// NewRecorder returns an idle recorder.
func NewRecorder() *Recorder {
	return &Recorder{index: make(map[cellKey]int)}
}

// State returns Idle or Recording.
func (r *Recorder) State() State { return r.state }

// Layer returns the layer the current gesture is pinned to.
func (r *Recorder) Layer() (layers.ID, bool) {
	return r.layer, r.state == Recording
}

// Pending returns the number of distinct cells touched so far.
func (r *Recorder) Pending() int { return len(r.changes) }

// Paint writes v at (gx, gy) and records it. The first paint of a gesture
// pins it to layer; later paints ignore the argument so switching the active
// layer mid-stroke does not retarget the stroke.
func (r *Recorder) Paint(t Target, layer layers.ID, gx, gy int, v canvas.TileRef) {
	if r.state == Idle {
		r.state = Recording
		r.layer = layer
	}
	key := cellKey{gx, gy}
	if i, ok := r.index[key]; ok {
		r.changes[i].After = v
	} else {
		r.index[key] = len(r.changes)
		r.changes = append(r.changes, TileChange{
			Layer:  r.layer,
			X:      gx,
			Y:      gy,
			Before: t.Tile(r.layer, gx, gy),
			After:  v,
		})
	}
	t.SetTile(r.layer, gx, gy, v)
}

// End finishes the gesture and returns to Idle. ok is false when the gesture
// touched nothing; such gestures leave no trace.
func (r *Recorder) End() (Action, bool) {
	a, ok := NewAction(r.changes)
	r.state = Idle
	r.layer = 0
	r.changes = nil
	clear(r.index)
	return a, ok
}
