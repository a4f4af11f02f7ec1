package history

// DefaultMaxUndo bounds the undo stack when no size is configured.
const DefaultMaxUndo = 100

// History holds the undo and redo stacks. There is a single timeline: pushing
// a new action discards everything that could have been redone.
type History struct {
	undo []Action
	redo []Action
	max  int
}

// New creates a history keeping at most size undo entries.
func New(size int) *History {
	if size <= 0 {
		size = DefaultMaxUndo
	}
	return &History{max: size}
}

// Push records a committed action. Empty actions are ignored.
func (h *History) Push(a Action) bool {
	if a.Len() == 0 {
		return false
	}
	if len(h.undo) >= h.max {
		// drop oldest
		h.undo = h.undo[1:]
	}
	h.undo = append(h.undo, a)
	h.redo = nil
	return true
}

// Undo reverts the most recent action on t. It returns false when there is
// nothing to undo.
func (h *History) Undo(t Target) (Action, bool) {
	n := len(h.undo)
	if n == 0 {
		return Action{}, false
	}
	a := h.undo[n-1]
	h.undo = h.undo[:n-1]
	a.revert(t)
	h.redo = append(h.redo, a)
	return a, true
}

// Redo re-applies the most recently undone action on t. It returns false when
// there is nothing to redo.
func (h *History) Redo(t Target) (Action, bool) {
	n := len(h.redo)
	if n == 0 {
		return Action{}, false
	}
	a := h.redo[n-1]
	h.redo = h.redo[:n-1]
	a.apply(t)
	h.undo = append(h.undo, a)
	return a, true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) { return len(h.undo), len(h.redo) }

// Max returns the undo capacity.
func (h *History) Max() int { return h.max }

// Reset empties both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
