package layers

import (
	"errors"
	"fmt"

	"github.com/milk9111/tilecanvas/canvas"
)

var (
	// ErrLastLayer is returned when removing the only remaining layer.
	ErrLastLayer = errors.New("cannot delete the only layer")
	// ErrNoLayer is returned for an out of range layer index.
	ErrNoLayer = errors.New("no such layer")
)

// Stack is the ordered set of layers of one document, bottom first. It is
// never empty.
type Stack struct {
	layers    []*Layer
	active    int
	chunkSize int
	nextID    ID
}

// NewStack creates a stack holding a single empty, visible layer.
func NewStack(chunkSize int) *Stack {
	if chunkSize <= 0 {
		chunkSize = canvas.DefaultChunkSize
	}
	s := &Stack{chunkSize: chunkSize}
	s.layers = []*Layer{s.newLayer(defaultLayerName(0), Tileset{})}
	return s
}

func (s *Stack) newLayer(name string, ts Tileset) *Layer {
	s.nextID++
	return &Layer{
		ID:      s.nextID,
		Name:    name,
		Visible: true,
		Tileset: ts,
		Store:   canvas.NewStore(s.chunkSize),
	}
}

// ChunkSize returns the chunk side used by every layer's store.
func (s *Stack) ChunkSize() int { return s.chunkSize }

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Layer returns the layer at index i, or nil.
func (s *Stack) Layer(i int) *Layer {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// Layers returns the layers bottom first. The slice is a copy.
func (s *Stack) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Names returns the layer names, bottom first.
func (s *Stack) Names() []string {
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.Name
	}
	return names
}

// Active returns the index of the active layer.
func (s *Stack) Active() int { return s.active }

// ActiveLayer returns the active layer.
func (s *Stack) ActiveLayer() *Layer { return s.layers[s.active] }

// Index returns the current index of the layer with the given ID, or -1.
func (s *Stack) Index(id ID) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// ByID returns the layer with the given ID, or nil if it was removed.
func (s *Stack) ByID(id ID) *Layer {
	if i := s.Index(id); i >= 0 {
		return s.layers[i]
	}
	return nil
}

// Append adds a layer on top without changing the active layer. It is used
// when rebuilding a stack from a document.
func (s *Stack) Append(name string, ts Tileset) *Layer {
	if name == "" {
		name = defaultLayerName(len(s.layers))
	}
	l := s.newLayer(name, ts)
	s.layers = append(s.layers, l)
	return l
}

// InsertAfter creates an empty layer directly above index i and makes it
// active. The new layer takes the tileset of layer i, or any loaded tileset
// when layer i has none, so it can be painted right away.
func (s *Stack) InsertAfter(i int) (int, error) {
	if i < 0 || i >= len(s.layers) {
		return -1, fmt.Errorf("insert after %d: %w", i, ErrNoLayer)
	}
	l := s.newLayer(s.freshName(), s.EffectiveTileset(i))
	at := i + 1
	s.layers = append(s.layers, nil)
	copy(s.layers[at+1:], s.layers[at:])
	s.layers[at] = l
	s.active = at
	return at, nil
}

// freshName returns a default name no current layer uses. Numbering follows
// the ID counter, so a name freed by a delete is not handed out again.
func (s *Stack) freshName() string {
	for n := int(s.nextID); ; n++ {
		name := defaultLayerName(n)
		if !s.hasName(name) {
			return name
		}
	}
}

func (s *Stack) hasName(name string) bool {
	for _, l := range s.layers {
		if l.Name == name {
			return true
		}
	}
	return false
}

// Remove deletes the layer at index i together with its tiles.
func (s *Stack) Remove(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("remove %d: %w", i, ErrNoLayer)
	}
	if len(s.layers) == 1 {
		return ErrLastLayer
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	if s.active > i || s.active >= len(s.layers) {
		s.active--
	}
	if s.active < 0 {
		s.active = 0
	}
	return nil
}

// SetActive selects the layer that new gestures paint into.
func (s *Stack) SetActive(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("select %d: %w", i, ErrNoLayer)
	}
	s.active = i
	return nil
}

// ToggleVisibility flips the visibility of layer i and returns the new state.
func (s *Stack) ToggleVisibility(i int) (bool, error) {
	l := s.Layer(i)
	if l == nil {
		return false, fmt.Errorf("toggle %d: %w", i, ErrNoLayer)
	}
	l.Visible = !l.Visible
	return l.Visible, nil
}

// Rename sets the display name of layer i.
func (s *Stack) Rename(i int, name string) error {
	l := s.Layer(i)
	if l == nil {
		return fmt.Errorf("rename %d: %w", i, ErrNoLayer)
	}
	l.Name = name
	return nil
}

// MoveUp swaps layer i with the one above it. The active selection follows
// the layer it pointed at.
func (s *Stack) MoveUp(i int) error {
	if i < 0 || i >= len(s.layers)-1 {
		return fmt.Errorf("move up %d: %w", i, ErrNoLayer)
	}
	s.swap(i, i+1)
	return nil
}

// MoveDown swaps layer i with the one below it.
func (s *Stack) MoveDown(i int) error {
	if i <= 0 || i >= len(s.layers) {
		return fmt.Errorf("move down %d: %w", i, ErrNoLayer)
	}
	s.swap(i, i-1)
	return nil
}

func (s *Stack) swap(a, b int) {
	s.layers[a], s.layers[b] = s.layers[b], s.layers[a]
	switch s.active {
	case a:
		s.active = b
	case b:
		s.active = a
	}
}

// EffectiveTileset returns the tileset used to draw layer i: its own when
// loaded, otherwise the first loaded tileset among the other layers. The
// fallback is resolved on every call and never copied into the layer.
func (s *Stack) EffectiveTileset(i int) Tileset {
	l := s.Layer(i)
	if l != nil && l.Tileset.Loaded {
		return l.Tileset
	}
	for _, other := range s.layers {
		if other.Tileset.Loaded {
			return other.Tileset
		}
	}
	if l != nil {
		return l.Tileset
	}
	return Tileset{}
}

// Tile reads a cell of the layer with the given ID. Removed layers read as
// empty.
func (s *Stack) Tile(id ID, gx, gy int) canvas.TileRef {
	l := s.ByID(id)
	if l == nil {
		return canvas.Empty
	}
	return l.Store.Get(gx, gy)
}

// SetTile writes a cell of the layer with the given ID. Writes to removed
// layers are dropped.
func (s *Stack) SetTile(id ID, gx, gy int, v canvas.TileRef) {
	l := s.ByID(id)
	if l == nil {
		return
	}
	l.Store.Set(gx, gy, v)
}

// Visit calls fn for each non-empty cell of every visible layer within the
// inclusive rectangle, bottom layer first. It is the read-only view handed to
// renderers.
func (s *Stack) Visit(x0, y0, x1, y1 int, fn func(index int, l *Layer, gx, gy int, t canvas.TileRef)) {
	for i, l := range s.layers {
		if !l.Visible {
			continue
		}
		l.Store.EachInRect(x0, y0, x1, y1, func(gx, gy int, t canvas.TileRef) {
			fn(i, l, gx, gy, t)
		})
	}
}

// Bounds returns the inclusive bounding box of the painted cells of every
// visible layer. ok is false when no visible layer has any.
func (s *Stack) Bounds() (x0, y0, x1, y1 int, ok bool) {
	for _, l := range s.layers {
		if !l.Visible {
			continue
		}
		lx0, ly0, lx1, ly1, lok := l.Store.Bounds()
		if !lok {
			continue
		}
		if !ok {
			x0, y0, x1, y1, ok = lx0, ly0, lx1, ly1, true
			continue
		}
		x0 = min(x0, lx0)
		y0 = min(y0, ly0)
		x1 = max(x1, lx1)
		y1 = max(y1, ly1)
	}
	return x0, y0, x1, y1, ok
}
