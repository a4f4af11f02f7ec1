// Package editor holds the state of one editing session and the commands a
// shell can issue against it. A Session is not safe for concurrent use; the
// shell drives it from its update loop.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/config"
	"github.com/milk9111/tilecanvas/history"
	"github.com/milk9111/tilecanvas/layers"
	"github.com/milk9111/tilecanvas/levelfile"
	"github.com/milk9111/tilecanvas/tileset"
)

// Session owns the layer stack, the undo history and the in-progress gesture.
type Session struct {
	cfg    config.Config
	loader tileset.Loader

	stack    *layers.Stack
	hist     *history.History
	rec      *history.Recorder
	selected canvas.TileRef
	path     string
	dirty    bool
	// interrupted is set when a command finalized a gesture while the
	// pointer was still down. Paints are dropped until the release.
	interrupted bool

	// Notify receives every user-facing message. It may be nil.
	Notify func(msg string)
	// Now is used for generated file names.
	Now func() time.Time
}

// New creates a session with a single empty layer bound to the configured
// default tileset. A default tileset that fails to load is reported as a
// notice; the session is usable without one.
func New(cfg config.Config, loader tileset.Loader) *Session {
	cfg.Normalize()
	s := &Session{
		cfg:    cfg,
		loader: loader,
		stack:  layers.NewStack(cfg.ChunkSize),
		hist:   history.New(cfg.MaxUndo),
		rec:    history.NewRecorder(),
		Now:    time.Now,
	}
	s.bindDefault()
	return s
}

// Config returns the normalized configuration the session runs with.
func (s *Session) Config() config.Config { return s.cfg }

// Stack exposes the layer stack for rendering. Callers must not mutate
// tiles through it; edits go through Paint and Erase so they are recorded.
func (s *Session) Stack() *layers.Stack { return s.stack }

// Path is the file the session was last opened from or saved to.
func (s *Session) Path() string { return s.path }

// Dirty reports whether there are edits since the last open or save.
func (s *Session) Dirty() bool { return s.dirty }

// Selected returns the palette tile used by Paint.
func (s *Session) Selected() canvas.TileRef { return s.selected }

// Gesture reports the recorder state.
func (s *Session) Gesture() history.State { return s.rec.State() }

// CanUndo reports whether Undo would do anything.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would do anything.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

func (s *Session) notice(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
	if s.Notify != nil {
		s.Notify(msg)
	}
}

// Paint writes the selected tile at (gx, gy) as part of the current gesture,
// starting one if needed.
func (s *Session) Paint(gx, gy int) {
	if s.interrupted {
		return
	}
	s.rec.Paint(s.stack, s.stack.ActiveLayer().ID, gx, gy, s.selected)
}

// Erase clears (gx, gy) as part of the current gesture.
func (s *Session) Erase(gx, gy int) {
	if s.interrupted {
		return
	}
	s.rec.Paint(s.stack, s.stack.ActiveLayer().ID, gx, gy, canvas.Empty)
}

// EndGesture finalizes the current gesture on pointer release. It reports
// whether an action was recorded; gestures that changed nothing leave no
// history entry.
func (s *Session) EndGesture() bool {
	s.interrupted = false
	return s.push()
}

// commit finalizes the gesture for a command that must not be mixed into it,
// such as undo or a layer change. The rest of the drag is ignored so one
// press never yields two actions.
func (s *Session) commit() {
	if s.rec.State() == history.Recording {
		s.interrupted = true
	}
	s.push()
}

func (s *Session) push() bool {
	a, ok := s.rec.End()
	if !ok {
		return false
	}
	s.hist.Push(a)
	s.dirty = true
	return true
}

// HistoryDepth returns the number of undo and redo entries.
func (s *Session) HistoryDepth() (undo, redo int) { return s.hist.Depth() }

// FocusLost finalizes the current gesture exactly like a release. Paints
// already applied are kept.
func (s *Session) FocusLost() bool {
	if s.rec.State() != history.Recording {
		s.interrupted = false
		return false
	}
	log.Printf("focus lost during gesture, committing %d cells", s.rec.Pending())
	return s.EndGesture()
}

// Undo reverts the most recent action.
func (s *Session) Undo() bool {
	s.commit()
	a, ok := s.hist.Undo(s.stack)
	if !ok {
		s.notice("Nothing to undo")
		return false
	}
	s.dirty = true
	log.Printf("undo: %d cells", a.Len())
	return true
}

// Redo reapplies the most recently undone action.
func (s *Session) Redo() bool {
	s.commit()
	a, ok := s.hist.Redo(s.stack)
	if !ok {
		s.notice("Nothing to redo")
		return false
	}
	s.dirty = true
	log.Printf("redo: %d cells", a.Len())
	return true
}

// SelectTile chooses the palette tile used by Paint. With a loaded tileset
// the tile must lie inside it.
func (s *Session) SelectTile(t canvas.TileRef) bool {
	ts := s.stack.EffectiveTileset(s.stack.Active())
	if t.Col < 0 || t.Row < 0 || (ts.Loaded && !ts.Contains(t)) {
		s.notice("Tile %v is outside the tileset", t)
		return false
	}
	s.selected = t
	return true
}

// NewLayerContent clears the active layer. The clear is a single undoable
// action.
func (s *Session) NewLayerContent() {
	s.commit()
	l := s.stack.ActiveLayer()
	var cells [][2]int
	l.Store.Each(func(gx, gy int, _ canvas.TileRef) {
		cells = append(cells, [2]int{gx, gy})
	})
	for _, c := range cells {
		s.rec.Paint(s.stack, l.ID, c[0], c[1], canvas.Empty)
	}
	s.push()
	s.notice("Cleared %d cells from %q", len(cells), l.Name)
}

// AddLayer inserts a layer above the active one and makes it active.
func (s *Session) AddLayer() int {
	s.commit()
	i, err := s.stack.InsertAfter(s.stack.Active())
	if err != nil {
		s.notice("Cannot add layer: %v", err)
		return s.stack.Active()
	}
	s.dirty = true
	s.notice("Added %q", s.stack.Layer(i).Name)
	return i
}

// DeleteLayer removes the active layer. The last remaining layer cannot be
// deleted.
func (s *Session) DeleteLayer() bool {
	s.commit()
	l := s.stack.ActiveLayer()
	if err := s.stack.Remove(s.stack.Active()); err != nil {
		if errors.Is(err, layers.ErrLastLayer) {
			s.notice("Cannot delete the last layer")
		} else {
			s.notice("Cannot delete layer: %v", err)
		}
		return false
	}
	s.dirty = true
	s.notice("Deleted %q", l.Name)
	return true
}

// ToggleLayer flips the visibility of layer i.
func (s *Session) ToggleLayer(i int) bool {
	visible, err := s.stack.ToggleVisibility(i)
	if err != nil {
		s.notice("No layer %d", i)
		return false
	}
	return visible
}

// SelectLayer makes layer i active. An in-progress gesture keeps painting
// the layer it started on.
func (s *Session) SelectLayer(i int) bool {
	if err := s.stack.SetActive(i); err != nil {
		s.notice("No layer %d", i)
		return false
	}
	return true
}

// CycleLayer moves the active selection by delta, wrapping around.
func (s *Session) CycleLayer(delta int) int {
	n := s.stack.Len()
	i := ((s.stack.Active()+delta)%n + n) % n
	s.SelectLayer(i)
	return i
}

// RenameLayer renames layer i.
func (s *Session) RenameLayer(i int, name string) bool {
	if err := s.stack.Rename(i, name); err != nil {
		s.notice("Cannot rename layer: %v", err)
		return false
	}
	s.dirty = true
	return true
}

// MoveLayer moves the active layer one step up (delta > 0) or down.
func (s *Session) MoveLayer(delta int) bool {
	s.commit()
	var err error
	if delta > 0 {
		err = s.stack.MoveUp(s.stack.Active())
	} else {
		err = s.stack.MoveDown(s.stack.Active())
	}
	if err != nil {
		return false
	}
	s.dirty = true
	return true
}

// Visit walks the visible cells in the inclusive rectangle, bottom layer
// first.
func (s *Session) Visit(x0, y0, x1, y1 int, fn func(index int, l *layers.Layer, gx, gy int, t canvas.TileRef)) {
	s.stack.Visit(x0, y0, x1, y1, fn)
}

// Document snapshots the session into a document for writing.
func (s *Session) Document() *levelfile.Document {
	return levelfile.FromStack(s.stack, levelfile.Window{Cols: s.cfg.Window.Cols, Rows: s.cfg.Window.Rows})
}

// Encode returns the current document as it would be saved. Cells painted
// by an unfinished gesture are already in the layers and are included; the
// gesture itself keeps recording.
func (s *Session) Encode() ([]byte, error) {
	return levelfile.Encode(s.Document(), levelfile.WriteOptions{AssetMarker: s.cfg.AssetMarker})
}

// Save writes to the current path, or to a new timestamped file in the maps
// directory when the session has none.
func (s *Session) Save() (string, error) {
	path := s.path
	if path == "" {
		if err := os.MkdirAll(s.cfg.MapsDir, 0o755); err != nil {
			s.notice("Failed to create maps dir: %s", s.cfg.MapsDir)
			return "", fmt.Errorf("create maps dir: %w", err)
		}
		path = filepath.Join(s.cfg.MapsDir, levelfile.TimestampName(s.Now()))
	}
	return path, s.SaveAs(path)
}

// SaveAs writes the document to path and makes it the current path. On
// failure the session is unchanged.
func (s *Session) SaveAs(path string) error {
	data, err := s.Encode()
	if err != nil {
		s.notice("Failed to save: %s", path)
		return fmt.Errorf("encode map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.notice("Failed to save: %s", path)
		return fmt.Errorf("write map: %w", err)
	}
	s.path = path
	s.dirty = false
	s.notice("Saved -> %s", path)
	return nil
}

// Open replaces the session with the document at path. Files with a .grid
// extension are read as the whitespace separated grid format. On failure
// the session is unchanged.
func (s *Session) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		s.notice("Failed to open: %s", path)
		return fmt.Errorf("open map: %w", err)
	}

	var doc *levelfile.Document
	if strings.EqualFold(filepath.Ext(path), ".grid") {
		doc, err = levelfile.ReadLegacyGrid(bytes.NewReader(data), s.cfg.LegacyCols, s.cfg.LegacyRows)
		if err != nil {
			// keep what was read, like a truncated json grid
			s.notice("Invalid grid file format: %s", path)
		}
	} else {
		doc, err = levelfile.Read(data)
		if err != nil {
			s.notice("Failed to open: %s", path)
			return fmt.Errorf("read map %s: %w", path, err)
		}
	}

	s.load(doc)
	s.path = path
	s.notice("Loaded map from: %s", path)
	return nil
}

// OpenBytes replaces the session with a document held in memory, such as
// pasted text. The session has no path afterwards.
func (s *Session) OpenBytes(data []byte) error {
	doc, err := levelfile.Read(data)
	if err != nil {
		s.notice("No map found in pasted text")
		return err
	}
	s.load(doc)
	s.path = ""
	s.dirty = true
	s.notice("Loaded %d layers", s.stack.Len())
	return nil
}

func (s *Session) load(doc *levelfile.Document) {
	if s.rec.State() == history.Recording {
		s.interrupted = true
	}
	s.rec.End()
	stack, warnings := levelfile.BuildStack(doc, s.loader, levelfile.BuildOptions{
		ChunkSize: s.cfg.ChunkSize,
		TileW:     s.cfg.TileW,
		TileH:     s.cfg.TileH,
	})
	for _, w := range warnings {
		s.notice("Failed tileset: %v", w)
	}
	s.stack = stack
	s.hist.Reset()
	s.dirty = false
	if !s.stack.EffectiveTileset(0).Loaded {
		s.bindDefault()
	}
}

func (s *Session) bindDefault() {
	if s.cfg.DefaultTileset == "" || s.loader == nil {
		return
	}
	l := s.stack.Layer(0)
	if l.Tileset.Path != "" && l.Tileset.Path != s.cfg.DefaultTileset {
		return
	}
	ts, err := tileset.Bind(s.loader, s.cfg.DefaultTileset, s.cfg.TileW, s.cfg.TileH)
	if err != nil {
		s.notice("Failed to load default tileset %s: %v", s.cfg.DefaultTileset, err)
		return
	}
	l.Tileset = ts
}

// LoadTileset binds the image at path to the active layer, keeping the
// layer's tile size when it has one. On failure the binding is unchanged.
func (s *Session) LoadTileset(path string) error {
	s.commit()
	if s.loader == nil {
		return errors.New("load tileset: no loader")
	}
	l := s.stack.ActiveLayer()
	tw, th := l.Tileset.TileW, l.Tileset.TileH
	if tw <= 0 || th <= 0 {
		tw, th = s.cfg.TileW, s.cfg.TileH
	}
	ts, err := tileset.Bind(s.loader, path, tw, th)
	if err != nil {
		s.notice("Failed tileset: %s", path)
		return fmt.Errorf("load tileset: %w", err)
	}
	l.Tileset = ts
	s.dirty = true
	if !ts.Contains(s.selected) {
		s.selected = canvas.Empty
	}
	s.notice("Loaded tileset: %s", path)
	return nil
}

// ReloadTileset rebinds every layer whose tileset resolves to the file at
// changed, typically after the image was edited on disk. It returns the
// number of layers rebound.
func (s *Session) ReloadTileset(changed string) int {
	if s.loader == nil {
		return 0
	}
	target := absPath(changed)
	n := 0
	for _, l := range s.stack.Layers() {
		if l.Tileset.Path == "" {
			continue
		}
		info, err := s.loader.Load(l.Tileset.Path)
		if err != nil || absPath(info.Path) != target {
			continue
		}
		ts, err := tileset.Bind(s.loader, l.Tileset.Path, l.Tileset.TileW, l.Tileset.TileH)
		if err != nil {
			s.notice("Failed tileset: %v", err)
		}
		l.Tileset = ts
		n++
	}
	if n > 0 {
		s.notice("Reloaded %s", filepath.Base(changed))
	}
	return n
}

// TilesetPaths lists the distinct resolved tileset files in use.
func (s *Session) TilesetPaths() []string {
	if s.loader == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, l := range s.stack.Layers() {
		if !l.Tileset.Loaded {
			continue
		}
		info, err := s.loader.Load(l.Tileset.Path)
		if err != nil || seen[info.Path] {
			continue
		}
		seen[info.Path] = true
		out = append(out, info.Path)
	}
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}
