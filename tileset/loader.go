// Package tileset resolves and measures tileset images and binds them to
// layers.
package tileset

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/tilecanvas/layers"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrTileTooLarge is returned when the image cannot hold a single tile.
var ErrTileTooLarge = errors.New("tileset smaller than tile size")

// Info is what the editor needs to know about a tileset image.
type Info struct {
	Path   string
	Width  int
	Height int
}

// Loader opens a tileset by path.
type Loader interface {
	Load(path string) (Info, error)
}

// ImageLoader reads image headers from disk. Relative paths are tried as
// given and then under each of Dirs. When nothing on disk matches, Fallback
// is asked for the file; the Info path is then the path as given.
type ImageLoader struct {
	Dirs     []string
	Fallback func(path string) (fs.File, error)
}

// NewImageLoader returns a loader searching the working directory, its
// parents up to three levels, and the executable's directory.
func NewImageLoader(extra ...string) *ImageLoader {
	dirs := append([]string{}, extra...)
	dirs = append(dirs, ".", "..", filepath.Join("..", ".."), filepath.Join("..", "..", ".."))
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return &ImageLoader{Dirs: dirs}
}

// Load resolves path and decodes the image header.
func (l *ImageLoader) Load(path string) (Info, error) {
	f, resolved, err := l.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode tileset %q: %w", resolved, err)
	}
	return Info{Path: resolved, Width: cfg.Width, Height: cfg.Height}, nil
}

// Open resolves path and opens the image file, returning the path it was
// found at.
func (l *ImageLoader) Open(path string) (io.ReadCloser, string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, "", errors.New("load tileset: empty path")
	}
	resolved := Resolve(path, l.Dirs)
	f, err := os.Open(resolved)
	if err == nil {
		return f, resolved, nil
	}
	if l.Fallback != nil {
		if ef, ferr := l.Fallback(path); ferr == nil {
			return ef, path, nil
		}
	}
	return nil, resolved, fmt.Errorf("load tileset: %w", err)
}

// Resolve returns the first existing candidate for path. Absolute paths and
// paths that exist as given are returned unchanged; when nothing matches the
// original path is returned so the caller reports a useful error.
func Resolve(path string, dirs []string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	for _, dir := range dirs {
		cand := filepath.Join(dir, filepath.FromSlash(path))
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	return path
}

// Bind loads path through l and builds a tileset binding. Column and row
// counts come from the image size. The returned binding keeps path and tile
// size even on failure so the document can be saved back unchanged.
func Bind(l Loader, path string, tileW, tileH int) (layers.Tileset, error) {
	ts := layers.Tileset{Path: path, TileW: tileW, TileH: tileH}
	if tileW <= 0 || tileH <= 0 {
		return ts, fmt.Errorf("bind %q: invalid tile size %dx%d", path, tileW, tileH)
	}
	info, err := l.Load(path)
	if err != nil {
		return ts, err
	}
	ts.Cols = info.Width / tileW
	ts.Rows = info.Height / tileH
	if ts.Cols <= 0 || ts.Rows <= 0 {
		return ts, fmt.Errorf("bind %q: %w", path, ErrTileTooLarge)
	}
	ts.Loaded = true
	return ts, nil
}
