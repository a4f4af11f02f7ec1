package tileset

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func writeBMP(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := bmp.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestBind(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "tiles.png"), 64, 32)
	writeBMP(t, filepath.Join(dir, "tiles.bmp"), 48, 16)
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &ImageLoader{Dirs: []string{dir}}

	cases := []struct {
		name       string
		path       string
		tileW      int
		tileH      int
		wantLoaded bool
		wantCols   int
		wantRows   int
	}{
		{"found_in_search_dir", "tiles.png", 16, 16, true, 4, 2},
		{"absolute", filepath.Join(dir, "tiles.png"), 32, 32, true, 2, 1},
		{"bmp", "tiles.bmp", 16, 16, true, 3, 1},
		{"tile_larger_than_image", "tiles.png", 64, 64, false, 1, 0},
		{"missing", "nope.png", 16, 16, false, 0, 0},
		{"not_an_image", "broken.png", 16, 16, false, 0, 0},
		{"bad_tile_size", "tiles.png", 0, 16, false, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts, err := Bind(l, c.path, c.tileW, c.tileH)
			if ts.Loaded != c.wantLoaded {
				t.Fatalf("loaded = %v, want %v (err %v)", ts.Loaded, c.wantLoaded, err)
			}
			if c.wantLoaded && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.wantLoaded && err == nil {
				t.Fatalf("expected an error")
			}
			if ts.Path != c.path || ts.TileW != c.tileW {
				t.Fatalf("binding should keep path and tile size, got %+v", ts)
			}
			if c.wantLoaded && (ts.Cols != c.wantCols || ts.Rows != c.wantRows) {
				t.Fatalf("grid %dx%d, want %dx%d", ts.Cols, ts.Rows, c.wantCols, c.wantRows)
			}
		})
	}

	if _, err := Bind(l, "tiles.png", 64, 64); !errors.Is(err, ErrTileTooLarge) {
		t.Fatalf("expected ErrTileTooLarge, got %v", err)
	}
}

func TestWatcherReportsImageWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "tiles.png")
	writePNG(t, target, 16, 16)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case name := <-w.Events:
			if filepath.Ext(name) != ".png" {
				t.Fatalf("non-image event %q", name)
			}
			if name == filepath.Clean(target) {
				return
			}
		case err := <-w.Errors:
			t.Fatalf("watch error: %v", err)
		case <-timeout:
			t.Fatalf("no event for %s", target)
		}
	}
}

func TestImageLoaderFallback(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 48, 16))); err != nil {
		t.Fatal(err)
	}
	embedded := fstest.MapFS{"tiles.png": {Data: buf.Bytes()}}
	l := &ImageLoader{
		Dirs: []string{t.TempDir()},
		Fallback: func(path string) (fs.File, error) {
			return embedded.Open(filepath.Base(path))
		},
	}

	info, err := l.Load("assets/tiles.png")
	if err != nil {
		t.Fatal(err)
	}
	if info.Path != "assets/tiles.png" || info.Width != 48 || info.Height != 16 {
		t.Fatalf("unexpected info %+v", info)
	}

	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, image.NewGray(image.Rect(0, 0, 32, 64))); err != nil {
		t.Fatal(err)
	}
	embedded["legacy.bmp"] = &fstest.MapFile{Data: bmpBuf.Bytes()}
	info, err = l.Load("assets/legacy.bmp")
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 32 || info.Height != 64 {
		t.Fatalf("unexpected bmp info %+v", info)
	}

	if _, err := l.Load("assets/other.png"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected the disk error when the fallback misses too, got %v", err)
	}
}
