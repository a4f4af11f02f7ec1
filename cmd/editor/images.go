package main

import (
	"image"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/layers"
	"github.com/milk9111/tilecanvas/tileset"
)

// imageCache holds decoded tileset images keyed by the path stored on the
// layer. Failed loads are cached as nil so a missing file is reported once.
type imageCache struct {
	loader *tileset.ImageLoader
	images map[string]*ebiten.Image
}

func newImageCache(loader *tileset.ImageLoader) *imageCache {
	return &imageCache{loader: loader, images: make(map[string]*ebiten.Image)}
}

func (c *imageCache) get(path string) *ebiten.Image {
	if path == "" {
		return nil
	}
	if img, ok := c.images[path]; ok {
		return img
	}
	f, resolved, err := c.loader.Open(path)
	if err != nil {
		log.Printf("Failed to open tileset image %s: %v", path, err)
		c.images[path] = nil
		return nil
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		log.Printf("Failed to decode tileset image %s: %v", resolved, err)
		c.images[path] = nil
		return nil
	}
	img := ebiten.NewImageFromImage(src)
	c.images[path] = img
	return img
}

// tile returns the sub-image for t, or nil when the tileset has no image or
// t lies outside it.
func (c *imageCache) tile(ts layers.Tileset, t canvas.TileRef) *ebiten.Image {
	if !ts.Contains(t) {
		return nil
	}
	img := c.get(ts.Path)
	if img == nil {
		return nil
	}
	r := image.Rect(t.Col*ts.TileW, t.Row*ts.TileH, (t.Col+1)*ts.TileW, (t.Row+1)*ts.TileH)
	return img.SubImage(r).(*ebiten.Image)
}

func (c *imageCache) invalidate() {
	for _, img := range c.images {
		if img != nil {
			img.Deallocate()
		}
	}
	clear(c.images)
}
