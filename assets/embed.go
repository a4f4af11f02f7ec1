// Package assets embeds the images the editor falls back to when they cannot
// be found on disk, so a binary copied away from the repository still starts
// with a usable palette.
package assets

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

//go:embed *.png
var assetsFS embed.FS

// Open opens an embedded asset by path. Paths may be assets-relative
// ("assets/tiles.png"), bare ("tiles.png") or absolute paths that pass
// through an assets directory.
func Open(path string) (fs.File, error) {
	return assetsFS.Open(cleanAssetPath(path))
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if filepath.IsAbs(path) || strings.HasPrefix(s, "/") {
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(path)
	}
	s = strings.TrimPrefix(s, "./")
	return strings.TrimPrefix(s, "assets/")
}
