// Package config loads editor settings from yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/history"
)

// Window is the nominal authored extent written to documents, in cells,
// anchored at the origin.
type Window struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// Log controls where the editor log goes besides stderr. An empty File
// keeps stderr only.
type Log struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type Config struct {
	ChunkSize      int    `yaml:"chunk_size"`
	MaxUndo        int    `yaml:"max_undo"`
	Window         Window `yaml:"window"`
	TileW          int    `yaml:"tile_w"`
	TileH          int    `yaml:"tile_h"`
	TileScale      int    `yaml:"tile_scale"`
	DefaultTileset string `yaml:"default_tileset"`
	AssetMarker    string `yaml:"asset_marker"`
	MapsDir        string `yaml:"maps_dir"`
	LegacyCols     int    `yaml:"legacy_cols"`
	LegacyRows     int    `yaml:"legacy_rows"`
	WatchTilesets  bool   `yaml:"watch_tilesets"`
	Log            Log    `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ChunkSize:      canvas.DefaultChunkSize,
		MaxUndo:        history.DefaultMaxUndo,
		Window:         Window{Cols: 40, Rows: 23},
		TileW:          16,
		TileH:          16,
		TileScale:      2,
		DefaultTileset: "assets/tiles.png",
		AssetMarker:    "assets",
		MapsDir:        UserMapsDir(),
		LegacyCols:     12,
		LegacyRows:     12,
		WatchTilesets:  true,
		Log:            Log{MaxSizeMB: 5, MaxBackups: 3},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Normalize replaces zero values with defaults.
func (c *Config) Normalize() {
	d := Default()
	if c.ChunkSize == 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxUndo == 0 {
		c.MaxUndo = d.MaxUndo
	}
	if c.Window.Cols == 0 {
		c.Window.Cols = d.Window.Cols
	}
	if c.Window.Rows == 0 {
		c.Window.Rows = d.Window.Rows
	}
	if c.TileW == 0 {
		c.TileW = d.TileW
	}
	if c.TileH == 0 {
		c.TileH = d.TileH
	}
	if c.TileScale == 0 {
		c.TileScale = d.TileScale
	}
	if strings.TrimSpace(c.AssetMarker) == "" {
		c.AssetMarker = d.AssetMarker
	}
	c.AssetMarker = strings.Trim(filepath.ToSlash(c.AssetMarker), "/")
	if strings.TrimSpace(c.MapsDir) == "" {
		c.MapsDir = d.MapsDir
	}
	if c.LegacyCols == 0 {
		c.LegacyCols = d.LegacyCols
	}
	if c.LegacyRows == 0 {
		c.LegacyRows = d.LegacyRows
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = d.Log.MaxBackups
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.MaxUndo < 1 {
		errs = append(errs, fmt.Errorf("max_undo must be positive, got %d", c.MaxUndo))
	}
	if c.Window.Cols < 1 || c.Window.Rows < 1 {
		errs = append(errs, fmt.Errorf("window must be at least 1x1, got %dx%d", c.Window.Cols, c.Window.Rows))
	}
	if c.TileW < 1 || c.TileH < 1 {
		errs = append(errs, fmt.Errorf("tile size must be positive, got %dx%d", c.TileW, c.TileH))
	}
	if c.TileScale < 1 {
		errs = append(errs, fmt.Errorf("tile_scale must be positive, got %d", c.TileScale))
	}
	if c.LegacyCols < 1 || c.LegacyRows < 1 {
		errs = append(errs, fmt.Errorf("legacy grid must be at least 1x1, got %dx%d", c.LegacyCols, c.LegacyRows))
	}
	if c.Log.MaxSizeMB < 1 || c.Log.MaxBackups < 0 {
		errs = append(errs, fmt.Errorf("log rotation must keep files of at least 1MB, got %dMB x %d", c.Log.MaxSizeMB, c.Log.MaxBackups))
	}
	return errors.Join(errs...)
}

// UserMapsDir is the per-user directory saved maps go to when no file name
// was chosen.
func UserMapsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tilecanvas", "maps")
		}
		return filepath.Join(home, "tilecanvas", "maps")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "tilecanvas", "maps")
	default:
		return filepath.Join(home, ".local", "share", "tilecanvas", "maps")
	}
}
