package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tilecanvas/assets"
	"github.com/milk9111/tilecanvas/config"
	"github.com/milk9111/tilecanvas/editor"
	"github.com/milk9111/tilecanvas/tileset"
	"golang.design/x/clipboard"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configPath := flag.String("config", "", "Optional yaml settings file")
	mapPath := flag.String("map", "", "Map to open at startup (.json, or .grid for the plain line format)")
	tilesetPath := flag.String("tileset", "", "Tileset image bound to the first layer")
	assetsDir := flag.String("dir", "", "Extra directory searched for tileset images")
	mapsDir := flag.String("maps", "", "Directory for saves made without a file name")
	noWatch := flag.Bool("nowatch", false, "Do not reload tilesets when they change on disk")
	flag.Parse()

	log.Println("Editor starting...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *tilesetPath != "" {
		cfg.DefaultTileset = *tilesetPath
	}
	if *mapsDir != "" {
		cfg.MapsDir = *mapsDir
	}
	if *noWatch {
		cfg.WatchTilesets = false
	}
	if cfg.Log.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
		defer rotated.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}

	var dirs []string
	if *assetsDir != "" {
		dirs = append(dirs, *assetsDir)
	}
	loader := tileset.NewImageLoader(dirs...)
	loader.Fallback = assets.Open
	session := editor.New(cfg, loader)
	game, err := NewGame(session, loader)
	if err != nil {
		log.Fatalf("Failed to build editor UI: %v", err)
	}

	if *mapPath != "" {
		if err := session.Open(*mapPath); err != nil {
			log.Printf("Failed to open %s: %v", *mapPath, err)
		}
	}

	if cfg.WatchTilesets {
		w, err := tileset.NewWatcher()
		if err != nil {
			log.Printf("Tileset watcher disabled: %v", err)
		} else {
			game.watcher = w
			defer w.Close()
			game.watchTilesets()
		}
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable: %v", err)
	} else {
		game.clipboardOK = true
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 760)
	ebiten.SetWindowTitle("Tile Canvas")

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
