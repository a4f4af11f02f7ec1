package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/editor"
	"github.com/milk9111/tilecanvas/layers"
	"github.com/milk9111/tilecanvas/tileset"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
)

const (
	rightPanelWidth = 220
	paletteTop      = 92
	statusHeight    = 40
	noticeTTL       = 3 * time.Second
	panSpeed        = 8
)

// Game adapts ebiten input to session commands and renders the visible part
// of the canvas. The left panel is an ebitenui tree; the palette on the right
// and the canvas are drawn directly.
type Game struct {
	session *editor.Session
	images  *imageCache
	watcher *tileset.Watcher
	ui      *editorUI

	clipboardOK bool

	camX, camY     float64
	panning        bool
	lastMX, lastMY int
	stroking       bool
	focused        bool
	lastPath       string

	notice   string
	noticeAt time.Time

	width, height int
}

func NewGame(s *editor.Session, loader *tileset.ImageLoader) (*Game, error) {
	g := &Game{
		session: s,
		images:  newImageCache(loader),
		focused: true,
	}
	ui, err := buildEditorUI(uiHandlers{
		onLayerSelected: func(i int) { s.SelectLayer(i) },
		onLayerRenamed:  func(i int, name string) { s.RenameLayer(i, name) },
		onNewLayer:      func() { s.AddLayer() },
		onMoveLayerUp:   func() { s.MoveLayer(1) },
		onMoveLayerDown: func() { s.MoveLayer(-1) },
		onRenameLayer:   g.openRename,
		onToggleLayer:   func() { s.ToggleLayer(s.Stack().Active()) },
		onDeleteLayer:   func() { s.DeleteLayer() },
		onSave:          g.save,
		onOpen:          g.open,
		onLoadTileset:   g.loadTileset,
	})
	if err != nil {
		return nil, err
	}
	g.ui = ui
	s.Notify = g.showNotice
	return g, nil
}

func (g *Game) showNotice(msg string) {
	g.notice = msg
	g.noticeAt = time.Now()
}

func (g *Game) cellSize() (float64, float64) {
	cfg := g.session.Config()
	return float64(cfg.TileW * cfg.TileScale), float64(cfg.TileH * cfg.TileScale)
}

func (g *Game) canvasRight() int { return g.width - rightPanelWidth }

// cellAt maps a screen position inside the canvas area to grid coordinates.
func (g *Game) cellAt(mx, my int) (int, int) {
	cw, ch := g.cellSize()
	wx := float64(mx-leftPanelWidth) + g.camX
	wy := float64(my) + g.camY
	return int(math.Floor(wx / cw)), int(math.Floor(wy / ch))
}

func (g *Game) inCanvas(mx, my int) bool {
	return mx >= leftPanelWidth && mx < g.canvasRight() && my >= 0 && my < g.height-statusHeight
}

func (g *Game) Update() error {
	g.drainWatcher()

	focused := ebiten.IsFocused()
	if !focused && g.focused {
		g.session.FocusLost()
		g.stroking = false
		g.panning = false
	}
	g.focused = focused
	if !focused {
		return nil
	}

	if !g.ui.typing() {
		if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
			return ebiten.Termination
		}
		g.updateKeys()
	} else if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if g.ui.rename.Visible() {
			g.ui.rename.Close()
		} else {
			g.ui.blur()
		}
	}

	g.ui.ui.Update()
	g.syncUI()

	if !g.ui.rename.Visible() {
		g.updateMouse()
	}
	return nil
}

// syncUI pushes session state the widgets display back into them.
func (g *Game) syncUI() {
	stack := g.session.Stack()
	labels := stack.Names()
	for i, l := range stack.Layers() {
		if !l.Visible {
			labels[i] += " (hidden)"
		}
	}
	g.ui.layers.SetLayers(labels)
	g.ui.layers.SetSelected(stack.Active())

	if p := g.session.Path(); p != g.lastPath {
		g.lastPath = p
		g.ui.fileInput.SetText(p)
	}
}

func (g *Game) updateKeys() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	s := g.session

	if ctrl {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyZ):
			if shift {
				s.Redo()
			} else {
				s.Undo()
			}
		case inpututil.IsKeyJustPressed(ebiten.KeyY):
			s.Redo()
		case inpututil.IsKeyJustPressed(ebiten.KeyS):
			if shift {
				g.ui.fileInput.Focus(true)
				g.showNotice("Type a file name and press Enter")
			} else {
				g.save(g.ui.fileInput.GetText())
			}
		case inpututil.IsKeyJustPressed(ebiten.KeyO):
			g.open(g.ui.fileInput.GetText())
		case inpututil.IsKeyJustPressed(ebiten.KeyN):
			s.NewLayerContent()
		case inpututil.IsKeyJustPressed(ebiten.KeyC):
			g.copyMap()
		case inpututil.IsKeyJustPressed(ebiten.KeyV):
			g.pasteMap()
		}
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ):
		s.CycleLayer(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		s.CycleLayer(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		s.AddLayer()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		s.ToggleLayer(s.Stack().Active())
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete):
		s.DeleteLayer()
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		s.MoveLayer(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		s.MoveLayer(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.ui.tilesetInput.SetText(s.Stack().ActiveLayer().Tileset.Path)
		g.ui.tilesetInput.Focus(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.openRename()
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.fitView()
	}

	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.camX -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.camX += panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.camY -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.camY += panSpeed
	}
}

func (g *Game) updateMouse() {
	mx, my := ebiten.CursorPosition()
	s := g.session

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle) && g.inCanvas(mx, my) {
		g.panning = true
		g.lastMX, g.lastMY = mx, my
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonMiddle) {
		g.panning = false
	}
	if g.panning {
		g.camX -= float64(mx - g.lastMX)
		g.camY -= float64(my - g.lastMY)
		g.lastMX, g.lastMY = mx, my
	}

	if mx >= g.canvasRight() && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if t, ok := g.paletteHit(mx, my); ok {
			s.SelectTile(t)
		}
		return
	}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if !left && !right {
		if g.stroking {
			s.EndGesture()
			g.stroking = false
		}
		return
	}
	if !g.stroking {
		// a press that started over a panel is not a stroke
		if !g.inCanvas(mx, my) || !(inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight)) {
			return
		}
		g.ui.blur()
		g.stroking = true
	}
	if !g.inCanvas(mx, my) {
		return
	}
	gx, gy := g.cellAt(mx, my)
	if left {
		s.Paint(gx, gy)
	} else {
		s.Erase(gx, gy)
	}
}

func (g *Game) openRename() {
	s := g.session
	g.ui.rename.Open(s.Stack().Active(), s.Stack().ActiveLayer().Name)
}

// save writes to name, or to the current path (or a new timestamped file)
// when name is empty.
func (g *Game) save(name string) {
	s := g.session
	g.ui.blur()
	if name == "" || name == s.Path() {
		if _, err := s.Save(); err != nil {
			log.Printf("save error: %v", err)
		}
		return
	}
	if err := s.SaveAs(name); err != nil {
		log.Printf("save error: %v", err)
	}
}

func (g *Game) open(name string) {
	if name == "" {
		g.ui.fileInput.Focus(true)
		g.showNotice("Type a map path, then press Open")
		return
	}
	g.ui.blur()
	if err := g.session.Open(name); err != nil {
		log.Printf("open error: %v", err)
		return
	}
	g.watchTilesets()
}

func (g *Game) loadTileset(path string) {
	g.ui.blur()
	if path == "" {
		return
	}
	if err := g.session.LoadTileset(path); err != nil {
		log.Printf("tileset error: %v", err)
		return
	}
	g.watchTilesets()
}

// fitView centres the camera on the painted cells of the visible layers.
func (g *Game) fitView() {
	x0, y0, x1, y1, ok := g.session.Stack().Bounds()
	if !ok {
		g.showNotice("Nothing painted")
		return
	}
	cw, ch := g.cellSize()
	cx := (float64(x0) + float64(x1+1)) / 2 * cw
	cy := (float64(y0) + float64(y1+1)) / 2 * ch
	g.camX = cx - float64(g.canvasRight()-leftPanelWidth)/2
	g.camY = cy - float64(g.height-statusHeight)/2
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path := <-g.watcher.Events:
			if g.session.ReloadTileset(path) > 0 {
				g.images.invalidate()
			}
		case err := <-g.watcher.Errors:
			log.Printf("tileset watcher: %v", err)
		default:
			return
		}
	}
}

// watchTilesets starts watching the directories of every tileset in use.
func (g *Game) watchTilesets() {
	if g.watcher == nil {
		return
	}
	for _, p := range g.session.TilesetPaths() {
		if err := g.watcher.WatchFile(p); err != nil {
			log.Printf("watch %s: %v", p, err)
		}
	}
}

func (g *Game) copyMap() {
	if !g.clipboardOK {
		g.showNotice("Clipboard unavailable")
		return
	}
	data, err := g.session.Encode()
	if err != nil {
		g.showNotice(fmt.Sprintf("Copy failed: %v", err))
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	g.showNotice("Copied map to clipboard")
}

func (g *Game) pasteMap() {
	if !g.clipboardOK {
		g.showNotice("Clipboard unavailable")
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		g.showNotice("Clipboard is empty")
		return
	}
	if err := g.session.OpenBytes(data); err != nil {
		return
	}
	g.watchTilesets()
}

// paletteTileset is the tileset shown in the palette: the one the active
// layer draws with.
func (g *Game) paletteTileset() (layers.Tileset, float64) {
	s := g.session.Stack()
	ts := s.EffectiveTileset(s.Active())
	if !ts.Loaded || ts.Cols == 0 {
		return ts, 0
	}
	scale := float64(rightPanelWidth-16) / float64(ts.Cols*ts.TileW)
	return ts, math.Min(scale, 2)
}

func (g *Game) paletteHit(mx, my int) (canvas.TileRef, bool) {
	ts, scale := g.paletteTileset()
	if scale == 0 {
		return canvas.TileRef{}, false
	}
	x0 := g.canvasRight() + 8
	col := int(math.Floor(float64(mx-x0) / (float64(ts.TileW) * scale)))
	row := int(math.Floor(float64(my-paletteTop) / (float64(ts.TileH) * scale)))
	t := canvas.TileRef{Col: col, Row: row}
	return t, ts.Contains(t)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 10, G: 15, B: 20, A: 255})
	g.drawCanvas(screen)
	g.drawPalette(screen)
	g.drawStatus(screen)
	g.ui.ui.Draw(screen)
}

func (g *Game) drawCanvas(screen *ebiten.Image) {
	cw, ch := g.cellSize()
	canvasW := float64(g.canvasRight() - leftPanelWidth)
	canvasH := float64(g.height - statusHeight)
	x0 := int(math.Floor(g.camX / cw))
	y0 := int(math.Floor(g.camY / ch))
	x1 := int(math.Floor((g.camX + canvasW) / cw))
	y1 := int(math.Floor((g.camY + canvasH) / ch))

	toScreen := func(gx, gy int) (float64, float64) {
		return float64(gx)*cw - g.camX + leftPanelWidth, float64(gy)*ch - g.camY
	}

	stack := g.session.Stack()
	g.session.Visit(x0, y0, x1, y1, func(index int, l *layers.Layer, gx, gy int, t canvas.TileRef) {
		sx, sy := toScreen(gx, gy)
		ts := stack.EffectiveTileset(index)
		sub := g.images.tile(ts, t)
		if sub == nil {
			vector.FillRect(screen, float32(sx), float32(sy), float32(cw), float32(ch), colornames.Magenta, false)
			return
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(cw/float64(ts.TileW), ch/float64(ts.TileH))
		op.GeoM.Translate(sx, sy)
		screen.DrawImage(sub, op)
	})

	// exported window
	win := g.session.Config().Window
	wx, wy := toScreen(0, 0)
	vector.StrokeRect(screen, float32(wx), float32(wy), float32(float64(win.Cols)*cw), float32(float64(win.Rows)*ch), 1, colornames.Slategray, false)

	mx, my := ebiten.CursorPosition()
	if g.inCanvas(mx, my) {
		sx, sy := toScreen(g.cellAt(mx, my))
		vector.StrokeRect(screen, float32(sx), float32(sy), float32(cw), float32(ch), 1, colornames.Yellow, false)
	}
}

func (g *Game) drawPalette(screen *ebiten.Image) {
	left := g.canvasRight()
	vector.FillRect(screen, float32(left), 0, rightPanelWidth, float32(g.height), panelBackground, false)

	ts, scale := g.paletteTileset()
	ebitenutil.DebugPrintAt(screen, "Tileset:", left+8, 8)
	ebitenutil.DebugPrintAt(screen, shorten(ts.Path, 32), left+8, 26)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Tile: %dx%d  sel %v", ts.TileW, ts.TileH, g.session.Selected()), left+8, 44)

	img := g.images.get(ts.Path)
	if img == nil || scale == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(left+8), paletteTop)
	screen.DrawImage(img, op)

	sel := g.session.Selected()
	tw, th := float64(ts.TileW)*scale, float64(ts.TileH)*scale
	vector.StrokeRect(screen, float32(float64(left+8)+float64(sel.Col)*tw), float32(paletteTop+float64(sel.Row)*th), float32(tw), float32(th), 2, colornames.Yellow, false)
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	top := g.height - statusHeight
	vector.FillRect(screen, leftPanelWidth, float32(top), float32(g.canvasRight()-leftPanelWidth), statusHeight, color.RGBA{R: 20, G: 20, B: 28, A: 255}, false)

	path := g.session.Path()
	if path == "" {
		path = "(unsaved)"
	}
	if g.session.Dirty() {
		path += " *"
	}
	mx, my := ebiten.CursorPosition()
	gx, gy := g.cellAt(mx, my)
	undo, redo := g.session.HistoryDepth()
	cells := g.session.Stack().ActiveLayer().Store.CellCount()
	line := fmt.Sprintf("%s  cell %d,%d  tiles %d  undo %d redo %d", shorten(path, 48), gx, gy, cells, undo, redo)
	ebitenutil.DebugPrintAt(screen, line, leftPanelWidth+8, top+4)

	if g.notice != "" && time.Since(g.noticeAt) < noticeTTL {
		ebitenutil.DebugPrintAt(screen, g.notice, leftPanelWidth+8, top+20)
	} else {
		ebitenutil.DebugPrintAt(screen, "Ctrl+S save  Ctrl+O open  N layer  Q/E cycle  H hide  L tileset  F fit  Ctrl+Z/Y", leftPanelWidth+8, top+20)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}
