package main

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

const leftPanelWidth = 200

// uiHandlers are the session commands the panel widgets trigger. Layer
// buttons act on the active layer, which the list keeps selected.
type uiHandlers struct {
	onLayerSelected func(index int)
	onLayerRenamed  func(index int, name string)
	onNewLayer      func()
	onMoveLayerUp   func()
	onMoveLayerDown func()
	onRenameLayer   func()
	onToggleLayer   func()
	onDeleteLayer   func()
	onSave          func(name string)
	onOpen          func(name string)
	onLoadTileset   func(path string)
}

// editorUI is the widget tree of the left panel plus the handles the game
// needs to keep it in sync with the session.
type editorUI struct {
	ui           *ebitenui.UI
	layers       *LayerPanel
	fileInput    *widget.TextInput
	tilesetInput *widget.TextInput
	rename       *layerRenameDialog
}

func buildEditorUI(h uiHandlers) (*editorUI, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	var fontFace text.Face = &text.GoTextFace{Source: src, Size: 14}

	ui := &ebitenui.UI{}
	ui.PrimaryTheme = newEditorTheme(&fontFace)
	theme := ui.PrimaryTheme

	left := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(leftPanelWidth, 400),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionStart,
				VerticalPosition:   widget.AnchorLayoutPositionCenter,
				StretchVertical:    true,
			}),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(panelBackground)),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)

	e := &editorUI{ui: ui, layers: NewLayerPanel()}

	left.AddChild(widget.NewLabel(widget.LabelOpts.Text("File", &fontFace, labelColor)))
	e.fileInput = newTextInput(&fontFace, leftPanelWidth-16, func(name string) {
		if h.onSave != nil {
			h.onSave(strings.TrimSpace(name))
		}
	})
	left.AddChild(e.fileInput)
	left.AddChild(newButtonRow(
		newButton(theme, &fontFace, "Save", func() { callWithText(h.onSave, e.fileInput) }),
		newButton(theme, &fontFace, "Open", func() { callWithText(h.onOpen, e.fileInput) }),
	))

	left.AddChild(widget.NewLabel(widget.LabelOpts.Text("Tileset", &fontFace, labelColor)))
	e.tilesetInput = newTextInput(&fontFace, leftPanelWidth-16, func(path string) {
		if h.onLoadTileset != nil {
			h.onLoadTileset(strings.TrimSpace(path))
		}
	})
	left.AddChild(e.tilesetInput)
	left.AddChild(newButtonRow(
		newButton(theme, &fontFace, "Load", func() { callWithText(h.onLoadTileset, e.tilesetInput) }),
	))

	addLayersSection(left, theme, &fontFace, e.layers, h)

	e.rename = newLayerRenameDialog(theme, &fontFace, h.onLayerRenamed)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	root.AddChild(left)
	root.AddChild(e.rename.Overlay)
	ui.Container = root
	return e, nil
}

// typing reports whether a text field has keyboard focus, in which case
// hotkeys are suppressed.
func (e *editorUI) typing() bool {
	if e.rename.Visible() {
		return true
	}
	if fw := e.ui.GetFocusedWidget(); fw != nil {
		if _, ok := fw.(*widget.TextInput); ok {
			return true
		}
	}
	return false
}

func (e *editorUI) blur() {
	e.fileInput.Focus(false)
	e.tilesetInput.Focus(false)
}

func callWithText(fn func(string), input *widget.TextInput) {
	if fn != nil {
		fn(strings.TrimSpace(input.GetText()))
	}
}

// newTextInput builds a single line input. A non-nil submit is called on
// Enter.
func newTextInput(fontFace *text.Face, width int, submit func(string)) *widget.TextInput {
	opts := []widget.TextInputOpt{
		widget.TextInputOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(width, 28),
		),
		widget.TextInputOpts.Image(&widget.TextInputImage{
			Idle:     solidNineSlice(color.RGBA{245, 245, 245, 255}),
			Disabled: solidNineSlice(color.RGBA{200, 200, 200, 255}),
		}),
		widget.TextInputOpts.Color(&widget.TextInputColor{
			Idle:     color.Black,
			Disabled: color.Gray{Y: 120},
			Caret:    color.Black,
		}),
		widget.TextInputOpts.Face(fontFace),
	}
	if submit != nil {
		opts = append(opts,
			widget.TextInputOpts.SubmitOnEnter(true),
			widget.TextInputOpts.SubmitHandler(func(args *widget.TextInputChangedEventArgs) {
				submit(args.InputText)
			}),
		)
	}
	return widget.NewTextInput(opts...)
}

func newButton(theme *widget.Theme, fontFace *text.Face, label string, onClick func()) *widget.Button {
	return widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text(label, fontFace, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if onClick != nil {
				onClick()
			}
		}),
	)
}

func newButtonRow(buttons ...*widget.Button) *widget.Container {
	row := widget.NewContainer(
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(6),
			),
		),
	)
	for _, b := range buttons {
		row.AddChild(b)
	}
	return row
}
