package main

import (
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

type layerRenameDialog struct {
	Overlay *widget.Container
	input   *widget.TextInput
	index   int
}

func newLayerRenameDialog(theme *widget.Theme, fontFace *text.Face, onRenamed func(index int, name string)) *layerRenameDialog {
	d := &layerRenameDialog{index: -1}

	d.Overlay = widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionCenter,
				StretchHorizontal:  true,
				StretchVertical:    true,
			}),
			widget.WidgetOpts.MinSize(1, 1),
		),
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{0, 0, 0, 160})),
	)
	d.Overlay.GetWidget().Visibility = widget.Visibility_Hide

	dialog := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(320, 140),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionCenter,
			}),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{220, 220, 220, 255})),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)

	submit := func(name string) {
		name = strings.TrimSpace(name)
		if d.index >= 0 && name != "" && onRenamed != nil {
			onRenamed(d.index, name)
		}
		d.Close()
	}
	d.input = newTextInput(fontFace, 260, submit)

	dialog.AddChild(widget.NewLabel(
		widget.LabelOpts.Text("Rename layer", fontFace, &widget.LabelColor{Idle: color.Black, Disabled: color.Gray{Y: 140}}),
	))
	dialog.AddChild(d.input)
	dialog.AddChild(newButtonRow(
		newButton(theme, fontFace, "OK", func() { submit(d.input.GetText()) }),
		newButton(theme, fontFace, "Cancel", d.Close),
	))
	d.Overlay.AddChild(dialog)
	return d
}

func (d *layerRenameDialog) Open(index int, current string) {
	d.index = index
	d.input.SetText(current)
	d.input.Focus(true)
	d.Overlay.GetWidget().Visibility = widget.Visibility_Show
}

func (d *layerRenameDialog) Close() {
	d.index = -1
	d.input.Focus(false)
	d.Overlay.GetWidget().Visibility = widget.Visibility_Hide
}

func (d *layerRenameDialog) Visible() bool {
	return d.Overlay.GetWidget().Visibility == widget.Visibility_Show
}
