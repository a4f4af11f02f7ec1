package main

import (
	"fmt"
	"slices"

	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// LayerEntry is one row of the layer list.
type LayerEntry struct {
	Index int
	Label string
}

// LayerPanel mirrors the session's layer stack in a list widget.
type LayerPanel struct {
	list     *widget.List
	labels   []string
	entries  []any
	selected int

	// suppressEvents keeps programmatic updates from being read as clicks.
	suppressEvents bool
}

func NewLayerPanel() *LayerPanel {
	return &LayerPanel{selected: -1}
}

// SetLayers replaces the rows. Unchanged labels leave the list alone so the
// per-frame sync does not reset scrolling.
func (lp *LayerPanel) SetLayers(labels []string) {
	if lp == nil || lp.list == nil || slices.Equal(labels, lp.labels) {
		return
	}
	lp.suppressEvents = true
	defer func() { lp.suppressEvents = false }()

	lp.labels = slices.Clone(labels)
	lp.entries = make([]any, len(labels))
	for i, l := range labels {
		lp.entries[i] = LayerEntry{Index: i, Label: l}
	}
	lp.list.SetEntries(lp.entries)
	lp.selected = -1
}

func (lp *LayerPanel) SetSelected(idx int) {
	if lp == nil || lp.list == nil || idx == lp.selected {
		return
	}
	if idx < 0 || idx >= len(lp.entries) {
		return
	}
	lp.suppressEvents = true
	defer func() { lp.suppressEvents = false }()

	lp.list.SetSelectedEntry(lp.entries[idx])
	lp.selected = idx
}

func addLayersSection(parent *widget.Container, theme *widget.Theme, fontFace *text.Face, lp *LayerPanel, h uiHandlers) {
	parent.AddChild(widget.NewLabel(widget.LabelOpts.Text("Layers", fontFace, labelColor)))

	lp.list = widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if entry, ok := e.(LayerEntry); ok {
				return fmt.Sprintf("%d. %s", entry.Index+1, entry.Label)
			}
			return ""
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			entry, ok := args.Entry.(LayerEntry)
			if !ok || lp.suppressEvents {
				return
			}
			lp.selected = entry.Index
			if h.onLayerSelected != nil {
				h.onLayerSelected(entry.Index)
			}
		}),
	)
	parent.AddChild(lp.list)

	parent.AddChild(newButtonRow(
		newButton(theme, fontFace, "New", h.onNewLayer),
		newButton(theme, fontFace, "Up", h.onMoveLayerUp),
		newButton(theme, fontFace, "Down", h.onMoveLayerDown),
	))
	parent.AddChild(newButtonRow(
		newButton(theme, fontFace, "Rename", h.onRenameLayer),
		newButton(theme, fontFace, "Hide", h.onToggleLayer),
		newButton(theme, fontFace, "Delete", h.onDeleteLayer),
	))
}
