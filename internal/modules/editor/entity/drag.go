package entity

import (
	"strings"

	"github.com/bookforge/core/internal/modules/editor/document"
)

// ResizeDirection names the handle a pointer drag started from. Compound
// directions combine both axes independently.
type ResizeDirection string

const (
	DirN  ResizeDirection = "n"
	DirS  ResizeDirection = "s"
	DirE  ResizeDirection = "e"
	DirW  ResizeDirection = "w"
	DirNE ResizeDirection = "ne"
	DirNW ResizeDirection = "nw"
	DirSE ResizeDirection = "se"
	DirSW ResizeDirection = "sw"
)

func (d ResizeDirection) horizontal() bool { return strings.ContainsAny(string(d), "ew") }
func (d ResizeDirection) vertical() bool   { return strings.ContainsAny(string(d), "ns") }

// DragState captures the geometry at drag start. Every DragTo computes deltas
// from these values, never from the previous pointer event, so out-of-order
// or dropped events cannot accumulate error.
type DragState struct {
	entityID string
	dir      ResizeDirection
	startX   float64
	startY   float64
	startW   float64
	startH   float64
}

// BeginDrag starts a pointer resize on the selected entity. Returns nil when
// nothing is selected.
func (c *Controller) BeginDrag(dir ResizeDirection, pointerX, pointerY float64) *DragState {
	e := c.current("drag resize")
	if e == nil {
		return nil
	}
	return &DragState{
		entityID: e.EntityID,
		dir:      dir,
		startX:   pointerX,
		startY:   pointerY,
		startW:   pxWidthOf(e),
		startH:   pxHeightOf(e),
	}
}

// DragTo applies the pointer position to the dragged entity. Floors clamp on
// every event, not only on release. The view is updated but the change is not
// committed until EndDrag.
func (c *Controller) DragTo(s *DragState, pointerX, pointerY float64) {
	if s == nil {
		return
	}
	e := c.doc.FindEntity(s.entityID)
	if e == nil {
		return
	}

	dx := pointerX - s.startX
	dy := pointerY - s.startY

	w := s.startW
	h := s.startH
	if strings.Contains(string(s.dir), "e") {
		w = s.startW + dx
	}
	if strings.Contains(string(s.dir), "w") {
		w = s.startW - dx
	}
	if strings.Contains(string(s.dir), "s") {
		h = s.startH + dy
	}
	if strings.Contains(string(s.dir), "n") {
		h = s.startH - dy
	}

	w = clampWidth(e.Kind, w)
	h = clampHeight(e.Kind, h)

	if r := c.ratio.Value(); r != 0 {
		if s.dir.horizontal() {
			h = clampHeight(e.Kind, w/r)
		} else {
			w = clampWidth(e.Kind, h*r)
		}
	}

	e.Geometry.Width = document.Px(w)
	e.Geometry.Height = document.Px(h)
	c.view.ApplyEntity(e)
}

// EndDrag persists the final geometry and triggers a content re-sync.
func (c *Controller) EndDrag(s *DragState) {
	if s == nil {
		return
	}
	e := c.doc.FindEntity(s.entityID)
	if e == nil {
		return
	}
	c.commit(e)
}
