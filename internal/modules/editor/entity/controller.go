// Package entity implements the media entity manipulation engine: the
// selection state machine and every geometric, style, and z-order mutation a
// media entity supports. The controller mutates the document model only; a
// swappable ViewAdapter mirrors mutations onto whatever rendering surface the
// caller has, so nothing here assumes a DOM.
package entity

import (
	"go.uber.org/zap"

	"github.com/bookforge/core/internal/modules/editor/document"
)

// ViewAdapter receives mutations to mirror into a live view. Implementations
// must be cheap and must never call back into the controller.
type ViewAdapter interface {
	ApplySelection(entityID string, selected bool)
	ApplyEntity(e *document.MediaEntity)
	ApplyRemoval(entityID string)
}

// NopAdapter is the default view: it does nothing.
type NopAdapter struct{}

func (NopAdapter) ApplySelection(string, bool)       {}
func (NopAdapter) ApplyEntity(*document.MediaEntity) {}
func (NopAdapter) ApplyRemoval(string)               {}

// MoveDirection is a keyboard nudge direction.
type MoveDirection string

const (
	MoveUp    MoveDirection = "up"
	MoveDown  MoveDirection = "down"
	MoveLeft  MoveDirection = "left"
	MoveRight MoveDirection = "right"
)

// Controller drives all entity manipulation for one open document. It is not
// safe for concurrent use; the editing loop is single-threaded by design.
type Controller struct {
	doc      *document.Document
	view     ViewAdapter
	log      *zap.Logger
	onChange func()

	selected string
	gridSnap bool
	ratio    AspectRatio
}

// NewController creates a controller over the given document. view and logger
// may be nil.
func NewController(doc *document.Document, view ViewAdapter, logger *zap.Logger) *Controller {
	if view == nil {
		view = NopAdapter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{doc: doc, view: view, log: logger, ratio: RatioFree}
}

// OnChange registers a callback fired after every committed mutation. The
// synchronizer hooks in here.
func (c *Controller) OnChange(fn func()) { c.onChange = fn }

// Document returns the underlying document.
func (c *Controller) Document() *document.Document { return c.doc }

// Selected returns the selected entity id, or "" when nothing is selected.
func (c *Controller) Selected() string { return c.selected }

// Select moves selection to the given entity. Selecting the already selected
// entity is idempotent; selecting an unknown id is a no-op.
func (c *Controller) Select(entityID string) {
	if c.selected == entityID {
		return
	}
	if c.doc.FindEntity(entityID) == nil {
		c.log.Debug("select on unknown entity", zap.String("entity", entityID))
		return
	}
	if c.selected != "" {
		c.view.ApplySelection(c.selected, false)
	}
	c.selected = entityID
	c.view.ApplySelection(entityID, true)
}

// Deselect clears the selection from any state.
func (c *Controller) Deselect() {
	if c.selected == "" {
		return
	}
	c.view.ApplySelection(c.selected, false)
	c.selected = ""
}

// SetGridSnap toggles grid snapping for keyboard moves.
func (c *Controller) SetGridSnap(on bool) { c.gridSnap = on }

// GridSnap reports whether grid snapping is active.
func (c *Controller) GridSnap() bool { return c.gridSnap }

// SetAspectRatio sets the resize constraint. Unknown values fall back to free.
func (c *Controller) SetAspectRatio(r AspectRatio) {
	if r.Value() == 0 && r != RatioFree {
		c.log.Debug("unknown aspect ratio, using free", zap.String("ratio", string(r)))
		r = RatioFree
	}
	c.ratio = r
}

// Move nudges the selected entity one keyboard step: 20px with grid snap on,
// 5px otherwise. Moving implies free positioning and clears alignment.
func (c *Controller) Move(dir MoveDirection) {
	step := keyStep
	if c.gridSnap {
		step = gridStep
	}
	switch dir {
	case MoveUp:
		c.MoveBy(0, -step)
	case MoveDown:
		c.MoveBy(0, step)
	case MoveLeft:
		c.MoveBy(-step, 0)
	case MoveRight:
		c.MoveBy(step, 0)
	}
}

// MoveBy offsets the selected entity by a caller-supplied delta, used for
// continuous pointer drags.
func (c *Controller) MoveBy(dx, dy float64) {
	e := c.current("move")
	if e == nil {
		return
	}
	e.Geometry.Free = true
	e.Alignment = document.AlignNone
	e.Geometry.X += dx
	e.Geometry.Y += dy
	c.commit(e)
}

// Resize multiplies the current width by factor. With an aspect ratio
// constraint active the height follows the width; floors clamp silently.
func (c *Controller) Resize(factor float64) {
	e := c.current("resize")
	if e == nil {
		return
	}
	if factor <= 0 {
		c.log.Debug("ignoring non-positive resize factor", zap.Float64("factor", factor))
		return
	}
	w := clampWidth(e.Kind, pxWidthOf(e)*factor)
	e.Geometry.Width = document.Px(w)
	if r := c.ratio.Value(); r != 0 {
		e.Geometry.Height = document.Px(clampHeight(e.Kind, w/r))
	} else if e.Geometry.Height.IsPx() {
		e.Geometry.Height = document.Px(clampHeight(e.Kind, e.Geometry.Height.Value*factor))
	}
	c.commit(e)
}

// Scale is the quick-action variant of Resize, driven by preset factors
// (0.5, 0.75, 0.9, 1.0, 1.25, 1.5, 2.0). Same floor rules.
func (c *Controller) Scale(factor float64) {
	c.Resize(factor)
}

// QuickResize sets the width to a named preset and resets height to auto.
func (c *Controller) QuickResize(preset SizePreset) {
	e := c.current("quick resize")
	if e == nil {
		return
	}
	w, ok := presetWidths[preset]
	if !ok {
		c.log.Debug("unknown size preset", zap.String("preset", string(preset)))
		return
	}
	e.Geometry.Width = w
	e.Geometry.Height = document.Auto
	c.commit(e)
}

// Rotate sets the rotation in degrees, clamped to [-180, 180].
func (c *Controller) Rotate(degrees int) {
	e := c.current("rotate")
	if e == nil {
		return
	}
	e.Style.Rotation = clampInt(degrees, -180, 180)
	c.commit(e)
}

// SetOpacity sets the opacity percentage, clamped to [0, 100].
func (c *Controller) SetOpacity(percent int) {
	e := c.current("set opacity")
	if e == nil {
		return
	}
	e.Style.Opacity = clampInt(percent, 0, 100)
	c.commit(e)
}

// SetBorderRadius sets the corner radius in px, clamped to [0, 50].
func (c *Controller) SetBorderRadius(px int) {
	e := c.current("set border radius")
	if e == nil {
		return
	}
	e.Style.BorderRadius = clampInt(px, 0, 50)
	c.commit(e)
}

// AdjustZIndex shifts stacking order by delta. Send-back never goes below 1.
func (c *Controller) AdjustZIndex(delta int) {
	e := c.current("adjust z-index")
	if e == nil {
		return
	}
	z := e.Style.ZIndex + delta
	if z < 1 {
		z = 1
	}
	e.Style.ZIndex = z
	c.commit(e)
}

// SetAlignment switches to alignment-based layout, clearing free positioning.
func (c *Controller) SetAlignment(a document.Alignment) {
	e := c.current("set alignment")
	if e == nil {
		return
	}
	e.Alignment = a
	e.Geometry.Free = false
	e.Geometry.X = 0
	e.Geometry.Y = 0
	c.commit(e)
}

// Duplicate clones the selected entity with a fresh id, offsets it by 20px on
// both axes so it does not overlap the original, and inserts it immediately
// after the original in block order. The clone becomes the selection.
func (c *Controller) Duplicate() *document.MediaEntity {
	e := c.current("duplicate")
	if e == nil {
		return nil
	}
	clone := e.Clone()
	clone.Geometry.Free = true
	clone.Geometry.X += duplicateOffset
	clone.Geometry.Y += duplicateOffset
	c.doc.InsertEntity(clone, c.doc.IndexOfEntity(e.EntityID)+1)
	c.commit(clone)
	c.Select(clone.EntityID)
	return clone
}

// Delete removes the selected entity from the document. Confirmation is the
// caller's concern; removal here is unconditional. Selection transitions to
// unselected.
func (c *Controller) Delete() {
	e := c.current("delete")
	if e == nil {
		return
	}
	id := e.EntityID
	c.doc.RemoveEntity(id)
	c.view.ApplyRemoval(id)
	c.view.ApplySelection(id, false)
	c.selected = ""
	if c.onChange != nil {
		c.onChange()
	}
}

// Reset clears geometry and style overrides back to insertion defaults.
func (c *Controller) Reset() {
	e := c.current("reset")
	if e == nil {
		return
	}
	e.Reset()
	c.commit(e)
}

// current resolves the selected entity, logging and returning nil when there
// is no usable selection. Operations on a missing entity are no-ops.
func (c *Controller) current(op string) *document.MediaEntity {
	if c.selected == "" {
		c.log.Debug("operation without selection", zap.String("op", op))
		return nil
	}
	e := c.doc.FindEntity(c.selected)
	if e == nil {
		c.log.Debug("operation on removed entity",
			zap.String("op", op), zap.String("entity", c.selected))
		c.selected = ""
		return nil
	}
	return e
}

func (c *Controller) commit(e *document.MediaEntity) {
	c.view.ApplyEntity(e)
	if c.onChange != nil {
		c.onChange()
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
