package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/core/internal/modules/editor/document"
)

func dragController(t *testing.T) (*Controller, *document.Document) {
	t.Helper()
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.QuickResize(SizeSmall) // width 200, height auto (materializes at 150)
	return c, d
}

func TestDragEastGrowsWidth(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirE, 500, 300)
	require.NotNil(t, s)
	c.DragTo(s, 560, 300)
	e := d.FindEntity("a")
	assert.Equal(t, 260.0, e.Geometry.Width.Value)
	assert.Equal(t, 150.0, e.Geometry.Height.Value, "auto height materializes at 4:3")
}

func TestDragDeltasComputedFromStartNotPrevious(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirE, 500, 300)
	// jittery pointer: each event independent of the last
	c.DragTo(s, 600, 300)
	c.DragTo(s, 520, 300)
	c.DragTo(s, 540, 300)
	assert.Equal(t, 240.0, d.FindEntity("a").Geometry.Width.Value)
}

func TestDragWestShrinkClampsAtFloor(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirW, 500, 300)
	// delta larger than the current width: must clamp, not go negative
	c.DragTo(s, 500+999, 300)
	assert.Equal(t, minWidthGeneric, d.FindEntity("a").Geometry.Width.Value)
}

func TestDragFloorHoldsDuringDragNotOnlyOnRelease(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirW, 500, 300)
	for px := 0.0; px <= 1000; px += 100 {
		c.DragTo(s, 500+px, 300)
		w := d.FindEntity("a").Geometry.Width.Value
		assert.GreaterOrEqual(t, w, minWidthGeneric)
	}
	c.EndDrag(s)
	assert.Equal(t, minWidthGeneric, d.FindEntity("a").Geometry.Width.Value)
}

func TestDragCompoundDirection(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirSE, 0, 0)
	c.DragTo(s, 100, 50)
	e := d.FindEntity("a")
	assert.Equal(t, 300.0, e.Geometry.Width.Value)
	assert.Equal(t, 200.0, e.Geometry.Height.Value)
}

func TestDragNorthShrinksHeight(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirN, 0, 0)
	c.DragTo(s, 0, 40) // pointer moved down while dragging the top handle
	assert.Equal(t, 110.0, d.FindEntity("a").Geometry.Height.Value)
}

func TestDragWithAspectRatioFollowsDrivingAxis(t *testing.T) {
	c, d := dragController(t)
	c.SetAspectRatio(RatioSquare)
	s := c.BeginDrag(DirE, 0, 0)
	c.DragTo(s, 100, 0)
	e := d.FindEntity("a")
	assert.Equal(t, 300.0, e.Geometry.Width.Value)
	assert.Equal(t, 300.0, e.Geometry.Height.Value)
}

func TestDragEmbedFloors(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("b")
	c.QuickResize(SizeMedium)
	s := c.BeginDrag(DirNW, 0, 0)
	c.DragTo(s, 5000, 5000)
	e := d.FindEntity("b")
	assert.Equal(t, minWidthFrame, e.Geometry.Width.Value)
	assert.Equal(t, minHeightFrame, e.Geometry.Height.Value)
}

func TestBeginDragWithoutSelection(t *testing.T) {
	c := NewController(testDoc(), nil, nil)
	assert.Nil(t, c.BeginDrag(DirE, 0, 0))
	c.DragTo(nil, 10, 10) // must not panic
	c.EndDrag(nil)
}

func TestEndDragCommitsOnce(t *testing.T) {
	c, _ := dragController(t)
	changes := 0
	c.OnChange(func() { changes++ })
	s := c.BeginDrag(DirE, 0, 0)
	c.DragTo(s, 10, 0)
	c.DragTo(s, 20, 0)
	c.DragTo(s, 30, 0)
	assert.Zero(t, changes, "intermediate drag events do not commit")
	c.EndDrag(s)
	assert.Equal(t, 1, changes)
}

func TestDragEntityRemovedMidDrag(t *testing.T) {
	c, d := dragController(t)
	s := c.BeginDrag(DirE, 0, 0)
	d.RemoveEntity("a")
	assert.NotPanics(t, func() {
		c.DragTo(s, 100, 0)
		c.EndDrag(s)
	})
}
