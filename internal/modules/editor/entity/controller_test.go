package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/core/internal/modules/editor/document"
)

// recordingView tracks selection visuals per entity id.
type recordingView struct {
	selected map[string]bool
	applied  int
	removed  []string
}

func newRecordingView() *recordingView {
	return &recordingView{selected: map[string]bool{}}
}

func (v *recordingView) ApplySelection(id string, on bool) { v.selected[id] = on }
func (v *recordingView) ApplyEntity(*document.MediaEntity) { v.applied++ }
func (v *recordingView) ApplyRemoval(id string)            { v.removed = append(v.removed, id) }

func testDoc() *document.Document {
	a := document.NewEntity(document.KindImage, "/a.png")
	a.EntityID = "a"
	b := document.NewEntity(document.KindEmbed, "https://example.com/w")
	b.EntityID = "b"
	return &document.Document{Blocks: []document.Block{
		document.TextBlock("<p>intro</p>"),
		document.EntityBlock(a),
		document.EntityBlock(b),
	}}
}

func TestSelectionExclusivity(t *testing.T) {
	view := newRecordingView()
	c := NewController(testDoc(), view, nil)

	c.Select("a")
	assert.True(t, view.selected["a"])

	c.Select("b")
	assert.False(t, view.selected["a"], "previous selection visuals must be cleared")
	assert.True(t, view.selected["b"])
	assert.Equal(t, "b", c.Selected())
}

func TestSelectSameEntityIdempotent(t *testing.T) {
	view := newRecordingView()
	c := NewController(testDoc(), view, nil)
	c.Select("a")
	c.Select("a")
	assert.Equal(t, "a", c.Selected())
	assert.True(t, view.selected["a"])
}

func TestSelectUnknownEntityNoop(t *testing.T) {
	c := NewController(testDoc(), nil, nil)
	c.Select("ghost")
	assert.Empty(t, c.Selected())
}

func TestDeselectFromAnyState(t *testing.T) {
	c := NewController(testDoc(), nil, nil)
	c.Deselect() // unselected -> unselected
	c.Select("a")
	c.Deselect()
	assert.Empty(t, c.Selected())
}

func TestOperationsWithoutSelectionAreNoops(t *testing.T) {
	d := testDoc()
	before := d.Serialize()
	c := NewController(d, nil, nil)
	c.Move(MoveLeft)
	c.Resize(2)
	c.Rotate(90)
	c.Delete()
	assert.Nil(t, c.Duplicate())
	assert.Equal(t, before, d.Serialize())
}

func TestMoveStepSizes(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")

	c.Move(MoveRight)
	e := d.FindEntity("a")
	assert.Equal(t, 5.0, e.Geometry.X, "default keyboard step is 5px")

	c.SetGridSnap(true)
	c.Move(MoveDown)
	assert.Equal(t, 20.0, e.Geometry.Y, "grid snap step is 20px")
	assert.True(t, e.Geometry.Free)
	assert.Equal(t, document.AlignNone, e.Alignment)
}

func TestMoveClearsAlignment(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.SetAlignment(document.AlignCenter)
	c.Move(MoveUp)
	assert.Equal(t, document.AlignNone, d.FindEntity("a").Alignment)
	assert.True(t, d.FindEntity("a").Geometry.Free)
}

func TestAlignmentClearsFreePositioning(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.MoveBy(37, 41)
	c.SetAlignment(document.AlignRight)
	e := d.FindEntity("a")
	assert.False(t, e.Geometry.Free)
	assert.Zero(t, e.Geometry.X)
	assert.Zero(t, e.Geometry.Y)
	assert.Equal(t, document.AlignRight, e.Alignment)
}

func TestResizeFloorUnderRepeatedShrink(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.QuickResize(SizeMedium)
	for i := 0; i < 50; i++ {
		c.Resize(0.5)
	}
	e := d.FindEntity("a")
	assert.Equal(t, minWidthGeneric, e.Geometry.Width.Value)
}

func TestResizeFloorForEmbeds(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("b")
	c.QuickResize(SizeLarge)
	for i := 0; i < 20; i++ {
		c.Scale(0.5)
	}
	e := d.FindEntity("b")
	assert.Equal(t, minWidthFrame, e.Geometry.Width.Value)
}

func TestResizeWithAspectRatio(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.SetAspectRatio(RatioWide)
	c.QuickResize(SizeMedium)
	c.Resize(1.0)
	e := d.FindEntity("a")
	require.True(t, e.Geometry.Height.IsPx())
	assert.InDelta(t, 400.0/(16.0/9.0), e.Geometry.Height.Value, 0.01)
}

func TestResizeIgnoresNonPositiveFactor(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.QuickResize(SizeMedium)
	c.Resize(0)
	c.Resize(-3)
	assert.Equal(t, 400.0, d.FindEntity("a").Geometry.Width.Value)
}

func TestResizeFromAutoUsesBaseWidth(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.Resize(2)
	assert.Equal(t, defaultBaseWidth*2, d.FindEntity("a").Geometry.Width.Value)
}

func TestQuickResizePresets(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")

	cases := map[SizePreset]document.Length{
		SizeSmall:  document.Px(200),
		SizeMedium: document.Px(400),
		SizeLarge:  document.Px(600),
		SizeFull:   document.Percent(100),
	}
	for preset, want := range cases {
		c.QuickResize(preset)
		e := d.FindEntity("a")
		assert.Equal(t, want, e.Geometry.Width, string(preset))
		assert.True(t, e.Geometry.Height.IsAuto(), "height resets to auto")
	}
}

func TestRotateOpacityRadiusClamp(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	e := d.FindEntity("a")

	c.Rotate(720)
	assert.Equal(t, 180, e.Style.Rotation)
	c.Rotate(-720)
	assert.Equal(t, -180, e.Style.Rotation)

	c.SetOpacity(150)
	assert.Equal(t, 100, e.Style.Opacity)
	c.SetOpacity(-1)
	assert.Equal(t, 0, e.Style.Opacity)

	c.SetBorderRadius(99)
	assert.Equal(t, 50, e.Style.BorderRadius)
	c.SetBorderRadius(-5)
	assert.Equal(t, 0, e.Style.BorderRadius)
}

func TestZIndexFloor(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	e := d.FindEntity("a")

	c.AdjustZIndex(3)
	assert.Equal(t, 4, e.Style.ZIndex)
	c.AdjustZIndex(-10)
	assert.Equal(t, 1, e.Style.ZIndex, "send back never goes below 1")
}

func TestDuplicate(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	orig := d.FindEntity("a")
	orig.Geometry.Free = true
	orig.Geometry.X = 10
	orig.Geometry.Y = 10

	clone := c.Duplicate()
	require.NotNil(t, clone)
	assert.NotEqual(t, orig.EntityID, clone.EntityID)
	assert.Equal(t, 30.0, clone.Geometry.X)
	assert.Equal(t, 30.0, clone.Geometry.Y)
	assert.Equal(t, d.IndexOfEntity(orig.EntityID)+1, d.IndexOfEntity(clone.EntityID),
		"clone sits immediately after the original")
	assert.Equal(t, clone.EntityID, c.Selected())
}

func TestDeleteClearsSelection(t *testing.T) {
	d := testDoc()
	view := newRecordingView()
	c := NewController(d, view, nil)
	c.Select("a")
	c.Delete()
	assert.Empty(t, c.Selected())
	assert.Nil(t, d.FindEntity("a"))
	assert.Equal(t, []string{"a"}, view.removed)
	assert.False(t, view.selected["a"])
}

func TestOperationOnExternallyRemovedEntity(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	d.RemoveEntity("a")
	c.Resize(2) // must not panic, must clear stale selection
	assert.Empty(t, c.Selected())
}

func TestResetRestoresDefaults(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	c.Select("a")
	c.QuickResize(SizeLarge)
	c.Rotate(45)
	c.SetAlignment(document.AlignCenter)
	c.Reset()
	e := d.FindEntity("a")
	assert.True(t, e.Geometry.Width.IsAuto())
	assert.Equal(t, document.DefaultStyle(), e.Style)
	assert.Equal(t, document.AlignNone, e.Alignment)
	assert.Equal(t, "/a.png", e.Source)
}

func TestOnChangeFiresPerMutation(t *testing.T) {
	d := testDoc()
	c := NewController(d, nil, nil)
	changes := 0
	c.OnChange(func() { changes++ })
	c.Select("a") // selection alone does not dirty content
	assert.Zero(t, changes)
	c.Move(MoveLeft)
	c.Rotate(15)
	c.Delete()
	assert.Equal(t, 3, changes)
}
