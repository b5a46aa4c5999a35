package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *Document {
	img := NewEntity(KindImage, "/static/images/cover.png")
	img.EntityID = "ent-img"
	img.Alt = "cover art"
	img.Title = "Cover"
	img.Geometry.Width = Px(240)
	img.Style.BorderRadius = 8
	img.Style.Shadow = ShadowMedium
	img.Alignment = AlignCenter

	embed := NewEntity(KindEmbed, "https://example.com/widget")
	embed.EntityID = "ent-embed"
	embed.Title = "Interactive widget"
	embed.Geometry.Width = Px(480)
	embed.Geometry.Height = Px(320)
	embed.Geometry.Free = true
	embed.Geometry.X = 40
	embed.Geometry.Y = 120
	embed.Style.ZIndex = 3

	return &Document{Blocks: []Block{
		TextBlock("<h1>Chapter One</h1>"),
		EntityBlock(img),
		TextBlock("<p>Some <strong>formatted</strong> prose.</p>"),
		EntityBlock(embed),
	}}
}

func TestRoundTripStructural(t *testing.T) {
	d := sampleDoc()
	got := Parse(d.Serialize())
	assert.Equal(t, d, got)
}

func TestSerializeIsFixedPointOfParse(t *testing.T) {
	s := sampleDoc().Serialize()
	require.NotEmpty(t, s)
	assert.Equal(t, s, Parse(s).Serialize())
	// twice more, to catch drift that only shows after repeated cycles
	assert.Equal(t, s, Parse(Parse(s).Serialize()).Serialize())
}

func TestParseEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, Parse("").Blocks)
	assert.Empty(t, Parse("  \n\t ").Blocks)
}

func TestParseMalformedNeverPanics(t *testing.T) {
	cases := []string{
		"<p>unclosed",
		"<figure data-bf-entity='x'>",
		"</div></div>",
		"<<<>>>",
		`<figure data-bf-entity="a" data-bf-kind="image">no media child</figure>`,
	}
	for _, c := range cases {
		assert.NotPanics(t, func() { Parse(c) }, c)
	}
}

func TestUnknownTagsKeptOpaque(t *testing.T) {
	d := Parse(`<custom-widget data-x="1">hello</custom-widget>`)
	require.Len(t, d.Blocks, 1)
	assert.False(t, d.Blocks[0].IsEntity())
	assert.Contains(t, d.Blocks[0].HTML, "custom-widget")
	assert.Contains(t, d.Blocks[0].HTML, "hello")
}

func TestParseEntityDefaults(t *testing.T) {
	d := Parse(`<figure data-bf-entity="e1" data-bf-kind="image"><img src="/a.png"/></figure>`)
	require.Len(t, d.Blocks, 1)
	e := d.Blocks[0].Entity
	require.NotNil(t, e)
	assert.Equal(t, "e1", e.EntityID)
	assert.Equal(t, KindImage, e.Kind)
	assert.Equal(t, "/a.png", e.Source)
	assert.True(t, e.Geometry.Width.IsAuto())
	assert.Equal(t, 100, e.Style.Opacity)
	assert.Equal(t, 1, e.Style.ZIndex)
	assert.Equal(t, ShadowNone, e.Style.Shadow)
	assert.Equal(t, AlignNone, e.Alignment)
	assert.False(t, e.Geometry.Free)
}

func TestParseInfersKindFromMediaChild(t *testing.T) {
	d := Parse(`<figure data-bf-entity="e2"><iframe src="https://x.test/"></iframe></figure>`)
	require.Len(t, d.Blocks, 1)
	assert.Equal(t, KindEmbed, d.Blocks[0].Entity.Kind)
}

func TestInsertRemoveFind(t *testing.T) {
	d := &Document{Blocks: []Block{TextBlock("<p>a</p>"), TextBlock("<p>b</p>")}}
	e := NewEntity(KindImage, "/x.png")
	d.InsertEntity(e, 1)
	require.Len(t, d.Blocks, 3)
	assert.True(t, d.Blocks[1].IsEntity())
	assert.Equal(t, 1, d.IndexOfEntity(e.EntityID))
	assert.Same(t, e, d.FindEntity(e.EntityID))

	assert.True(t, d.RemoveEntity(e.EntityID))
	assert.Len(t, d.Blocks, 2)
	assert.Nil(t, d.FindEntity(e.EntityID))
	assert.False(t, d.RemoveEntity(e.EntityID), "second removal is a no-op")
}

func TestInsertEntityOutOfRangeAppends(t *testing.T) {
	d := &Document{Blocks: []Block{TextBlock("<p>a</p>")}}
	e := NewEntity(KindVideo, "https://v.test/1")
	d.InsertEntity(e, 99)
	assert.True(t, d.Blocks[len(d.Blocks)-1].IsEntity())
}

func TestCloneEntityGetsFreshID(t *testing.T) {
	e := NewEntity(KindImage, "/x.png")
	e.Geometry.Width = Px(300)
	c := e.Clone()
	assert.NotEqual(t, e.EntityID, c.EntityID)
	assert.Equal(t, e.Geometry, c.Geometry)
	assert.Equal(t, e.Source, c.Source)
}

func TestResetKeepsIdentityFields(t *testing.T) {
	e := NewEntity(KindImage, "/x.png")
	e.Title = "keep me"
	e.Alt = "and me"
	e.Geometry.Width = Px(600)
	e.Style.Rotation = 45
	e.Alignment = AlignRight
	e.Reset()
	assert.Equal(t, "keep me", e.Title)
	assert.Equal(t, "and me", e.Alt)
	assert.Equal(t, "/x.png", e.Source)
	assert.True(t, e.Geometry.Width.IsAuto())
	assert.Equal(t, DefaultStyle(), e.Style)
	assert.Equal(t, AlignNone, e.Alignment)
}

func TestParseLength(t *testing.T) {
	cases := map[string]Length{
		"":        Auto,
		"auto":    Auto,
		"240px":   Px(240),
		"37.5px":  Px(37.5),
		"100%":    Percent(100),
		"bogus":   Auto,
		" 640px ": Px(640),
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLength(in), in)
	}
}

func TestLengthString(t *testing.T) {
	assert.Equal(t, "auto", Auto.String())
	assert.Equal(t, "240px", Px(240).String())
	assert.Equal(t, "37.5px", Px(37.5).String())
	assert.Equal(t, "100%", Percent(100).String())
}

func TestEntitiesInBlockOrder(t *testing.T) {
	d := sampleDoc()
	ids := []string{}
	for _, e := range d.Entities() {
		ids = append(ids, e.EntityID)
	}
	assert.Equal(t, []string{"ent-img", "ent-embed"}, ids)
}

func TestSerializeEscapesAttributes(t *testing.T) {
	e := NewEntity(KindImage, `/x.png?a=1&b="q"`)
	e.EntityID = "esc"
	d := &Document{Blocks: []Block{EntityBlock(e)}}
	s := d.Serialize()
	assert.False(t, strings.Contains(s, `b="q"`), "raw quotes must not leak into attributes")
	assert.Equal(t, e.Source, Parse(s).FindEntity("esc").Source)
}
