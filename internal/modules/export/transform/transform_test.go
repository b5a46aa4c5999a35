package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQR is a deterministic code generator for tests.
type stubQR struct{ fail bool }

func (s stubQR) Generate(text string) string {
	if s.fail {
		return ""
	}
	return "data:image/png;base64,QR(" + text + ")"
}

const embedFigure = `<figure data-bf-entity="e1" data-bf-kind="embed" data-bf-width="480px">` +
	`<iframe src="https://example.com/widget" title="My Widget" allowfullscreen=""></iframe></figure>`

func TestEmbedToQRBuildsCard(t *testing.T) {
	out := EmbedToQR{QR: stubQR{}}.Apply(embedFigure)

	assert.NotContains(t, out, "iframe")
	assert.NotContains(t, out, "data-bf-entity")
	assert.Contains(t, out, `class="embed-card"`)
	assert.Contains(t, out, "My Widget")
	assert.Contains(t, out, "QR(https://example.com/widget)")
	assert.Contains(t, out, "https://example.com/widget</p>", "raw URL survives as plain text")
}

func TestEmbedToQRIdempotent(t *testing.T) {
	tr := EmbedToQR{QR: stubQR{}}
	once := tr.Apply(embedFigure)
	twice := tr.Apply(once)
	assert.Equal(t, once, twice, "no double wrapping on already transformed content")
}

func TestEmbedToQRHandlesNestedMarkup(t *testing.T) {
	// the card content contains nested divs that greedy matching truncates
	content := `<div data-bf-embed="https://a.test/x" data-bf-title="Nested">` +
		`<div class="inner"><div>deep</div></div></div><p>after</p>`
	out := EmbedToQR{QR: stubQR{}}.Apply(content)
	assert.Contains(t, out, "<p>after</p>", "surrounding content must not be truncated")
	assert.Contains(t, out, "Nested")
	assert.Equal(t, 1, strings.Count(out, `class="embed-card"`))
}

func TestEmbedToQRVideoEntities(t *testing.T) {
	content := `<figure data-bf-entity="v1" data-bf-kind="video">` +
		`<iframe src="https://www.youtube.com/embed/abc" title="Clip"></iframe></figure>`
	out := EmbedToQR{QR: stubQR{}}.Apply(content)
	assert.Contains(t, out, "QR(https://www.youtube.com/embed/abc)")
}

func TestEmbedToQRLeavesImagesAlone(t *testing.T) {
	content := `<figure data-bf-entity="i1" data-bf-kind="image"><img src="/a.png"/></figure>`
	assert.Equal(t, content, EmbedToQR{QR: stubQR{}}.Apply(content))
}

func TestEmbedToQRGeneratorFailure(t *testing.T) {
	out := EmbedToQR{QR: stubQR{fail: true}}.Apply(embedFigure)
	assert.Contains(t, out, `class="embed-card"`, "card still emitted without the image")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "https://example.com/widget")
}

func TestMathMarkupMode(t *testing.T) {
	content := `<p>before</p><span data-bf-math="x^2"></span><p>after</p>`
	out := MathBlocks{Mode: MathMarkup}.Apply(content)
	assert.Contains(t, out, "<math")
	assert.Contains(t, out, "x^2")
	assert.NotContains(t, out, mathMarker)
}

func TestMathTextMode(t *testing.T) {
	content := `<span data-bf-math="E = mc^2"></span>`
	out := MathBlocks{Mode: MathText}.Apply(content)
	assert.Contains(t, out, "[EQUATION: E = mc^2]")
	assert.NotContains(t, out, "<span")
}

func TestMathRenderFailureIsolated(t *testing.T) {
	content := `<span data-bf-math="x^2"></span><span data-bf-math="\frac{a}{"></span>`
	out := MathBlocks{Mode: MathMarkup}.Apply(content)

	assert.Contains(t, out, "<math", "valid block renders")
	assert.Contains(t, out, `class="math-error"`, "invalid block is flagged, not dropped")
	assert.Contains(t, out, `\frac{a}{`, "original expression preserved in the placeholder")
}

func TestMathIdempotent(t *testing.T) {
	tr := MathBlocks{Mode: MathMarkup}
	once := tr.Apply(`<span data-bf-math="x^2"></span>`)
	assert.Equal(t, once, tr.Apply(once))
}

func TestChainEmbedThenMath(t *testing.T) {
	content := embedFigure + `<span data-bf-math="y=x"></span>`
	out := Chain(content, EmbedToQR{QR: stubQR{}}, MathBlocks{Mode: MathMarkup})
	assert.Contains(t, out, `class="embed-card"`)
	assert.Contains(t, out, "<math")
}

func TestPlainTextKeepsCardCaptionAndEquations(t *testing.T) {
	content := embedFigure + `<p>Body text.</p><span data-bf-math="a+b"></span>`
	out := Chain(content, EmbedToQR{QR: stubQR{}}, MathBlocks{Mode: MathText}, PlainText{})

	assert.NotContains(t, out, "<")
	assert.Contains(t, out, "My Widget")
	assert.Contains(t, out, "https://example.com/widget")
	assert.Contains(t, out, "Body text.")
	assert.Contains(t, out, "[EQUATION: a+b]")
}

func TestPlainTextParagraphBreaks(t *testing.T) {
	out := PlainText{}.Apply("<p>one</p><p>two</p>")
	require.Equal(t, "one\ntwo", out)
}

func TestTransformsTolerateMalformedContent(t *testing.T) {
	inputs := []string{"", "<p>unclosed", "<figure data-bf-entity='x'>", "&&&"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			EmbedToQR{QR: stubQR{}}.Apply(in)
			MathBlocks{}.Apply(in)
			PlainText{}.Apply(in)
		}, in)
	}
}
