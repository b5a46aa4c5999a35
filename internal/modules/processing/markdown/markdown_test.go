package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/core/internal/modules/editor/document"
)

func TestImportBasicMarkdown(t *testing.T) {
	html := Import("# Title\n\nSome *emphasis* here.")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<em>emphasis</em>")
}

func TestImportEmpty(t *testing.T) {
	assert.Equal(t, "", Import("   \n  "))
}

func TestImportInlineMath(t *testing.T) {
	html := Import("Energy is $E = mc^2$ always.")
	assert.Contains(t, html, `data-bf-math="E = mc^2"`)
	assert.NotContains(t, html, "$")
}

func TestImportBlockMath(t *testing.T) {
	html := Import("Before\n\n$$\n\\sum_{i=1}^n i\n$$\n\nAfter")
	assert.Contains(t, html, `data-bf-math=`)
	assert.Contains(t, html, `\sum_{i=1}^n i`)
}

func TestImportPromotesImagesToEntities(t *testing.T) {
	html := Import("![a sketch](https://example.com/sketch.png)")
	assert.Contains(t, html, `data-bf-kind="image"`)
	assert.Contains(t, html, `src="https://example.com/sketch.png"`)
	assert.NotContains(t, html, "<p><figure", "figures are unwrapped from paragraphs")

	// the result must be loadable by the editor
	doc := document.Parse(html)
	entities := doc.Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, document.KindImage, entities[0].Kind)
	assert.Equal(t, "https://example.com/sketch.png", entities[0].Source)
	assert.Equal(t, "a sketch", entities[0].Alt)
}

func TestImportEachImageGetsFreshID(t *testing.T) {
	html := Import("![one](https://a.test/1.png)\n\n![two](https://a.test/2.png)")
	doc := document.Parse(html)
	entities := doc.Entities()
	require.Len(t, entities, 2)
	assert.NotEqual(t, entities[0].EntityID, entities[1].EntityID)
}
