package pipeline

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mathpkg "github.com/bookforge/core/internal/modules/processing/math"
)

type stubQR struct{}

func (stubQR) Generate(text string) string { return "data:image/png;base64,stub" }

func testPipeline() *Pipeline {
	return New(stubQR{}, mathpkg.MathML{}, nil)
}

func testBook() Book {
	return Book{
		Title:  "Field Notes",
		Author: "R. Calder",
		Chapters: []Chapter{
			{Title: "Origins", Content: `<p>It began in water.</p><span data-bf-math="x^2">x^2</span>`},
			{Title: "Machines", Content: `<figure data-bf-entity="e1" data-bf-kind="embed"><iframe src="https://example.com/sim" title="Simulator" allowfullscreen=""></iframe></figure>`},
		},
	}
}

func TestParseTarget(t *testing.T) {
	for _, raw := range []string{"pdf", "EPUB", " html ", "print"} {
		target, err := ParseTarget(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Target(strings.ToLower(strings.TrimSpace(raw))), target)
	}
	_, err := ParseTarget("docx")
	assert.Error(t, err)
}

func TestExportRejectsEmptyBook(t *testing.T) {
	_, err := testPipeline().Export(Book{Title: "Empty"}, TargetPDF)
	assert.Error(t, err)
}

func TestExportHTMLReplacesEmbedsWithCards(t *testing.T) {
	result, err := testPipeline().Export(testBook(), TargetHTML)
	require.NoError(t, err)

	doc := string(result.Data)
	assert.Contains(t, doc, "<h1>Field Notes</h1>")
	assert.Contains(t, doc, "R. Calder")
	assert.Contains(t, doc, "<h2>Origins</h2>")
	assert.Contains(t, doc, "<h2>Machines</h2>")
	assert.NotContains(t, doc, "<iframe", "no interactive embeds survive export")
	assert.Contains(t, doc, `class="embed-card"`)
	assert.Contains(t, doc, "embed-card-qr")
	assert.Contains(t, doc, "https://example.com/sim", "raw URL stays readable on the card")
	assert.Contains(t, doc, "<math", "math renders to markup for the web")
	assert.Equal(t, "html", result.Extension)
}

func TestExportHTMLAndPrintShareContentTransforms(t *testing.T) {
	p := testPipeline()
	book := testBook()

	web, err := p.Export(book, TargetHTML)
	require.NoError(t, err)
	paged, err := p.Export(book, TargetPrint)
	require.NoError(t, err)

	// Only the wrapper differs between the two targets.
	webChapter := sectionBetween(t, string(web.Data), "<h2>Machines</h2>", "</section>")
	pagedChapter := sectionBetween(t, string(paged.Data), "<h2>Machines</h2>", "</section>")
	assert.Equal(t, webChapter, pagedChapter)
	assert.NotContains(t, string(web.Data), "page-break-after")
	assert.Contains(t, string(paged.Data), "page-break-after")
}

func sectionBetween(t *testing.T, doc, from, to string) string {
	t.Helper()
	start := strings.Index(doc, from)
	require.GreaterOrEqual(t, start, 0)
	rest := doc[start:]
	end := strings.Index(rest, to)
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestExportPrintReplacesEmbedsAndBreaksPages(t *testing.T) {
	result, err := testPipeline().Export(testBook(), TargetPrint)
	require.NoError(t, err)

	doc := string(result.Data)
	assert.Contains(t, doc, "page-break-after")
	assert.Contains(t, doc, `class="embed-card"`)
	assert.Contains(t, doc, "https://example.com/sim")
	assert.NotContains(t, doc, "<iframe")
}

func TestExportPDFProducesDocument(t *testing.T) {
	result, err := testPipeline().Export(testBook(), TargetPDF)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
	assert.Equal(t, "pdf", result.Extension)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestExportEPUBContainerLayout(t *testing.T) {
	result, err := testPipeline().Export(testBook(), TargetEPUB)
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(result.Data), int64(len(result.Data)))
	require.NoError(t, err)
	require.NotEmpty(t, r.File)

	first := r.File[0]
	assert.Equal(t, "mimetype", first.Name)
	assert.Equal(t, zip.Store, first.Method, "mimetype entry must not be compressed")

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	assert.True(t, names["META-INF/container.xml"])
	assert.True(t, names["OEBPS/content.opf"])
	assert.True(t, names["OEBPS/nav.xhtml"])
	assert.True(t, names["OEBPS/chapter-001.xhtml"])
	assert.True(t, names["OEBPS/chapter-002.xhtml"])

	body := readZipEntry(t, r, "OEBPS/chapter-002.xhtml")
	assert.Contains(t, body, "<h1>Machines</h1>")
	assert.Contains(t, body, `class="embed-card"`, "paged formats trade embeds for cards")

	opf := readZipEntry(t, r, "OEBPS/content.opf")
	assert.Contains(t, opf, "<dc:title>Field Notes</dc:title>")
	assert.Contains(t, opf, "<dc:creator>R. Calder</dc:creator>")
}

func TestExportSurvivesInvalidMath(t *testing.T) {
	book := Book{
		Title: "Broken",
		Chapters: []Chapter{
			{Title: "One", Content: `<span data-bf-math="\frac{a}{">\frac{a}{</span><p>after</p>`},
		},
	}
	result, err := testPipeline().Export(book, TargetHTML)
	require.NoError(t, err)

	doc := string(result.Data)
	assert.Contains(t, doc, "math-error")
	assert.Contains(t, doc, "<p>after</p>", "content around a failed equation survives")
}

func readZipEntry(t *testing.T, r *zip.Reader, name string) string {
	t.Helper()
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}
