// Package pdf renders a book's transformed plain-text chapters into a PDF
// file.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Chapter is one already-transformed chapter: markup stripped, embeds
// replaced by card text, math replaced by equation placeholders.
type Chapter struct {
	Title string
	Text  string
}

// Render produces the PDF bytes: a title page followed by one section per
// chapter.
func Render(title, author string, chapters []Chapter) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetAuthor(author, true)
	doc.SetMargins(20, 25, 20)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	// title page
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 28)
	doc.Ln(60)
	doc.MultiCell(0, 14, tr(title), "", "C", false)
	if author != "" {
		doc.SetFont("Helvetica", "", 16)
		doc.Ln(8)
		doc.MultiCell(0, 10, tr(author), "", "C", false)
	}

	for _, ch := range chapters {
		doc.AddPage()
		doc.SetFont("Helvetica", "B", 18)
		doc.MultiCell(0, 10, tr(ch.Title), "", "L", false)
		doc.Ln(4)
		doc.SetFont("Helvetica", "", 12)
		for _, para := range strings.Split(ch.Text, "\n") {
			if strings.TrimSpace(para) == "" {
				doc.Ln(4)
				continue
			}
			doc.MultiCell(0, 6, tr(para), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
