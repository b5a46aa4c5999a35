// Package pipeline composes the per-target transform chains and hands the
// result to the matching renderer.
package pipeline

import (
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/bookforge/core/internal/modules/export/epub"
	"github.com/bookforge/core/internal/modules/export/pdf"
	"github.com/bookforge/core/internal/modules/export/transform"
	mathpkg "github.com/bookforge/core/internal/modules/processing/math"
	"github.com/bookforge/core/internal/pkg/qrcode"
)

type Target string

const (
	TargetPDF   Target = "pdf"
	TargetEPUB  Target = "epub"
	TargetHTML  Target = "html"
	TargetPrint Target = "print"
)

// ParseTarget maps a request parameter onto a known target.
func ParseTarget(raw string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(raw))) {
	case TargetPDF:
		return TargetPDF, nil
	case TargetEPUB:
		return TargetEPUB, nil
	case TargetHTML:
		return TargetHTML, nil
	case TargetPrint:
		return TargetPrint, nil
	}
	return "", fmt.Errorf("unknown export target %q", raw)
}

type Chapter struct {
	Title   string
	Content string
}

type Book struct {
	Title       string
	Author      string
	Description string
	Chapters    []Chapter
}

// Result carries the rendered artifact plus everything a download handler
// needs to serve it.
type Result struct {
	Data        []byte
	Extension   string
	ContentType string
}

type Pipeline struct {
	qr   qrcode.Generator
	math mathpkg.Renderer
	log  *zap.Logger
}

func New(qr qrcode.Generator, math mathpkg.Renderer, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{qr: qr, math: math, log: log}
}

// Export runs the whole chain for one target. Books without chapters are
// rejected before any rendering starts.
func (p *Pipeline) Export(book Book, target Target) (*Result, error) {
	if len(book.Chapters) == 0 {
		return nil, fmt.Errorf("book %q has no chapters to export", book.Title)
	}

	p.log.Info("export started",
		zap.String("book", book.Title),
		zap.String("target", string(target)),
		zap.Int("chapters", len(book.Chapters)))

	switch target {
	case TargetPDF:
		chapters := make([]pdf.Chapter, 0, len(book.Chapters))
		for _, ch := range book.Chapters {
			chapters = append(chapters, pdf.Chapter{
				Title: ch.Title,
				Text:  p.transformChapter(ch.Content, target),
			})
		}
		data, err := pdf.Render(book.Title, book.Author, chapters)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Extension: "pdf", ContentType: "application/pdf"}, nil

	case TargetEPUB:
		chapters := make([]epub.Chapter, 0, len(book.Chapters))
		for _, ch := range book.Chapters {
			chapters = append(chapters, epub.Chapter{
				Title: ch.Title,
				Body:  p.transformChapter(ch.Content, target),
			})
		}
		data, err := epub.Build(book.Title, book.Author, chapters)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Extension: "epub", ContentType: "application/epub+zip"}, nil

	case TargetHTML:
		doc := p.ComposeHTML(book, false)
		return &Result{Data: []byte(doc), Extension: "html", ContentType: "text/html; charset=utf-8"}, nil

	case TargetPrint:
		doc := p.ComposeHTML(book, true)
		return &Result{Data: []byte(doc), Extension: "html", ContentType: "text/html; charset=utf-8"}, nil
	}
	return nil, fmt.Errorf("unknown export target %q", target)
}

// transformChapter picks the chain for the target: every target trades
// interactive embeds for QR cards, PDF additionally flattens to plain text.
// Print reuses the HTML chain unchanged; only its wrapper differs.
func (p *Pipeline) transformChapter(content string, target Target) string {
	if target == TargetPDF {
		return transform.Chain(content,
			transform.EmbedToQR{QR: p.qr},
			transform.MathBlocks{Renderer: p.math, Mode: transform.MathText},
			transform.PlainText{},
		)
	}
	return transform.Chain(content,
		transform.EmbedToQR{QR: p.qr},
		transform.MathBlocks{Renderer: p.math, Mode: transform.MathMarkup},
	)
}

// ComposeHTML assembles a standalone document: cover page, one section per
// chapter, back page. Print mode adds page-break hints between sections.
func (p *Pipeline) ComposeHTML(book Book, print bool) string {
	var b strings.Builder
	b.Grow(8192)

	title := template.HTMLEscapeString(strings.TrimSpace(book.Title))
	target := TargetHTML
	if print {
		target = TargetPrint
	}

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n")
	b.WriteString("  <head>\n")
	b.WriteString("    <meta charset=\"UTF-8\" />\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\" />\n")
	b.WriteString("    <title>")
	b.WriteString(title)
	b.WriteString("</title>\n")
	b.WriteString("    <style>\n")
	b.WriteString(documentStyle)
	if print {
		b.WriteString(printStyle)
	}
	b.WriteString("    </style>\n")
	b.WriteString("  </head>\n\n")
	b.WriteString("  <body>\n")

	// cover
	b.WriteString("    <section class=\"cover-page\">\n")
	b.WriteString("      <h1>")
	b.WriteString(title)
	b.WriteString("</h1>\n")
	if author := strings.TrimSpace(book.Author); author != "" {
		b.WriteString("      <p class=\"author\">")
		b.WriteString(template.HTMLEscapeString(author))
		b.WriteString("</p>\n")
	}
	if desc := strings.TrimSpace(book.Description); desc != "" {
		b.WriteString("      <p class=\"description\">")
		b.WriteString(template.HTMLEscapeString(desc))
		b.WriteString("</p>\n")
	}
	b.WriteString("    </section>\n")

	for _, ch := range book.Chapters {
		b.WriteString("    <section class=\"chapter\">\n")
		b.WriteString("      <h2>")
		b.WriteString(template.HTMLEscapeString(ch.Title))
		b.WriteString("</h2>\n")
		b.WriteString("      ")
		b.WriteString(p.transformChapter(ch.Content, target))
		b.WriteString("\n    </section>\n")
	}

	// back page
	b.WriteString("    <section class=\"back-page\">\n")
	b.WriteString("      <p>")
	b.WriteString(title)
	b.WriteString("</p>\n")
	b.WriteString("    </section>\n")
	b.WriteString("  </body>\n</html>\n")

	return b.String()
}

const documentStyle = `      body { font-family: Georgia, serif; line-height: 1.6; max-width: 46em; margin: 0 auto; padding: 0 1.5em; }
      .cover-page { text-align: center; padding: 6em 0 4em; }
      .cover-page .author { font-size: 1.2em; opacity: 0.8; }
      .chapter { margin: 3em 0; }
      .back-page { text-align: center; padding: 4em 0; opacity: 0.6; }
      .embed-card { border: 1px solid #ccc; border-radius: 8px; padding: 1em; margin: 1.5em 0; text-align: center; }
      .embed-card-url { font-size: 0.85em; word-break: break-all; opacity: 0.7; }
      .math-error { color: #b00; font-family: monospace; }
`

const printStyle = `      .cover-page, .chapter, .back-page { page-break-after: always; }
      figure { page-break-inside: avoid; }
`
