// Package epub assembles an EPUB 3 container from transformed chapter
// markup.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chapter is one already-transformed chapter whose Body is ready to drop
// into an XHTML document.
type Chapter struct {
	Title string
	Body  string
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// Build writes the container: the stored mimetype entry first, then
// META-INF and the OEBPS package documents.
func Build(title, author string, chapters []Chapter) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	// mimetype must be the first entry and must not be compressed
	mt, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, fmt.Errorf("epub mimetype: %w", err)
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		return nil, fmt.Errorf("epub mimetype: %w", err)
	}

	files := []struct {
		name string
		body string
	}{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", packageDocument(title, author, chapters)},
		{"OEBPS/nav.xhtml", navDocument(title, chapters)},
	}
	for i, ch := range chapters {
		files = append(files, struct {
			name string
			body string
		}{chapterPath(i), chapterDocument(ch)})
	}

	for _, f := range files {
		entry, err := w.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("epub entry %s: %w", f.name, err)
		}
		if _, err := entry.Write([]byte(f.body)); err != nil {
			return nil, fmt.Errorf("epub entry %s: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("epub close: %w", err)
	}
	return buf.Bytes(), nil
}

func chapterPath(i int) string {
	return fmt.Sprintf("OEBPS/chapter-%03d.xhtml", i+1)
}

func packageDocument(title, author string, chapters []Chapter) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id">` + "\n")
	b.WriteString("  <metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\">\n")
	fmt.Fprintf(&b, "    <dc:identifier id=\"book-id\">urn:uuid:%s</dc:identifier>\n", uuid.NewString())
	fmt.Fprintf(&b, "    <dc:title>%s</dc:title>\n", html.EscapeString(title))
	if author != "" {
		fmt.Fprintf(&b, "    <dc:creator>%s</dc:creator>\n", html.EscapeString(author))
	}
	b.WriteString("    <dc:language>en</dc:language>\n")
	fmt.Fprintf(&b, "    <meta property=\"dcterms:modified\">%s</meta>\n", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteString("  </metadata>\n  <manifest>\n")
	b.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	for i := range chapters {
		fmt.Fprintf(&b, "    <item id=\"chapter-%03d\" href=\"chapter-%03d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", i+1, i+1)
	}
	b.WriteString("  </manifest>\n  <spine>\n")
	for i := range chapters {
		fmt.Fprintf(&b, "    <itemref idref=\"chapter-%03d\"/>\n", i+1)
	}
	b.WriteString("  </spine>\n</package>\n")
	return b.String()
}

func navDocument(title string, chapters []Chapter) string {
	var b strings.Builder
	b.WriteString(xhtmlHead(title))
	b.WriteString("  <nav epub:type=\"toc\">\n    <h1>Contents</h1>\n    <ol>\n")
	for i, ch := range chapters {
		fmt.Fprintf(&b, "      <li><a href=\"chapter-%03d.xhtml\">%s</a></li>\n", i+1, html.EscapeString(ch.Title))
	}
	b.WriteString("    </ol>\n  </nav>\n</body>\n</html>\n")
	return b.String()
}

func chapterDocument(ch Chapter) string {
	var b strings.Builder
	b.WriteString(xhtmlHead(ch.Title))
	fmt.Fprintf(&b, "  <h1>%s</h1>\n", html.EscapeString(ch.Title))
	b.WriteString(ch.Body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

func xhtmlHead(title string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">` + "\n")
	b.WriteString("<head>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	return b.String()
}
