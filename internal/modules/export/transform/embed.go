package transform

import (
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bookforge/core/internal/pkg/qrcode"
)

// Embed markers matched by the transform. Editor entity figures carry
// data-bf-entity/data-bf-kind; imported legacy content may carry bare
// div[data-bf-embed] cards with the URL in the marker attribute.
const (
	entityMarker    = "data-bf-entity"
	entityKindAttr  = "data-bf-kind"
	legacyEmbedAttr = "data-bf-embed"
	legacyTitleAttr = "data-bf-title"
)

// EmbedToQR replaces every interactive embed block with a static card:
// title, scannable code image, caption, and the raw URL as plain text. The
// card carries no marker attribute, so applying the transform to already
// transformed content changes nothing.
type EmbedToQR struct {
	QR qrcode.Generator
}

// Apply rewrites all embed blocks in content.
func (t EmbedToQR) Apply(content string) string {
	body := parseBody(content)
	if body == nil {
		return content
	}

	matches := collect(body, isEmbedBlock)
	if len(matches) == 0 {
		return content
	}

	// Code generation is the expensive part and each block is independent,
	// so run it with a bounded goroutine group before touching the tree.
	codes := t.generateCodes(matches)
	for i, n := range matches {
		url, title := embedInfo(n)
		replaceNode(n, t.card(url, title, codes[i]))
	}
	return renderBody(body)
}

const maxConcurrentCodes = 4

func (t EmbedToQR) generateCodes(matches []*html.Node) []string {
	codes := make([]string, len(matches))
	if t.QR == nil {
		return codes
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentCodes)
	for i, n := range matches {
		url, _ := embedInfo(n)
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()
			codes[i] = t.QR.Generate(url)
		}(i, url)
	}
	wg.Wait()
	return codes
}

func isEmbedBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if nodeAttr(n, legacyEmbedAttr) != "" {
		return true
	}
	if n.DataAtom == atom.Figure && nodeAttr(n, entityMarker) != "" {
		kind := nodeAttr(n, entityKindAttr)
		return kind == "embed" || kind == "video"
	}
	return false
}

func embedInfo(n *html.Node) (url, title string) {
	if u := nodeAttr(n, legacyEmbedAttr); u != "" {
		return u, nodeAttr(n, legacyTitleAttr)
	}
	// entity figure: source lives on the inner iframe
	for _, iframe := range collect(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.DataAtom == atom.Iframe
	}) {
		return nodeAttr(iframe, "src"), nodeAttr(iframe, "title")
	}
	return "", nodeAttr(n, legacyTitleAttr)
}

func (t EmbedToQR) card(url, title, code string) *html.Node {
	if title == "" {
		title = "Embedded content"
	}
	card := elem(atom.Div, attribute("class", "embed-card"))

	heading := elem(atom.H4, attribute("class", "embed-card-title"))
	heading.AppendChild(text(title))
	card.AppendChild(heading)

	if code != "" {
		card.AppendChild(elem(atom.Img,
			attribute("class", "embed-card-qr"),
			attribute("src", code),
			attribute("alt", "QR code"),
		))
	}

	caption := elem(atom.P, attribute("class", "embed-card-caption"))
	caption.AppendChild(text("Scan the code to open this content online"))
	card.AppendChild(caption)

	link := elem(atom.P, attribute("class", "embed-card-url"))
	link.AppendChild(text(url))
	card.AppendChild(link)

	return card
}
