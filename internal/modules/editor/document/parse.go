package document

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Parse builds a document from serialized chapter content. Parsing never
// fails: malformed markup is repaired by the HTML parser and anything that is
// not a recognized entity figure is kept as an opaque text block, rendered
// back verbatim by Serialize.
func Parse(content string) *Document {
	doc := &Document{}
	if strings.TrimSpace(content) == "" {
		return doc
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// html.Parse only errors on reader failures, which a strings.Reader
		// cannot produce. Keep the raw content rather than dropping it.
		doc.Blocks = append(doc.Blocks, TextBlock(content))
		return doc
	}

	body := findBody(root)
	if body == nil {
		doc.Blocks = append(doc.Blocks, TextBlock(content))
		return doc
	}

	for n := body.FirstChild; n != nil; n = n.NextSibling {
		switch {
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) == "":
			// inter-block whitespace
		case isEntityFigure(n):
			doc.Blocks = append(doc.Blocks, EntityBlock(parseEntity(n)))
		default:
			doc.Blocks = append(doc.Blocks, TextBlock(renderNode(n)))
		}
	}
	return doc
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func isEntityFigure(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "figure" && attr(n, attrEntity) != ""
}

func parseEntity(n *html.Node) *MediaEntity {
	e := &MediaEntity{
		EntityID: attr(n, attrEntity),
		Kind:     EntityKind(attr(n, attrKind)),
		Style:    DefaultStyle(),
	}

	e.Geometry.Width = ParseLength(attr(n, attrWidth))
	e.Geometry.Height = ParseLength(attr(n, attrHeight))
	if xs, ys := attr(n, attrX), attr(n, attrY); xs != "" || ys != "" {
		e.Geometry.Free = true
		e.Geometry.X = parseFloatOr(xs, 0)
		e.Geometry.Y = parseFloatOr(ys, 0)
	}
	if v := attr(n, attrRotation); v != "" {
		e.Style.Rotation = parseIntOr(v, 0)
	}
	if v := attr(n, attrOpacity); v != "" {
		e.Style.Opacity = parseIntOr(v, 100)
	}
	if v := attr(n, attrRadius); v != "" {
		e.Style.BorderRadius = parseIntOr(v, 0)
	}
	if v := attr(n, attrZ); v != "" {
		if z := parseIntOr(v, 1); z > 1 {
			e.Style.ZIndex = z
		}
	}
	if v := Shadow(attr(n, attrShadow)); v == ShadowSmall || v == ShadowMedium || v == ShadowLarge {
		e.Style.Shadow = v
	}
	if v := Alignment(attr(n, attrAlign)); v == AlignLeft || v == AlignCenter || v == AlignRight {
		e.Alignment = v
	}

	if media := findMediaChild(n); media != nil {
		e.Source = attr(media, "src")
		e.Title = attr(media, "title")
		if media.Data == "img" {
			e.Alt = attr(media, "alt")
			if e.Kind == "" {
				e.Kind = KindImage
			}
		} else if e.Kind == "" {
			e.Kind = KindEmbed
		}
	}
	if e.Kind != KindImage && e.Kind != KindVideo && e.Kind != KindEmbed {
		e.Kind = KindEmbed
	}
	return e
}

func findMediaChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "img" || c.Data == "iframe") {
			return c
		}
		if found := findMediaChild(c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func renderNode(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}
