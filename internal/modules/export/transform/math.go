package transform

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	mathpkg "github.com/bookforge/core/internal/modules/processing/math"
)

// mathMarker carries the literal expression on a math block.
const mathMarker = "data-bf-math"

// MathMode selects the substitution style per export target.
type MathMode int

const (
	// MathMarkup typesets expressions (HTML/EPUB targets).
	MathMarkup MathMode = iota
	// MathText substitutes a bracketed literal placeholder (PDF text).
	MathText
)

// MathBlocks rewrites every math block. A failed render replaces only that
// block with a visibly flagged error placeholder carrying the original
// expression; the rest of the document is untouched.
type MathBlocks struct {
	Renderer mathpkg.Renderer
	Mode     MathMode
}

// Apply rewrites all math blocks in content.
func (t MathBlocks) Apply(content string) string {
	body := parseBody(content)
	if body == nil {
		return content
	}

	matches := collect(body, func(n *html.Node) bool {
		return n.Type == html.ElementNode && nodeAttr(n, mathMarker) != ""
	})
	if len(matches) == 0 {
		return content
	}

	for _, n := range matches {
		expr := nodeAttr(n, mathMarker)
		if expr == "" {
			expr = textContent(n)
		}
		replaceNode(n, t.substitute(expr)...)
	}
	return renderBody(body)
}

func (t MathBlocks) substitute(expr string) []*html.Node {
	if t.Mode == MathText {
		return []*html.Node{text("[EQUATION: " + expr + "]")}
	}

	renderer := t.Renderer
	if renderer == nil {
		renderer = mathpkg.MathML{}
	}
	markup, err := renderer.Render(expr)
	if err != nil {
		span := elem(atom.Span, attribute("class", "math-error"))
		span.AppendChild(text("[MATH ERROR: " + expr + "]"))
		return []*html.Node{span}
	}
	if nodes := parseFragment(markup); nodes != nil {
		return nodes
	}
	return []*html.Node{text("[EQUATION: " + expr + "]")}
}
