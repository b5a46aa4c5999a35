// Package transform rewrites a chapter's persisted content for export
// targets. Matching is done on a parsed HTML tree, never with regex across
// raw markup: embed cards regularly contain nested elements that greedy
// patterns truncate.
package transform

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Transform is one composable content rewrite. Every transform is idempotent:
// its output contains no marker it would match again.
type Transform interface {
	Apply(content string) string
}

// Chain applies transforms left to right.
func Chain(content string, transforms ...Transform) string {
	for _, t := range transforms {
		content = t.Apply(content)
	}
	return content
}

// parseBody parses content and returns the body element of the repaired
// tree. Returns nil only if the parser produced no body, which does not
// happen for string input.
func parseBody(content string) *html.Node {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	return body
}

// renderBody serializes the body's children back to a markup string.
func renderBody(body *html.Node) string {
	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}

// parseFragment parses markup in body context, returning the top-level nodes.
func parseFragment(markup string) []*html.Node {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil
	}
	return nodes
}

// replaceNode swaps old for the given replacements within old's parent.
func replaceNode(old *html.Node, replacements ...*html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	for _, r := range replacements {
		parent.InsertBefore(r, old)
	}
	parent.RemoveChild(old)
}

// collect gathers nodes matching pred in document order. Matching before
// mutating keeps the walk safe.
func collect(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			out = append(out, n)
			return // matched subtrees are replaced wholesale, don't descend
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func elem(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attribute(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
