// Package math typesets math expressions for export. The Renderer interface
// is the swappable collaborator boundary; the default implementation
// validates TeX-style input and emits MathML that carries the original
// expression as an annotation, which readers with math support typeset and
// everything else shows as text.
package math

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Renderer typesets one expression into markup. Invalid syntax errors; it
// never writes partial output.
type Renderer interface {
	Render(expression string) (string, error)
}

// MathML is the built-in renderer.
type MathML struct{}

// Render validates the expression and wraps it in a MathML element.
func (MathML) Render(expression string) (string, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return "", fmt.Errorf("empty expression")
	}
	if err := validate(expr); err != nil {
		return "", err
	}
	escaped := html.EscapeString(expr)
	return `<math display="block"><semantics><mtext>` + escaped +
		`</mtext><annotation encoding="application/x-tex">` + escaped +
		`</annotation></semantics></math>`, nil
}

// validate rejects structurally broken TeX: unbalanced braces or groups and
// dangling commands.
func validate(expr string) error {
	depth := 0
	escaped := false
	for _, r := range expr {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced closing brace")
			}
		}
	}
	if escaped {
		return fmt.Errorf("dangling escape at end of expression")
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced braces: %d unclosed", depth)
	}
	if n := strings.Count(expr, "\\left") - strings.Count(expr, "\\right"); n != 0 {
		return fmt.Errorf("unbalanced \\left/\\right pairs")
	}
	return nil
}
