package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderValidExpression(t *testing.T) {
	out, err := MathML{}.Render(`x^2 + \frac{a}{b}`)
	require.NoError(t, err)
	assert.Contains(t, out, "<math")
	assert.Contains(t, out, `application/x-tex`)
	assert.Contains(t, out, `\frac{a}{b}`)
}

func TestRenderEscapesMarkup(t *testing.T) {
	out, err := MathML{}.Render(`a < b`)
	require.NoError(t, err)
	assert.NotContains(t, out, "a < b", "raw angle brackets must be escaped")
	assert.Contains(t, out, "a &lt; b")
}

func TestRenderInvalid(t *testing.T) {
	cases := []string{
		``,
		`   `,
		`\frac{a}{`,
		`x}`,
		`{{x}`,
		`\left( x`,
		`trailing\`,
	}
	for _, expr := range cases {
		_, err := MathML{}.Render(expr)
		assert.Error(t, err, "%q should be rejected", expr)
	}
}

func TestEscapedBracesDoNotCount(t *testing.T) {
	_, err := MathML{}.Render(`\{ x \}`)
	assert.NoError(t, err)
}
