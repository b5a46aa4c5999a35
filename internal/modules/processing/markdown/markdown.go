// Package markdown converts imported Markdown into the editor's HTML form:
// math delimiters become equation spans and images become media entity
// figures that the entity controller can manage.
package markdown

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var importEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithXHTML(),
		// the math pre-pass injects spans into the source before conversion
		htmlrenderer.WithUnsafe(),
	),
)

var (
	blockMathPattern  = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	inlineMathPattern = regexp.MustCompile(`\$([^\$\n]+?)\$`)
	imageTagPattern   = regexp.MustCompile(`(?is)<img\s+[^>]*>`)
	imageAttrPattern  = regexp.MustCompile(`([a-zA-Z:_-]+)\s*=\s*"([^"]*)"`)
	imageParaPattern  = regexp.MustCompile(`(?is)<p>\s*(<figure[\s\S]*?</figure>)\s*</p>`)
)

// Import converts Markdown text to editor HTML. Conversion failures fall
// back to the escaped source so nothing the author typed is lost.
func Import(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = replaceBlockMath(text)
	text = replaceInlineMath(text)

	var out bytes.Buffer
	if err := importEngine.Convert([]byte(text), &out); err != nil {
		return "<p>" + template.HTMLEscapeString(text) + "</p>"
	}

	html := out.String()
	html = rewriteImages(html)
	return strings.TrimSpace(html)
}

func replaceBlockMath(text string) string {
	return blockMathPattern.ReplaceAllStringFunc(text, func(raw string) string {
		match := blockMathPattern.FindStringSubmatch(raw)
		if len(match) < 2 {
			return raw
		}
		expr := template.HTMLEscapeString(strings.TrimSpace(match[1]))
		return `<span data-bf-math="` + expr + `">` + expr + `</span>`
	})
}

func replaceInlineMath(text string) string {
	return inlineMathPattern.ReplaceAllStringFunc(text, func(raw string) string {
		match := inlineMathPattern.FindStringSubmatch(raw)
		if len(match) < 2 {
			return raw
		}
		expr := template.HTMLEscapeString(strings.TrimSpace(match[1]))
		return `<span data-bf-math="` + expr + `">` + expr + `</span>`
	})
}

// rewriteImages promotes plain <img> tags into entity figures so imported
// pictures are immediately selectable and resizable.
func rewriteImages(html string) string {
	processed := imageTagPattern.ReplaceAllStringFunc(html, func(tag string) string {
		attrs := parseImageAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		if src == "" {
			return tag
		}
		alt := template.HTMLEscapeString(strings.TrimSpace(attrs["alt"]))
		return `<figure data-bf-entity="` + uuid.NewString() + `" data-bf-kind="image">` +
			`<img src="` + template.HTMLEscapeString(src) + `" alt="` + alt + `"/></figure>`
	})
	return imageParaPattern.ReplaceAllString(processed, "$1")
}

func parseImageAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, item := range imageAttrPattern.FindAllStringSubmatch(tag, -1) {
		if len(item) < 3 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(item[1]))
		if key == "" {
			continue
		}
		attrs[key] = item[2]
	}
	return attrs
}
