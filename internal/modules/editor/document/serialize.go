package document

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Attribute names used in the canonical entity markup. Order matters: Parse
// and Serialize agree on it so serialized documents are stable byte-for-byte.
const (
	attrEntity   = "data-bf-entity"
	attrKind     = "data-bf-kind"
	attrWidth    = "data-bf-width"
	attrHeight   = "data-bf-height"
	attrX        = "data-bf-x"
	attrY        = "data-bf-y"
	attrRotation = "data-bf-rotation"
	attrOpacity  = "data-bf-opacity"
	attrRadius   = "data-bf-radius"
	attrZ        = "data-bf-z"
	attrShadow   = "data-bf-shadow"
	attrAlign    = "data-bf-align"
)

// Serialize renders the document to its canonical HTML string. The output is
// a fixed point of Parse: Parse(d.Serialize()).Serialize() == d.Serialize().
func (d *Document) Serialize() string {
	var b strings.Builder
	for _, blk := range d.Blocks {
		if blk.IsEntity() {
			writeEntity(&b, blk.Entity)
		} else {
			b.WriteString(blk.HTML)
		}
	}
	return b.String()
}

func writeEntity(b *strings.Builder, e *MediaEntity) {
	b.WriteString("<figure")
	writeAttr(b, attrEntity, e.EntityID)
	writeAttr(b, attrKind, string(e.Kind))
	if !e.Geometry.Width.IsAuto() {
		writeAttr(b, attrWidth, e.Geometry.Width.String())
	}
	if !e.Geometry.Height.IsAuto() {
		writeAttr(b, attrHeight, e.Geometry.Height.String())
	}
	if e.Geometry.Free {
		writeAttr(b, attrX, formatFloat(e.Geometry.X))
		writeAttr(b, attrY, formatFloat(e.Geometry.Y))
	}
	if e.Style.Rotation != 0 {
		writeAttr(b, attrRotation, strconv.Itoa(e.Style.Rotation))
	}
	if e.Style.Opacity != 100 {
		writeAttr(b, attrOpacity, strconv.Itoa(e.Style.Opacity))
	}
	if e.Style.BorderRadius != 0 {
		writeAttr(b, attrRadius, strconv.Itoa(e.Style.BorderRadius))
	}
	if e.Style.ZIndex > 1 {
		writeAttr(b, attrZ, strconv.Itoa(e.Style.ZIndex))
	}
	if e.Style.Shadow != "" && e.Style.Shadow != ShadowNone {
		writeAttr(b, attrShadow, string(e.Style.Shadow))
	}
	if e.Alignment != AlignNone {
		writeAttr(b, attrAlign, string(e.Alignment))
	}
	b.WriteString(">")

	switch e.Kind {
	case KindImage:
		b.WriteString("<img")
		writeAttr(b, "src", e.Source)
		if e.Alt != "" {
			writeAttr(b, "alt", e.Alt)
		}
		if e.Title != "" {
			writeAttr(b, "title", e.Title)
		}
		b.WriteString("/>")
	default: // video and embed render as iframes
		b.WriteString("<iframe")
		writeAttr(b, "src", e.Source)
		if e.Title != "" {
			writeAttr(b, "title", e.Title)
		}
		b.WriteString(` allowfullscreen=""></iframe>`)
	}

	b.WriteString("</figure>")
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteString(`"`)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
