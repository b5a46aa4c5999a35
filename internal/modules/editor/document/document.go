// Package document implements the chapter content model: an ordered list of
// blocks, each either a flowed rich-text fragment or one atomic media entity.
// The model round-trips through a single HTML string, which is what the
// chapter store persists.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// EntityKind identifies what a media entity renders as.
type EntityKind string

const (
	KindImage EntityKind = "image"
	KindVideo EntityKind = "video"
	KindEmbed EntityKind = "embed"
)

// Shadow is a named drop-shadow preset.
type Shadow string

const (
	ShadowNone   Shadow = "none"
	ShadowSmall  Shadow = "small"
	ShadowMedium Shadow = "medium"
	ShadowLarge  Shadow = "large"
)

// Alignment positions an entity within the text flow. The empty value means
// no alignment override; free x/y positioning and alignment are mutually
// exclusive.
type Alignment string

const (
	AlignNone   Alignment = ""
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Length is a CSS-ish length: a pixel or percent value, or auto when Unit is
// empty.
type Length struct {
	Value float64
	Unit  string // "px", "%", "" = auto
}

// Auto is the unset length.
var Auto = Length{}

// Px returns a pixel length.
func Px(v float64) Length { return Length{Value: v, Unit: "px"} }

// Percent returns a percent length.
func Percent(v float64) Length { return Length{Value: v, Unit: "%"} }

// IsAuto reports whether the length is unset.
func (l Length) IsAuto() bool { return l.Unit == "" }

// IsPx reports whether the length is an absolute pixel value.
func (l Length) IsPx() bool { return l.Unit == "px" }

func (l Length) String() string {
	if l.IsAuto() {
		return "auto"
	}
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit
}

// ParseLength parses "auto", "240px" or "100%". Anything unparseable is auto.
func ParseLength(s string) Length {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "auto" {
		return Auto
	}
	unit := "px"
	num := strings.TrimSuffix(s, "px")
	if strings.HasSuffix(s, "%") {
		unit = "%"
		num = strings.TrimSuffix(s, "%")
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Auto
	}
	return Length{Value: v, Unit: unit}
}

// Geometry holds an entity's size and position. X/Y are only meaningful while
// Free is set; alignment-based layout clears them.
type Geometry struct {
	Width  Length
	Height Length
	X      float64
	Y      float64
	Free   bool
}

// Style holds an entity's visual attributes.
type Style struct {
	Rotation     int // degrees, [-180, 180]
	Opacity      int // percent, [0, 100]
	BorderRadius int // px, [0, 50]
	ZIndex       int // >= 1
	Shadow       Shadow
}

// DefaultStyle is the style of a freshly inserted entity.
func DefaultStyle() Style {
	return Style{Opacity: 100, ZIndex: 1, Shadow: ShadowNone}
}

// MediaEntity is one atomic media object: an image, a video player, or a
// generic embedded frame. An entity always occupies its own block.
type MediaEntity struct {
	EntityID  string
	Kind      EntityKind
	Source    string
	Title     string
	Alt       string
	Geometry  Geometry
	Style     Style
	Alignment Alignment
}

// NewEntity creates an entity with defaults and a fresh id.
func NewEntity(kind EntityKind, source string) *MediaEntity {
	return &MediaEntity{
		EntityID: uuid.NewString(),
		Kind:     kind,
		Source:   source,
		Style:    DefaultStyle(),
	}
}

// Clone returns a deep copy of the entity carrying a new id.
func (e *MediaEntity) Clone() *MediaEntity {
	c := *e
	c.EntityID = uuid.NewString()
	return &c
}

// Reset clears geometry, style and alignment back to insertion defaults,
// keeping source, title and alt.
func (e *MediaEntity) Reset() {
	e.Geometry = Geometry{}
	e.Style = DefaultStyle()
	e.Alignment = AlignNone
}

// Block is one top-level content unit. Entity is nil for text blocks, whose
// markup is kept verbatim in HTML.
type Block struct {
	HTML   string
	Entity *MediaEntity
}

// IsEntity reports whether the block holds a media entity.
func (b Block) IsEntity() bool { return b.Entity != nil }

// TextBlock wraps raw markup into a text block.
func TextBlock(html string) Block { return Block{HTML: html} }

// EntityBlock wraps an entity into a block.
func EntityBlock(e *MediaEntity) Block { return Block{Entity: e} }

// Document is the structured content of one chapter.
type Document struct {
	Blocks []Block
}

// InsertEntity places the entity in its own block at the given index. Indexes
// out of range append.
func (d *Document) InsertEntity(e *MediaEntity, at int) {
	block := EntityBlock(e)
	if at < 0 || at >= len(d.Blocks) {
		d.Blocks = append(d.Blocks, block)
		return
	}
	d.Blocks = append(d.Blocks[:at], append([]Block{block}, d.Blocks[at:]...)...)
}

// RemoveEntity deletes the block holding the entity. Unknown ids are no-ops.
func (d *Document) RemoveEntity(id string) bool {
	for i, b := range d.Blocks {
		if b.IsEntity() && b.Entity.EntityID == id {
			d.Blocks = append(d.Blocks[:i], d.Blocks[i+1:]...)
			return true
		}
	}
	return false
}

// FindEntity returns the entity with the given id, or nil.
func (d *Document) FindEntity(id string) *MediaEntity {
	for _, b := range d.Blocks {
		if b.IsEntity() && b.Entity.EntityID == id {
			return b.Entity
		}
	}
	return nil
}

// IndexOfEntity returns the block index of the entity, or -1.
func (d *Document) IndexOfEntity(id string) int {
	for i, b := range d.Blocks {
		if b.IsEntity() && b.Entity.EntityID == id {
			return i
		}
	}
	return -1
}

// Entities returns all media entities in block order.
func (d *Document) Entities() []*MediaEntity {
	var out []*MediaEntity
	for _, b := range d.Blocks {
		if b.IsEntity() {
			out = append(out, b.Entity)
		}
	}
	return out
}

// Clone returns a deep copy of the document. Entity ids are preserved.
func (d *Document) Clone() *Document {
	c := &Document{Blocks: make([]Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		if b.IsEntity() {
			e := *b.Entity
			c.Blocks[i] = EntityBlock(&e)
		} else {
			c.Blocks[i] = b
		}
	}
	return c
}

func (d *Document) String() string {
	return fmt.Sprintf("document(%d blocks)", len(d.Blocks))
}
