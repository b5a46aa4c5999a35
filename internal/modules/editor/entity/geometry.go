package entity

import "github.com/bookforge/core/internal/modules/editor/document"

// Size floors. Shrinking past these clamps silently; nothing ever rejects.
const (
	minWidthGeneric  = 50.0
	minHeightGeneric = 50.0
	minWidthFrame    = 200.0
	minHeightFrame   = 150.0

	// working width when an auto or percent width needs a pixel value
	defaultBaseWidth = 400.0

	keyStep         = 5.0
	gridStep        = 20.0
	duplicateOffset = 20.0
)

// AspectRatio constrains resizing. The zero value of Value() means free.
type AspectRatio string

const (
	RatioFree   AspectRatio = "free"
	RatioWide   AspectRatio = "16:9"
	RatioPhoto  AspectRatio = "4:3"
	RatioSquare AspectRatio = "1:1"
)

// Value returns width/height, or 0 for free.
func (r AspectRatio) Value() float64 {
	switch r {
	case RatioWide:
		return 16.0 / 9.0
	case RatioPhoto:
		return 4.0 / 3.0
	case RatioSquare:
		return 1
	default:
		return 0
	}
}

// SizePreset is a named quick-resize width.
type SizePreset string

const (
	SizeSmall  SizePreset = "small"
	SizeMedium SizePreset = "medium"
	SizeLarge  SizePreset = "large"
	SizeFull   SizePreset = "full"
)

var presetWidths = map[SizePreset]document.Length{
	SizeSmall:  document.Px(200),
	SizeMedium: document.Px(400),
	SizeLarge:  document.Px(600),
	SizeFull:   document.Percent(100),
}

// ScalePresets are the quick-action scale factors offered by the UI.
var ScalePresets = []float64{0.5, 0.75, 0.9, 1.0, 1.25, 1.5, 2.0}

func minWidth(kind document.EntityKind) float64 {
	if kind == document.KindVideo || kind == document.KindEmbed {
		return minWidthFrame
	}
	return minWidthGeneric
}

func minHeight(kind document.EntityKind) float64 {
	if kind == document.KindVideo || kind == document.KindEmbed {
		return minHeightFrame
	}
	return minHeightGeneric
}

func clampWidth(kind document.EntityKind, w float64) float64 {
	if floor := minWidth(kind); w < floor {
		return floor
	}
	return w
}

func clampHeight(kind document.EntityKind, h float64) float64 {
	if floor := minHeight(kind); h < floor {
		return floor
	}
	return h
}

// pxWidthOf materializes a pixel width for resize math. Auto and percent
// widths fall back to the medium preset width.
func pxWidthOf(e *document.MediaEntity) float64 {
	if e.Geometry.Width.IsPx() {
		return e.Geometry.Width.Value
	}
	return defaultBaseWidth
}

// pxHeightOf materializes a pixel height. Auto heights derive from the width
// at 4:3, matching how inserted media renders before any explicit sizing.
func pxHeightOf(e *document.MediaEntity) float64 {
	if e.Geometry.Height.IsPx() {
		return e.Geometry.Height.Value
	}
	return pxWidthOf(e) * 3 / 4
}
