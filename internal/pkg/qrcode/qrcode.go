// Package qrcode generates scannable code images for the export pipeline's
// embed-to-static transform.
package qrcode

import (
	"encoding/base64"

	qr "github.com/skip2/go-qrcode"
)

// Generator produces a data-URL image encoding the given text. A failed
// generation returns "" so callers can fall back, never an error the caller
// has to handle mid-transform.
type Generator interface {
	Generate(text string) string
}

// PNG is the default generator: a 256px PNG QR code.
type PNG struct {
	Size int
}

// Generate encodes text into a base64 PNG data URL.
func (g PNG) Generate(text string) string {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	png, err := qr.Encode(text, qr.Medium, size)
	if err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
