// Package colorutil provides shared color utilities for the markup editor.
package colorutil

import (
	"fmt"
	"image/color"
	"strings"
)

// Common annotation colors offered by the toolbar palette.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 239, G: 68, B: 68, A: 255}
	Green   = color.RGBA{R: 34, G: 197, B: 94, A: 255}
	Blue    = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	Yellow  = color.RGBA{R: 250, G: 204, B: 21, A: 255}
	Magenta = color.RGBA{R: 236, G: 72, B: 153, A: 255}
)

// Selection is the fixed indicator color for selected objects.
var Selection = color.RGBA{R: 59, G: 130, B: 246, A: 255}

// Palette is the ordered set of colors shown as toolbar swatches.
var Palette = []color.RGBA{Red, Yellow, Green, Blue, Magenta, Black, White}

// FormatHex formats a color as a "#rrggbb" string. Alpha is dropped;
// opacity is a property of the render pass, not of the stored color.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses a "#rrggbb" or "#rgb" string into an opaque RGBA color.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}, nil
	case 6:
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
}

// ParseHexOr parses a hex color string, falling back to the given color
// when the string is malformed.
func ParseHexOr(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}
