package render

import (
	"image/color"
	"strconv"
	"strings"
)

// DefaultInk is used when a stroke or text color cannot be parsed.
var DefaultInk = color.NRGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}

// ParseColor reads a CSS hex color (#rgb, #rgba, #rrggbb or #rrggbbaa).
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3, 4:
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		s = b.String()
	case 6, 8:
	default:
		return color.NRGBA{}, false
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func resolveColor(s string, fallback color.Color) color.Color {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return fallback
}
