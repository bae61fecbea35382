// Package color packs 8-bit RGBA colors into the 32-bit layouts used by
// terminal and canvas renderers.
package color

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit-per-channel color with alpha.
type Color struct {
	R, G, B, A uint8
}

// Opaque returns c with full alpha.
func (c Color) Opaque() Color {
	c.A = 0xff
	return c
}

// ARGB packs c as 0xAARRGGBB.
func (c Color) ARGB() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// RGBA packs c as 0xRRGGBBAA.
func (c Color) RGBA() uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// Hex returns c as "#rrggbb", dropping alpha.
func (c Color) Hex() string {
	return c.Colorful().Hex()
}

// Colorful converts c to a go-colorful color, dropping alpha.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
}

// FromHex parses "#rrggbb" or "#rgb" and sets alpha.
func FromHex(s string, alpha uint8) (Color, error) {
	cc, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return FromColorful(cc, alpha), nil
}

// FromColorful converts a go-colorful color, clamping out-of-gamut channels.
func FromColorful(cc colorful.Color, alpha uint8) Color {
	r, g, b := cc.Clamped().RGB255()
	return Color{R: r, G: g, B: b, A: alpha}
}
