// Package colorx holds the RGB value type shared by the renderer, the feed
// clients and the strip drivers, plus the CheerLights palette and the
// perceived-brightness normalization applied to every incoming color.
package colorx

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RGB is a 24-bit color, one byte per channel.
type RGB struct {
	R, G, B uint8
}

// Gray is the fallback for color text we cannot make sense of.
var Gray = RGB{R: 128, G: 128, B: 128}

// Black is the off color.
var Black = RGB{}

// LuminanceTarget is the perceived brightness every rendered color is scaled
// down to. Colors already darker than this are left alone.
const LuminanceTarget = 100

// Hex returns the color as a bare lowercase rrggbb string.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{
		digits[c.R>>4], digits[c.R&0xf],
		digits[c.G>>4], digits[c.G&0xf],
		digits[c.B>>4], digits[c.B&0xf],
	}
	return string(b)
}

// Luminance computes perceived brightness on a 0-255 scale using the
// ITU BT.601 weights.
func (c RGB) Luminance() int {
	return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
}

// Normalize scales a color down so its luminance matches LuminanceTarget.
// Saturated inputs like pure green read much brighter than deep blue on a
// strip; scaling toward a common luminance evens that out. Colors at or
// below the target pass through unchanged, never amplified.
func Normalize(c RGB) RGB {
	lum := c.Luminance()
	if lum <= LuminanceTarget {
		return c
	}
	return RGB{
		R: uint8(int(c.R) * LuminanceTarget / lum),
		G: uint8(int(c.G) * LuminanceTarget / lum),
		B: uint8(int(c.B) * LuminanceTarget / lum),
	}
}

// Blend interpolates between two colors in RGB space, t in [0,1].
func Blend(a, b RGB, t float64) RGB {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	mixed := toColorful(a).BlendRgb(toColorful(b), t).Clamped()
	r, g, bl := mixed.RGB255()
	return RGB{R: r, G: g, B: bl}
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// palette maps the eleven CheerLights color names to their RGB values.
var palette = map[string]RGB{
	"red":       {255, 0, 0},
	"green":     {0, 128, 0},
	"blue":      {0, 0, 255},
	"cyan":      {0, 255, 255},
	"white":     {255, 255, 255},
	"oldlace":   {253, 245, 230},
	"warmwhite": {253, 245, 230},
	"purple":    {128, 0, 128},
	"magenta":   {255, 0, 255},
	"yellow":    {255, 255, 0},
	"orange":    {255, 165, 0},
	"pink":      {255, 192, 203},
}

// Kind tags the outcome of parsing color text.
type Kind int

const (
	// Invalid means the text was neither a known name nor a hex code.
	Invalid Kind = iota
	// Named means the text matched the CheerLights palette.
	Named
	// Hex means the text was a 6-digit hex code.
	Hex
)

// Parsed is the tagged result of Parse. Invalid results carry Gray so
// callers can render them without a second lookup.
type Parsed struct {
	Kind  Kind
	Color RGB
}

// Parse resolves color text to an RGB value. It accepts a palette name or a
// 6-hex-digit code with an optional # prefix; anything else comes back as
// Invalid with the neutral gray fallback.
func Parse(text string) Parsed {
	s := strings.ToLower(strings.TrimSpace(text))
	if c, ok := palette[s]; ok {
		return Parsed{Kind: Named, Color: c}
	}
	if c, err := ParseHex(s); err == nil {
		return Parsed{Kind: Hex, Color: c}
	}
	return Parsed{Kind: Invalid, Color: Gray}
}

// ParseHex decodes a strict 6-hex-digit color code, optionally #-prefixed.
// Shorthand forms like #abc are rejected so a truncated feed payload is
// treated as a failed fetch instead of a wrong color.
func ParseHex(text string) (RGB, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, errors.Errorf("hex color must be 6 digits, got %q", text)
	}
	c, err := colorful.Hex("#" + strings.ToLower(s))
	if err != nil {
		return RGB{}, errors.Wrapf(err, "invalid hex color %q", text)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}
