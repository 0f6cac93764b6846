package colorx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamed(t *testing.T) {
	p := Parse("red")
	assert.Equal(t, Named, p.Kind)
	assert.Equal(t, RGB{255, 0, 0}, p.Color)

	p = Parse("  Magenta ")
	assert.Equal(t, Named, p.Kind)
	assert.Equal(t, RGB{255, 0, 255}, p.Color)
}

func TestParseHexForms(t *testing.T) {
	for _, text := range []string{"00ff00", "#00ff00", "#00FF00"} {
		p := Parse(text)
		assert.Equal(t, Hex, p.Kind, text)
		assert.Equal(t, RGB{0, 255, 0}, p.Color, text)
	}
}

func TestParseInvalidFallsBackToGray(t *testing.T) {
	for _, text := range []string{"", "chartreuse", "#abc", "12345", "1234567", "zzzzzz"} {
		p := Parse(text)
		assert.Equal(t, Invalid, p.Kind, text)
		assert.Equal(t, Gray, p.Color, text)
	}
}

func TestParseHexStrictLength(t *testing.T) {
	_, err := ParseHex("#abc")
	require.Error(t, err)
	_, err = ParseHex("aabbccdd")
	require.Error(t, err)

	c, err := ParseHex("#336699")
	require.NoError(t, err)
	assert.Equal(t, RGB{0x33, 0x66, 0x99}, c)
}

func TestNormalizeScalesDownOnly(t *testing.T) {
	// Pure red sits below the target already.
	red := RGB{255, 0, 0}
	assert.Equal(t, red, Normalize(red))

	// Pure green is well above the target and must come down to it.
	green := Normalize(RGB{0, 255, 0})
	assert.Less(t, int(green.G), 255)
	assert.LessOrEqual(t, green.Luminance(), LuminanceTarget)
}

func TestNormalizeNeverIncreasesLuminance(t *testing.T) {
	inputs := []RGB{
		{0, 0, 0}, {255, 255, 255}, {0, 255, 0}, {10, 20, 30},
		{255, 165, 0}, {253, 245, 230}, {128, 0, 128}, {1, 1, 1},
	}
	for _, in := range inputs {
		out := Normalize(in)
		assert.LessOrEqual(t, out.Luminance(), in.Luminance(), "input %+v", in)
		if in.Luminance() > LuminanceTarget {
			// Integer truncation can land a point or two under the target,
			// but never above it.
			assert.InDelta(t, LuminanceTarget, out.Luminance(), 3, "input %+v", in)
		} else {
			assert.Equal(t, in, out)
		}
	}
}

func TestHex(t *testing.T) {
	assert.Equal(t, "ff00c8", RGB{255, 0, 200}.Hex())
	assert.Equal(t, "000000", Black.Hex())
}

func TestBlendEndpoints(t *testing.T) {
	a := RGB{10, 20, 30}
	b := RGB{200, 100, 0}
	assert.Equal(t, a, Blend(a, b, 0))
	assert.Equal(t, b, Blend(a, b, 1))

	mid := Blend(Black, RGB{255, 255, 255}, 0.5)
	assert.Greater(t, int(mid.R), 0)
	assert.Less(t, int(mid.R), 255)
}
