package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hauslicht/cheerstrip/internal/colorx"
)

var (
	red   = colorx.RGB{R: 255}
	green = colorx.RGB{G: 128}
	blue  = colorx.RGB{B: 255}
)

func testConfig() Config {
	return Config{
		LEDCount:       5,
		Mode:           ModeUniform,
		AutoBrightness: true,
		BrightnessMin:  10,
		BrightnessMax:  80,
		SensorDark:     500,
		SensorBright:   3000,
	}
}

func newAt(cfg Config) (*Controller, time.Time) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return New(cfg, now), now
}

func TestUniformRendersAmbientEverywhere(t *testing.T) {
	c, now := newAt(testConfig())
	c.SetAmbient(red, now)

	frame := c.Render()
	require.Len(t, frame, 5)
	for i, px := range frame {
		assert.Equal(t, red, px, "pixel %d", i)
	}
}

func TestRenderBoundsAllAccentCombinations(t *testing.T) {
	for _, leadOn := range []bool{false, true} {
		for _, trailOn := range []bool{false, true} {
			for _, n := range []int{2, 3, 5, 60, 300} {
				cfg := testConfig()
				cfg.LEDCount = n
				cfg.Mode = ModeShiftAlong
				cfg.LeadingAccent = leadOn
				cfg.TrailingAccent = trailOn

				c, now := newAt(cfg)
				c.SetAmbient(red, now)
				c.SetAmbient(green, now.Add(time.Second))

				frame := c.Render()
				assert.Len(t, frame, n, "n=%d lead=%v trail=%v", n, leadOn, trailOn)
			}
		}
	}
}

func TestAccentPixelsWinRegardlessOfMode(t *testing.T) {
	scaledGreen := colorx.Normalize(colorx.RGB{G: 255})

	for _, mode := range []Mode{ModeUniform, ModeShiftAlong, ModeShiftAutoDuplicate} {
		cfg := testConfig()
		cfg.Mode = mode
		cfg.LeadingAccent = true
		cfg.TrailingAccent = true

		c, now := newAt(cfg)
		c.SetAmbient(red, now)
		c.SetAccent(Leading, scaledGreen, now)
		c.SetAccent(Trailing, blue, now)

		frame := c.Render()
		assert.Equal(t, scaledGreen, frame[0], "mode %v", mode)
		assert.Equal(t, blue, frame[4], "mode %v", mode)
		for i := 1; i < 4; i++ {
			assert.NotEqual(t, scaledGreen, frame[i], "mode %v pixel %d", mode, i)
		}
	}
}

func TestShiftAlongHistoryOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeShiftAlong

	c, now := newAt(cfg)
	// Entering history state at construction leaves gray; the first red
	// fetch shifts, then re-enter the mode to get a uniformly red history.
	c.SetAmbient(red, now)
	c.initHistory(red, now)

	c.SetAmbient(green, now.Add(10*time.Second))
	c.SetAmbient(blue, now.Add(20*time.Second))

	frame := c.Render()
	assert.Equal(t, []colorx.RGB{blue, green, red, red, red}, frame)
}

func TestShiftIsOrderPreserving(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeShiftAlong
	c, now := newAt(cfg)
	c.SetAmbient(red, now)

	before := make([]colorx.RGB, len(c.history))
	copy(before, c.history[:])

	c.SetAmbient(green, now.Add(time.Second))

	assert.Equal(t, green, c.history[0])
	for i := 0; i < c.eligibleCount()-1; i++ {
		assert.Equal(t, before[i], c.history[i+1], "slot %d", i+1)
	}
}

func TestRepeatedAmbientColorDoesNotShift(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeShiftAlong
	c, now := newAt(cfg)
	c.SetAmbient(red, now)

	snapshot := c.history
	c.SetAmbient(red, now.Add(time.Minute))
	assert.Equal(t, snapshot, c.history)
}

func TestModeSwitchReinitializesHistory(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeShiftAlong
	c, now := newAt(cfg)
	c.SetAmbient(red, now)
	c.SetAmbient(green, now.Add(time.Second))
	c.SetAmbient(blue, now.Add(2*time.Second))

	// shift -> shift-autodup: residual history must not survive.
	mode := c.AdvanceMode(now.Add(3 * time.Second))
	require.Equal(t, ModeShiftAutoDuplicate, mode)

	frame := c.Render()
	for i, px := range frame {
		assert.Equal(t, blue, px, "pixel %d", i)
	}
}

func TestModeCyclesAndWraps(t *testing.T) {
	c, now := newAt(testConfig())
	assert.Equal(t, ModeShiftAlong, c.AdvanceMode(now))
	assert.Equal(t, ModeShiftAutoDuplicate, c.AdvanceMode(now))
	assert.Equal(t, ModeUniform, c.AdvanceMode(now))
}

func TestAutoDuplicateFiresOnceAfterQuietPeriod(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeShiftAutoDuplicate
	c, now := newAt(cfg)
	c.SetAmbient(red, now)
	c.initHistory(red, now)
	c.SetAmbient(green, now.Add(time.Second))

	// Not yet quiet long enough.
	assert.False(t, c.MaybeAutoDuplicate(now.Add(time.Second+AutoDuplicateAfter)))

	fireAt := now.Add(time.Second + AutoDuplicateAfter + time.Minute)
	assert.True(t, c.MaybeAutoDuplicate(fireAt))
	assert.Equal(t, []colorx.RGB{green, green, red, red, red}, c.Render())

	// The shift reset the clock; an immediate second check stays quiet.
	assert.False(t, c.MaybeAutoDuplicate(fireAt.Add(time.Second)))
}

func TestAutoDuplicateOnlyInAutoDuplicateMode(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeShiftAlong
	c, now := newAt(cfg)
	c.SetAmbient(red, now)

	assert.False(t, c.MaybeAutoDuplicate(now.Add(2*AutoDuplicateAfter)))
}

func TestHistoryFallbackWhenAccentDisablesMidway(t *testing.T) {
	// With only two pixels and both accents on there are no ambient pixels;
	// rendering must still produce a full frame with no panic.
	cfg := testConfig()
	cfg.LEDCount = 2
	cfg.Mode = ModeShiftAlong
	cfg.LeadingAccent = true
	cfg.TrailingAccent = true

	c, now := newAt(cfg)
	c.SetAmbient(red, now)
	c.SetAccent(Leading, green, now)
	c.SetAccent(Trailing, blue, now)

	frame := c.Render()
	assert.Equal(t, []colorx.RGB{green, blue}, frame)
}

func TestBrightnessHysteresisEdge(t *testing.T) {
	c, _ := newAt(testConfig())
	c.bright.target = 40

	// 500..3000 maps to 10..80; raw 1750 lands on 45, raw 1786 on 46.
	c.SampleLight(1750)
	assert.Equal(t, 40, c.bright.target, "delta of exactly 5 must be ignored")

	c.SampleLight(1786)
	assert.Equal(t, 46, c.bright.target, "delta of 6 must be accepted")
}

func TestBrightnessSteppingMonotoneWithoutOvershoot(t *testing.T) {
	c, _ := newAt(testConfig())
	c.bright.current = 10
	c.bright.target = 15

	assert.Equal(t, 12, c.StepBrightness())
	assert.Equal(t, 14, c.StepBrightness())
	assert.Equal(t, 15, c.StepBrightness(), "final step clamps to target")
	assert.Equal(t, 15, c.StepBrightness(), "converged value holds")

	c.bright.target = 12
	assert.Equal(t, 13, c.StepBrightness())
	assert.Equal(t, 12, c.StepBrightness())
}

func TestBrightnessFrozenWhenAutoDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.AutoBrightness = false
	c, _ := newAt(cfg)

	before := c.bright.target
	c.SampleLight(3000)
	assert.Equal(t, before, c.bright.target)
	assert.Equal(t, 3000, c.Snapshot().SensorRaw, "raw reading still recorded")
}

func TestBrightnessMappingClampsToBounds(t *testing.T) {
	c, _ := newAt(testConfig())
	c.bright.target = 40

	c.SampleLight(0)
	assert.Equal(t, 10, c.bright.target, "below dark threshold pins to min")

	c.SampleLight(4095)
	assert.Equal(t, 80, c.bright.target, "above bright threshold pins to max")
}

func TestButtonDebounce(t *testing.T) {
	c, now := newAt(testConfig())

	assert.True(t, c.ButtonSample(true, now), "clean press fires")
	assert.False(t, c.ButtonSample(true, now.Add(time.Second)), "held button stays silent")
	assert.False(t, c.ButtonSample(false, now.Add(time.Second+100*time.Millisecond)),
		"release is accepted but never fires")
	assert.False(t, c.ButtonSample(false, now.Add(2*time.Second)), "steady released stays silent")
	assert.True(t, c.ButtonSample(true, now.Add(3*time.Second)), "next clean press fires")
}

func TestButtonNoiseWithinWindowIgnored(t *testing.T) {
	c, now := newAt(testConfig())
	require.True(t, c.ButtonSample(true, now))
	require.False(t, c.ButtonSample(false, now.Add(100*time.Millisecond)))

	// Chatter: rapid flips well inside the debounce window.
	at := now.Add(200 * time.Millisecond)
	fired := 0
	for i := 0; i < 10; i++ {
		if c.ButtonSample(i%2 == 0, at.Add(time.Duration(i)*2*time.Millisecond)) {
			fired++
		}
	}
	assert.LessOrEqual(t, fired, 1)
}

func TestBootWipeCoversStripThenEnds(t *testing.T) {
	c, now := newAt(testConfig())
	c.SetAmbient(red, now)

	passes := 0
	for c.Booting() {
		frame := c.BootFrame()
		require.Len(t, frame, 5)
		passes++
		require.LessOrEqual(t, passes, 10, "wipe must terminate")
	}
	assert.Equal(t, 5, passes)
}

func TestSnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.LeadingAccent = true
	c, now := newAt(cfg)
	c.SetAmbient(red, now)
	c.SetAccent(Leading, blue, now)
	c.SampleLight(1750)

	s := c.Snapshot()
	assert.Equal(t, red, s.Ambient)
	assert.Equal(t, blue, s.Leading)
	assert.Equal(t, 5, s.LEDCount)
	assert.Equal(t, ModeUniform, s.Mode)
	assert.Equal(t, 1750, s.SensorRaw)
	assert.True(t, s.AutoBrightness)
}
