package controller

import "github.com/hauslicht/cheerstrip/internal/colorx"

// The startup wipe lights one more pixel per scheduler pass, fading from
// black toward the ambient color, so the boot animation never blocks the
// loop the way a sleep-driven sweep would.

// Booting reports whether the startup wipe is still running.
func (c *Controller) Booting() bool {
	return c.wipePos < c.cfg.LEDCount
}

// BootFrame renders the next wipe frame and advances the wipe by one pixel.
// Once the wipe has crossed the strip, Render takes over.
func (c *Controller) BootFrame() []colorx.RGB {
	n := c.cfg.LEDCount
	for i := 0; i < n; i++ {
		if i > c.wipePos {
			c.frame[i] = colorx.Black
			continue
		}
		// Trailing pixels of the wipe fade up behind the head.
		t := float64(c.wipePos-i+1) / 3.0
		c.frame[i] = colorx.Blend(colorx.Black, c.ambient, t)
	}
	if c.wipePos < n {
		c.wipePos++
	}
	return c.frame
}
