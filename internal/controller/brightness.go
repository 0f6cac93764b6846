package controller

const (
	// brightnessStep is how far current moves toward target per scheduler
	// pass. Small on purpose so brightness changes fade instead of jump.
	brightnessStep = 2
	// brightnessHysteresis is the minimum sensor-derived delta before a new
	// target is accepted, filtering LDR noise.
	brightnessHysteresis = 5
)

type brightness struct {
	current int
	target  int
	lastRaw int
}

// SampleLight feeds one raw light-sensor reading into the brightness state.
// With auto-brightness off the reading is recorded for the status endpoint
// but the target stays frozen. The raw range [dark,bright] maps linearly to
// [min,max]; the result only becomes the new target when it clears the
// hysteresis margin.
func (c *Controller) SampleLight(raw int) {
	c.bright.lastRaw = raw
	if !c.cfg.AutoBrightness {
		return
	}

	mapped := mapRange(raw,
		c.cfg.SensorDark, c.cfg.SensorBright,
		c.cfg.BrightnessMin, c.cfg.BrightnessMax)

	if abs(mapped-c.bright.target) <= brightnessHysteresis {
		return
	}
	c.bright.target = mapped
}

// StepBrightness advances current one step toward target without overshoot
// and returns the value to apply to the strip for this pass.
func (c *Controller) StepBrightness() int {
	switch {
	case c.bright.current < c.bright.target:
		c.bright.current += brightnessStep
		if c.bright.current > c.bright.target {
			c.bright.current = c.bright.target
		}
	case c.bright.current > c.bright.target:
		c.bright.current -= brightnessStep
		if c.bright.current < c.bright.target {
			c.bright.current = c.bright.target
		}
	}
	return c.bright.current
}

// Brightness returns the currently applied brightness.
func (c *Controller) Brightness() int {
	return c.bright.current
}

func mapRange(v, inLo, inHi, outLo, outHi int) int {
	if inHi <= inLo {
		return outLo
	}
	if v <= inLo {
		return outLo
	}
	if v >= inHi {
		return outHi
	}
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
