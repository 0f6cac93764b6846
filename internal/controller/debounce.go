package controller

import "time"

// debounceWindow is how long the input must hold a new level before the
// change is believed.
const debounceWindow = 50 * time.Millisecond

// debouncer filters line noise on the mode button into clean edges. Only a
// released-to-pressed transition fires; a held button stays silent until it
// is released and pressed again.
type debouncer struct {
	pressed    bool
	lastChange time.Time
}

func (d *debouncer) sample(pressed bool, now time.Time) bool {
	if pressed == d.pressed {
		return false
	}
	if now.Sub(d.lastChange) < debounceWindow {
		return false
	}
	d.pressed = pressed
	d.lastChange = now
	return pressed
}

// ButtonSample feeds one raw button level into the debouncer and reports
// whether an accepted press edge occurred this pass. The caller advances the
// display mode on true.
func (c *Controller) ButtonSample(pressed bool, now time.Time) bool {
	return c.button.sample(pressed, now)
}
