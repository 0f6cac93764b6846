// Package controller implements the lighting state machine: display-mode
// selection, the bounded ambient-color history, smoothed auto-brightness and
// per-frame pixel composition. It owns all mutable lighting state and is
// advanced from a single scheduler goroutine; methods take the current time
// so the scheduler reads the clock once per pass.
package controller

import (
	"time"

	"github.com/hauslicht/cheerstrip/internal/colorx"
)

const (
	// HistoryCapacity bounds the shift buffer used by the history modes.
	HistoryCapacity = 50
	// AutoDuplicateAfter is how long ShiftWithAutoDuplicate waits without a
	// natural ambient change before inserting a duplicate.
	AutoDuplicateAfter = 15 * time.Minute
)

// Mode selects how the ambient pixels are painted.
type Mode int

const (
	// ModeUniform paints every ambient pixel with the current ambient color.
	ModeUniform Mode = iota
	// ModeShiftAlong paints pixel i with the i-th most recent ambient color.
	ModeShiftAlong
	// ModeShiftAutoDuplicate is ModeShiftAlong plus a periodic duplicate
	// insert when the feed goes quiet.
	ModeShiftAutoDuplicate

	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeUniform:
		return "uniform"
	case ModeShiftAlong:
		return "shift"
	case ModeShiftAutoDuplicate:
		return "shift-autodup"
	default:
		return "unknown"
	}
}

// Next advances cyclically.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

func (m Mode) historyBased() bool {
	return m == ModeShiftAlong || m == ModeShiftAutoDuplicate
}

// Slot identifies one of the two accent positions.
type Slot int

const (
	// Leading is bound to pixel 0.
	Leading Slot = iota
	// Trailing is bound to pixel N-1.
	Trailing
)

type accent struct {
	enabled   bool
	color     colorx.RGB
	fetchedAt time.Time
}

// Config is the subset of persisted settings the controller acts on.
// Changes to it only apply through a restart.
type Config struct {
	LEDCount       int
	Mode           Mode
	LeadingAccent  bool
	TrailingAccent bool
	AutoBrightness bool
	BrightnessMin  int
	BrightnessMax  int
	SensorDark     int
	SensorBright   int
}

// Controller is the lighting state machine. Not safe for concurrent use;
// the scheduler is its only caller.
type Controller struct {
	cfg Config

	ambient   colorx.RGB
	ambientAt time.Time
	accents   [2]accent
	history   [HistoryCapacity]colorx.RGB
	lastShift time.Time
	bright    brightness
	button    debouncer
	wipePos   int
	frame     []colorx.RGB
}

// New builds a controller from persisted configuration. The history starts
// uniform on the neutral gray ambient color and brightness starts at the
// configured maximum.
func New(cfg Config, now time.Time) *Controller {
	c := &Controller{
		cfg:     cfg,
		ambient: colorx.Gray,
		frame:   make([]colorx.RGB, cfg.LEDCount),
	}
	c.accents[Leading].enabled = cfg.LeadingAccent
	c.accents[Trailing].enabled = cfg.TrailingAccent
	c.bright.current = cfg.BrightnessMax
	c.bright.target = cfg.BrightnessMax
	c.initHistory(c.ambient, now)
	return c
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Ambient returns the current ambient color.
func (c *Controller) Ambient() colorx.RGB {
	return c.ambient
}

// SetAmbient accepts a freshly fetched ambient color. A changed color in a
// history mode shifts the history; an unchanged color only refreshes the
// fetch timestamp so auto-duplicate timing is unaffected.
func (c *Controller) SetAmbient(color colorx.RGB, now time.Time) {
	c.ambientAt = now
	if color == c.ambient {
		return
	}
	c.ambient = color
	if c.cfg.Mode.historyBased() {
		c.shiftHistory(color, now)
	}
}

// SetAccent accepts a freshly fetched accent color for the given slot.
func (c *Controller) SetAccent(slot Slot, color colorx.RGB, now time.Time) {
	c.accents[slot].color = color
	c.accents[slot].fetchedAt = now
}

// AccentEnabled reports whether the slot participates in rendering.
func (c *Controller) AccentEnabled(slot Slot) bool {
	return c.accents[slot].enabled
}

// Accent returns the last fetched color for the slot.
func (c *Controller) Accent(slot Slot) colorx.RGB {
	return c.accents[slot].color
}

// AdvanceMode cycles to the next display mode and returns it. Entering a
// history mode erases prior history: every eligible slot is reloaded with
// the current ambient color and the shift clock restarts.
func (c *Controller) AdvanceMode(now time.Time) Mode {
	c.cfg.Mode = c.cfg.Mode.Next()
	if c.cfg.Mode.historyBased() {
		c.initHistory(c.ambient, now)
	}
	return c.cfg.Mode
}

// MaybeAutoDuplicate inserts a duplicate of the current ambient color when
// the feed has been quiet past AutoDuplicateAfter. Only ModeShiftAutoDuplicate
// does this, and the shift resets the clock so it cannot fire twice in a row.
// Reports whether a shift happened.
func (c *Controller) MaybeAutoDuplicate(now time.Time) bool {
	if c.cfg.Mode != ModeShiftAutoDuplicate {
		return false
	}
	if now.Sub(c.lastShift) <= AutoDuplicateAfter {
		return false
	}
	c.shiftHistory(c.ambient, now)
	return true
}

// eligibleCount is the number of pixels painted from ambient state rather
// than an accent slot.
func (c *Controller) eligibleCount() int {
	n := c.cfg.LEDCount
	if c.accents[Leading].enabled {
		n--
	}
	if c.accents[Trailing].enabled {
		n--
	}
	if n < 0 {
		n = 0
	}
	return n
}

func (c *Controller) initHistory(color colorx.RGB, now time.Time) {
	for i := range c.history {
		c.history[i] = color
	}
	c.lastShift = now
}

func (c *Controller) shiftHistory(color colorx.RGB, now time.Time) {
	retained := c.eligibleCount()
	if retained > HistoryCapacity {
		retained = HistoryCapacity
	}
	for i := retained - 1; i > 0; i-- {
		c.history[i] = c.history[i-1]
	}
	if retained > 0 {
		c.history[0] = color
	}
	c.lastShift = now
}

// Render composes one full frame. Accent slots win their pixels, then the
// display mode decides the rest. The returned slice is reused between calls.
func (c *Controller) Render() []colorx.RGB {
	n := c.cfg.LEDCount
	for i := 0; i < n; i++ {
		c.frame[i] = c.pixelColor(i, n)
	}
	return c.frame
}

func (c *Controller) pixelColor(i, n int) colorx.RGB {
	if i == 0 && c.accents[Leading].enabled {
		return c.accents[Leading].color
	}
	if i == n-1 && c.accents[Trailing].enabled {
		return c.accents[Trailing].color
	}
	if !c.cfg.Mode.historyBased() {
		return c.ambient
	}
	j := i
	if c.accents[Leading].enabled {
		j--
	}
	// Enablement can change the eligible pixel set between renders; an index
	// past the buffer falls back to ambient instead of re-indexing history.
	if j < 0 || j >= HistoryCapacity {
		return c.ambient
	}
	return c.history[j]
}

// Snapshot is a read-only view of controller state for the status endpoint.
type Snapshot struct {
	Ambient        colorx.RGB
	Leading        colorx.RGB
	Trailing       colorx.RGB
	LEDCount       int
	Mode           Mode
	SensorRaw      int
	Brightness     int
	AutoBrightness bool
}

// Snapshot captures the state the admin UI polls for.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Ambient:        c.ambient,
		Leading:        c.accents[Leading].color,
		Trailing:       c.accents[Trailing].color,
		LEDCount:       c.cfg.LEDCount,
		Mode:           c.cfg.Mode,
		SensorRaw:      c.bright.lastRaw,
		Brightness:     c.bright.current,
		AutoBrightness: c.cfg.AutoBrightness,
	}
}
