// Package strip abstracts the addressable LED strip. The daemon composes a
// frame pixel by pixel and then flushes it in one atomic Show, so partially
// rendered frames never reach the hardware.
package strip

import "github.com/hauslicht/cheerstrip/internal/colorx"

// Strip is the driver contract: indexed 24-bit pixels, a global brightness,
// and an atomic buffer-to-hardware flush.
type Strip interface {
	SetPixel(i int, c colorx.RGB)
	SetBrightness(v uint8)
	Show() error
	Close() error
}

// Fake is an in-memory strip for tests and for running the daemon without
// hardware attached.
type Fake struct {
	Pixels     []colorx.RGB
	Brightness uint8
	Shows      int

	shown []colorx.RGB
}

var _ Strip = (*Fake)(nil)

// NewFake builds a fake strip with the given pixel count.
func NewFake(numLEDs int) *Fake {
	return &Fake{
		Pixels: make([]colorx.RGB, numLEDs),
		shown:  make([]colorx.RGB, numLEDs),
	}
}

func (f *Fake) SetPixel(i int, c colorx.RGB) {
	if i >= 0 && i < len(f.Pixels) {
		f.Pixels[i] = c
	}
}

func (f *Fake) SetBrightness(v uint8) {
	f.Brightness = v
}

func (f *Fake) Show() error {
	copy(f.shown, f.Pixels)
	f.Shows++
	return nil
}

func (f *Fake) Close() error {
	return nil
}

// Shown returns the frame as of the last Show, not the in-progress buffer.
func (f *Fake) Shown() []colorx.RGB {
	return f.shown
}
