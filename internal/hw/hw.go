// Package hw wraps the physical inputs: the light sensor behind an ADC and
// the mode button on a GPIO line. Production wiring goes through gobot's
// Raspberry Pi adaptor; tests use the fakes.
package hw

import (
	"strconv"

	"gobot.io/x/gobot/v2/drivers/aio"
	"gobot.io/x/gobot/v2/drivers/gpio"
)

// LightSensor produces raw ambient-light samples, nominally 0..4095.
type LightSensor interface {
	Read() (int, error)
}

// Button reports the instantaneous level of the mode button. Debouncing is
// the controller's job; this is just the raw line.
type Button interface {
	Pressed() (bool, error)
}

// ADCLightSensor reads an LDR through an analog reader, an ADS1115 channel
// in production.
type ADCLightSensor struct {
	reader aio.AnalogReader
	pin    string
}

var _ LightSensor = (*ADCLightSensor)(nil)

func NewADCLightSensor(reader aio.AnalogReader, channel int) *ADCLightSensor {
	return &ADCLightSensor{reader: reader, pin: strconv.Itoa(channel)}
}

func (s *ADCLightSensor) Read() (int, error) {
	return s.reader.AnalogRead(s.pin)
}

// GPIOButton is an active-low momentary button on a digital pin.
type GPIOButton struct {
	reader gpio.DigitalReader
	pin    string
}

var _ Button = (*GPIOButton)(nil)

func NewGPIOButton(reader gpio.DigitalReader, pin string) *GPIOButton {
	return &GPIOButton{reader: reader, pin: pin}
}

func (b *GPIOButton) Pressed() (bool, error) {
	v, err := b.reader.DigitalRead(b.pin)
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// FakeSensor is a LightSensor with a settable value.
type FakeSensor struct {
	Value int
	Err   error
}

func (f *FakeSensor) Read() (int, error) {
	return f.Value, f.Err
}

// FakeButton is a Button with a settable level.
type FakeButton struct {
	Down bool
	Err  error
}

func (f *FakeButton) Pressed() (bool, error) {
	return f.Down, f.Err
}
