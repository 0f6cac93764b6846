package strip

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/hauslicht/cheerstrip/internal/colorx"
	"github.com/hauslicht/cheerstrip/internal/logging"
)

var logger = logging.New("strip")

// Wire format, little-endian: one type byte, payload, then a CRC32 (IEEE)
// of type+payload. The microcontroller acks nothing; a bad CRC just drops
// the frame and the next pass repaints it.
const (
	packetInit uint8 = 0x01
	packetShow uint8 = 0x02
)

var wireEndian = binary.LittleEndian

// Serial drives a strip attached to a serial-connected microcontroller.
type Serial struct {
	port       serial.Port
	pixels     []colorx.RGB
	brightness uint8
}

var _ Strip = (*Serial)(nil)

// OpenSerial opens the device, announces the pixel count and returns the
// driver. The init packet lets the controller size its buffer up front.
func OpenSerial(device string, baud, numLEDs int) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial device %s", device)
	}

	s := &Serial{
		port:   port,
		pixels: make([]colorx.RGB, numLEDs),
	}
	if _, err := port.Write(encodeInit(uint16(numLEDs))); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "writing init packet")
	}

	logger.With("device", device, "baud", baud, "leds", numLEDs).Info("serial strip ready")
	return s, nil
}

func (s *Serial) SetPixel(i int, c colorx.RGB) {
	if i >= 0 && i < len(s.pixels) {
		s.pixels[i] = c
	}
}

func (s *Serial) SetBrightness(v uint8) {
	s.brightness = v
}

// Show flushes the full frame in a single write.
func (s *Serial) Show() error {
	if _, err := s.port.Write(encodeShow(s.brightness, s.pixels)); err != nil {
		return errors.Wrap(err, "writing show packet")
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}

func encodeInit(numLEDs uint16) []byte {
	var buf bytes.Buffer
	buf.WriteByte(packetInit)
	binary.Write(&buf, wireEndian, numLEDs)
	return appendCRC(buf.Bytes())
}

func encodeShow(brightness uint8, pixels []colorx.RGB) []byte {
	var buf bytes.Buffer
	buf.WriteByte(packetShow)
	buf.WriteByte(brightness)
	binary.Write(&buf, wireEndian, uint16(len(pixels)))
	for _, px := range pixels {
		buf.Write([]byte{px.R, px.G, px.B})
	}
	return appendCRC(buf.Bytes())
}

func appendCRC(frame []byte) []byte {
	sum := crc32.ChecksumIEEE(frame)
	return wireEndian.AppendUint32(frame, sum)
}
