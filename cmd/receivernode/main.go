// receivernode is the haus2 sketch: a dollhouse strip whose segments mirror
// state words published by the sensor house. It keeps the original topic
// scheme of its revision, which differs from sensornode's; the two nodes
// were never a matched pair.
package main

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/platforms/mqtt"

	"github.com/hauslicht/cheerstrip/internal/colorx"
	"github.com/hauslicht/cheerstrip/internal/logging"
	"github.com/hauslicht/cheerstrip/internal/strip"
)

var (
	logger = logging.New("receivernode")
	config = ReceiverNodeConfig{}
)

type ReceiverNodeConfig struct {
	BrokerURL    string `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	StatusTopic  string `env:"STATUS_TOPIC" envDefault:"h/1/status"`
	WCTopic      string `env:"WC_TOPIC" envDefault:"h/1/wc/humidity/state"`
	StubeTopic   string `env:"STUBE_TOPIC" envDefault:"h/1/stube/light/state"`
	SerialDevice string `env:"SERIAL_DEVICE" envDefault:"/dev/ttyUSB0"`
	SerialBaud   int    `env:"SERIAL_BAUD" envDefault:"115200"`
	NumLEDs      int    `env:"NUM_LEDS" envDefault:"60"`
	WCStart      int    `env:"WC_START" envDefault:"0"`
	WCCount      int    `env:"WC_COUNT" envDefault:"10"`
	StubeStart   int    `env:"STUBE_START" envDefault:"10"`
	StubeCount   int    `env:"STUBE_COUNT" envDefault:"10"`
	Brightness   int    `env:"BRIGHTNESS" envDefault:"120"`
}

var (
	colorWet     = colorx.RGB{B: 255}
	colorDry     = colorx.RGB{R: 255, G: 80}
	colorBright  = colorx.RGB{R: 255, G: 255}
	colorDark    = colorx.Black
	colorOffline = colorx.RGB{R: 10, G: 10, B: 10}
)

// display serializes strip access: paho delivers each subscription callback
// on its own goroutine.
type display struct {
	mu     sync.Mutex
	strip  strip.Strip
	numLED int
	online bool
}

func (d *display) fillRange(start, count int, c colorx.RGB) {
	for i := 0; i < count; i++ {
		idx := start + i
		if idx >= 0 && idx < d.numLED {
			d.strip.SetPixel(idx, c)
		}
	}
}

func (d *display) setOffline() {
	d.fillRange(0, d.numLED, colorOffline)
	if err := d.strip.Show(); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to flush offline visual")
	}
}

func (d *display) handleStatus(payload string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// The sensor house publishes "1"; an older revision said "online".
	d.online = payload == "1" || payload == "online"
	if !d.online {
		d.setOffline()
	}
}

func (d *display) handleState(start, count int, payload string, states map[string]colorx.RGB) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.online {
		return
	}
	c, ok := states[payload]
	if !ok {
		logger.With(zap.String("state", payload)).Warn("Ignoring unknown state word")
		return
	}
	d.fillRange(start, count, c)
	if err := d.strip.Show(); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to flush frame")
	}
}

func main() {
	defer logger.Sync()

	if err := env.Parse(&config); err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}

	logger.With(zap.Any("config", config)).Info("Starting receiver node")

	s, err := strip.OpenSerial(config.SerialDevice, config.SerialBaud, config.NumLEDs)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to open strip")
	}
	defer s.Close()
	s.SetBrightness(uint8(config.Brightness))

	d := &display{strip: s, numLED: config.NumLEDs}
	d.mu.Lock()
	d.setOffline()
	d.mu.Unlock()

	clientID := fmt.Sprintf("haus2-dollhouse-%s", uuid.NewString()[:8])
	mqttAdaptor := mqtt.NewAdaptor(config.BrokerURL, clientID)
	mqttAdaptor.SetAutoReconnect(true)

	wcStates := map[string]colorx.RGB{"wet": colorWet, "dry": colorDry}
	stubeStates := map[string]colorx.RGB{"bright": colorBright, "dark": colorDark}

	work := func() {
		mqttAdaptor.On(config.StatusTopic, func(msg mqtt.Message) {
			d.handleStatus(string(msg.Payload()))
		})
		mqttAdaptor.On(config.WCTopic, func(msg mqtt.Message) {
			d.handleState(config.WCStart, config.WCCount, string(msg.Payload()), wcStates)
		})
		mqttAdaptor.On(config.StubeTopic, func(msg mqtt.Message) {
			d.handleState(config.StubeStart, config.StubeCount, string(msg.Payload()), stubeStates)
		})
	}

	robot := gobot.NewRobot("receivernode",
		[]gobot.Connection{mqttAdaptor},
		[]gobot.Device{},
		work,
	)

	if err := robot.Start(); err != nil {
		logger.With(zap.Error(err)).Fatal("Robot failed")
	}
}
