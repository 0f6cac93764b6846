// sensornode is the haus1 sketch: it samples the LDR (through an ADS1115
// channel) and a humidity sensor, and publishes bare numeric readings over
// MQTT on a fixed interval. Interpretation is entirely the subscriber's
// problem; this node applies no thresholds of its own.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/mqtt"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/hauslicht/cheerstrip/internal/logging"
)

var (
	logger = logging.New("sensornode")
	config = SensorNodeConfig{}
)

type SensorNodeConfig struct {
	BrokerURL         string        `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	HouseID           string        `env:"HOUSE_ID" envDefault:"haus1"`
	NumericInterval   time.Duration `env:"NUMERIC_INTERVAL" envDefault:"5s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"15s"`
	SensorChannel     int           `env:"SENSOR_CHANNEL" envDefault:"0"`
	WithHumidity      bool          `env:"WITH_HUMIDITY" envDefault:"true"`
}

// Topic scheme: h2h/<house>/<room>/<metric>, status on h2h/<house>/sys/status.
func metricTopic(house, room, metric string) string {
	return fmt.Sprintf("h2h/%s/%s/%s", house, room, metric)
}

func statusTopic(house string) string {
	return fmt.Sprintf("h2h/%s/sys/status", house)
}

func main() {
	defer logger.Sync()

	if err := env.Parse(&config); err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}

	logger.With(zap.Any("config", config)).Info("Starting sensor node")

	clientID := fmt.Sprintf("%s-sensors-%s", config.HouseID, uuid.NewString()[:8])
	mqttAdaptor := mqtt.NewAdaptor(config.BrokerURL, clientID)
	mqttAdaptor.SetAutoReconnect(true)

	r := raspi.NewAdaptor()
	ads := i2c.NewADS1115Driver(r)
	sht := i2c.NewSHT3xDriver(r)

	status := statusTopic(config.HouseID)
	lightTopic := metricTopic(config.HouseID, "stube", "light_adc")
	humidTopic := metricTopic(config.HouseID, "wc", "humid")

	publishNumber := func(topic string, value float64) {
		payload := strconv.FormatFloat(value, 'f', 2, 64)
		if !mqttAdaptor.Publish(topic, []byte(payload)) {
			logger.With(zap.String("topic", topic)).Warn("Publish failed")
		}
	}

	work := func() {
		// Retained so a late-joining receiver knows immediately.
		mqttAdaptor.PublishAndRetain(status, []byte("1"))

		gobot.Every(config.NumericInterval, func() {
			adc, err := ads.AnalogRead(strconv.Itoa(config.SensorChannel))
			if err != nil {
				logger.With(zap.Error(err)).Warn("Failed to read LDR channel")
			} else {
				publishNumber(lightTopic, float64(adc))
			}

			if config.WithHumidity {
				_, rh, err := sht.Sample()
				if err != nil {
					logger.With(zap.Error(err)).Warn("Failed to read humidity")
				} else {
					publishNumber(humidTopic, float64(rh))
				}
			}
		})

		gobot.Every(config.HeartbeatInterval, func() {
			mqttAdaptor.PublishAndRetain(status, []byte("1"))
		})
	}

	devices := []gobot.Device{ads}
	if config.WithHumidity {
		devices = append(devices, sht)
	}

	robot := gobot.NewRobot("sensornode",
		[]gobot.Connection{r, mqttAdaptor},
		devices,
		work,
	)

	if err := robot.Start(); err != nil {
		logger.With(zap.Error(err)).Fatal("Robot failed")
	}

	// Best effort on clean shutdown; an unclean death leaves the last
	// retained heartbeat behind until the receiver times it out.
	mqttAdaptor.PublishAndRetain(status, []byte("0"))
}
