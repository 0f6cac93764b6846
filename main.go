package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"go.uber.org/zap"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/hauslicht/cheerstrip/internal/colorx"
	"github.com/hauslicht/cheerstrip/internal/controller"
	"github.com/hauslicht/cheerstrip/internal/feeds"
	"github.com/hauslicht/cheerstrip/internal/httpapi"
	"github.com/hauslicht/cheerstrip/internal/hw"
	"github.com/hauslicht/cheerstrip/internal/logging"
	"github.com/hauslicht/cheerstrip/internal/settings"
	"github.com/hauslicht/cheerstrip/internal/strip"
)

var (
	logger = logging.New("main")
	config = CheerstripConfig{}
)

type CheerstripConfig struct {
	SettingsPath    string        `env:"SETTINGS_PATH" envDefault:"cheerstrip.toml"`
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:":8266"`
	SerialDevice    string        `env:"SERIAL_DEVICE" envDefault:"/dev/ttyUSB0"`
	SerialBaud      int           `env:"SERIAL_BAUD" envDefault:"115200"`
	AmbientURL      string        `env:"AMBIENT_URL" envDefault:"http://api.thingspeak.com/channels/1417/field/2/last.json"`
	AmbientField    string        `env:"AMBIENT_FIELD" envDefault:"field2"`
	AmbientInterval time.Duration `env:"AMBIENT_INTERVAL" envDefault:"10s"`
	AccentInterval  time.Duration `env:"ACCENT_INTERVAL" envDefault:"30s"`
	SensorInterval  time.Duration `env:"SENSOR_INTERVAL" envDefault:"5s"`
	PassDelay       time.Duration `env:"PASS_DELAY" envDefault:"100ms"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"5s"`
	ButtonPin       string        `env:"BUTTON_PIN" envDefault:"7"`
	SensorChannel   int           `env:"SENSOR_CHANNEL" envDefault:"0"`
	FakeHardware    bool          `env:"FAKE_HARDWARE" envDefault:"false"`
}

func main() {
	defer logger.Sync()

	err := env.Parse(&config)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}

	logger.With(zap.Any("config", config)).Info("Starting cheerstrip")
	logger.Info("Adjust AMBIENT_URL / AMBIENT_FIELD to point at a different color feed.")
	logger.Info("Set FAKE_HARDWARE=true to run without a serial strip or GPIO attached.")
	logger.Info("Press Ctrl+C to stop")

	conf, err := settings.Load(config.SettingsPath)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to load settings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := newDaemon(config, conf)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to set up hardware")
	}
	defer d.strip.Close()

	var restartRequested atomic.Bool
	api := httpapi.New(conf, d.statusSnapshot,
		func(next settings.Settings) error {
			return next.Save(config.SettingsPath)
		},
		func() {
			restartRequested.Store(true)
			cancel()
		})

	go func() {
		if err := api.Run(ctx, config.ListenAddr); err != nil {
			logger.With(zap.Error(err)).Error("Admin server stopped")
		}
	}()

	go d.run(ctx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-shutdown:
		logger.Info("Shutting down")
		cancel()
	case <-ctx.Done():
	}

	if restartRequested.Load() {
		// Restart duty falls to the process supervisor; a clean exit after a
		// save is how new configuration takes effect.
		logger.Info("Exiting so saved configuration can load on restart")
	}
}

type daemon struct {
	cfg   CheerstripConfig
	conf  settings.Settings
	ctrl  *controller.Controller
	strip strip.Strip
	sens  hw.LightSensor
	btn   hw.Button
	feeds *feeds.Client

	statusMu sync.RWMutex
	status   httpapi.Status
}

func newDaemon(cfg CheerstripConfig, conf settings.Settings) (*daemon, error) {
	d := &daemon{
		cfg:   cfg,
		conf:  conf,
		feeds: feeds.NewClient(cfg.FetchTimeout),
		ctrl: controller.New(controller.Config{
			LEDCount:       conf.LEDCount,
			Mode:           controller.Mode(conf.Mode),
			LeadingAccent:  conf.LeadingEnabled,
			TrailingAccent: conf.TrailingEnabled,
			AutoBrightness: conf.AutoBrightness,
			BrightnessMin:  conf.BrightnessMin,
			BrightnessMax:  conf.BrightnessMax,
			SensorDark:     conf.SensorDark,
			SensorBright:   conf.SensorBright,
		}, time.Now()),
	}

	if cfg.FakeHardware {
		d.strip = strip.NewFake(conf.LEDCount)
		d.sens = &hw.FakeSensor{Value: (conf.SensorDark + conf.SensorBright) / 2}
		d.btn = &hw.FakeButton{}
		return d, nil
	}

	s, err := strip.OpenSerial(cfg.SerialDevice, cfg.SerialBaud, conf.LEDCount)
	if err != nil {
		return nil, err
	}

	r := raspi.NewAdaptor()
	if err := r.Connect(); err != nil {
		s.Close()
		return nil, err
	}
	ads := i2c.NewADS1115Driver(r)
	if err := ads.Start(); err != nil {
		s.Close()
		return nil, err
	}

	d.strip = s
	d.sens = hw.NewADCLightSensor(ads, cfg.SensorChannel)
	d.btn = hw.NewGPIOButton(r, cfg.ButtonPin)
	return d, nil
}

// run is the cooperative scheduler: one goroutine, one pass per PassDelay,
// every task time-gated inside the pass. Feed fetches carry their own
// timeout so a dead feed delays a pass, never wedges the loop.
func (d *daemon) run(ctx context.Context) {
	var lastSensor, lastAmbient, lastLeading, lastTrailing time.Time

	for ctx.Err() == nil {
		now := time.Now()

		if now.Sub(lastSensor) >= d.cfg.SensorInterval {
			lastSensor = now
			if raw, err := d.sens.Read(); err != nil {
				logger.With(zap.Error(err)).Warn("Failed to read light sensor")
			} else {
				d.ctrl.SampleLight(raw)
			}
		}

		if now.Sub(lastAmbient) >= d.cfg.AmbientInterval {
			lastAmbient = now
			d.fetchAmbient(ctx, now)
		}

		if d.ctrl.AccentEnabled(controller.Leading) && d.conf.LeadingURL != "" &&
			now.Sub(lastLeading) >= d.cfg.AccentInterval {
			lastLeading = now
			d.fetchAccent(ctx, controller.Leading, d.conf.LeadingURL, now)
		}
		if d.ctrl.AccentEnabled(controller.Trailing) && d.conf.TrailingURL != "" &&
			now.Sub(lastTrailing) >= d.cfg.AccentInterval {
			lastTrailing = now
			d.fetchAccent(ctx, controller.Trailing, d.conf.TrailingURL, now)
		}

		if pressed, err := d.btn.Pressed(); err != nil {
			logger.With(zap.Error(err)).Warn("Failed to read mode button")
		} else if d.ctrl.ButtonSample(pressed, now) {
			mode := d.ctrl.AdvanceMode(now)
			logger.With(zap.Stringer("mode", mode)).Info("Display mode advanced")
			d.conf.Mode = int(mode)
			if err := d.conf.Save(d.cfg.SettingsPath); err != nil {
				logger.With(zap.Error(err)).Warn("Failed to persist display mode")
			}
		}

		if d.ctrl.MaybeAutoDuplicate(now) {
			logger.Info("Ambient feed quiet, duplicated current color into history")
		}

		d.strip.SetBrightness(uint8(d.ctrl.StepBrightness()))

		var frame []colorx.RGB
		if d.ctrl.Booting() {
			frame = d.ctrl.BootFrame()
		} else {
			frame = d.ctrl.Render()
		}
		for i, px := range frame {
			d.strip.SetPixel(i, px)
		}
		if err := d.strip.Show(); err != nil {
			logger.With(zap.Error(err)).Warn("Failed to flush frame to strip")
		}

		d.publishStatus()

		select {
		case <-ctx.Done():
		case <-time.After(d.cfg.PassDelay):
		}
	}
}

func (d *daemon) fetchAmbient(ctx context.Context, now time.Time) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	defer cancel()

	color, err := d.feeds.FetchAmbient(fetchCtx, d.cfg.AmbientURL, d.cfg.AmbientField)
	if err != nil {
		logger.With(zap.Error(err)).Warn("Ambient fetch failed, keeping previous color")
		return
	}
	d.ctrl.SetAmbient(color, now)
}

func (d *daemon) fetchAccent(ctx context.Context, slot controller.Slot, url string, now time.Time) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	defer cancel()

	color, err := d.feeds.FetchAccent(fetchCtx, url)
	if err != nil {
		logger.With(zap.Error(err)).Warn("Accent fetch failed, keeping previous color")
		return
	}
	d.ctrl.SetAccent(slot, color, now)
}

func (d *daemon) publishStatus() {
	snap := d.ctrl.Snapshot()
	status := httpapi.Status{
		Ambient:        snap.Ambient.Hex(),
		Leading:        snap.Leading.Hex(),
		Trailing:       snap.Trailing.Hex(),
		LEDCount:       snap.LEDCount,
		Mode:           int(snap.Mode),
		SensorRaw:      snap.SensorRaw,
		Brightness:     snap.Brightness,
		AutoBrightness: snap.AutoBrightness,
	}

	d.statusMu.Lock()
	d.status = status
	d.statusMu.Unlock()
}

func (d *daemon) statusSnapshot() httpapi.Status {
	d.statusMu.RLock()
	defer d.statusMu.RUnlock()
	return d.status
}
