// Package settings persists the user-tunable configuration between power
// cycles. The file is TOML, loaded once at boot and rewritten in full on
// every save; changes take effect after a restart.
package settings

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/hauslicht/cheerstrip/internal/logging"
)

var logger = logging.New("settings")

// Settings is the persisted key-value record.
type Settings struct {
	LEDCount        int    `toml:"led_count"`
	LeadingURL      string `toml:"leading_url"`
	TrailingURL     string `toml:"trailing_url"`
	LeadingEnabled  bool   `toml:"leading_enabled"`
	TrailingEnabled bool   `toml:"trailing_enabled"`
	Mode            int    `toml:"mode"`
	AutoBrightness  bool   `toml:"auto_brightness"`
	BrightnessMin   int    `toml:"brightness_min"`
	BrightnessMax   int    `toml:"brightness_max"`
	SensorDark      int    `toml:"sensor_dark"`
	SensorBright    int    `toml:"sensor_bright"`
}

// Default is the first-boot configuration.
func Default() Settings {
	return Settings{
		LEDCount:        10,
		LeadingEnabled:  true,
		TrailingEnabled: true,
		Mode:            0,
		AutoBrightness:  true,
		BrightnessMin:   10,
		BrightnessMax:   80,
		SensorDark:      500,
		SensorBright:    3000,
	}
}

// Load reads the settings file. A missing file is first boot and yields the
// defaults; a present but unreadable file is an error. Loaded values are
// clamped so a hand-edited file cannot put the renderer out of range.
func Load(path string) (Settings, error) {
	s := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.With("path", path).Info("no settings file, using defaults")
		return s, nil
	}

	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Default(), errors.Wrapf(err, "decoding settings file %s", path)
	}
	s.Clamp()
	return s, nil
}

// Save writes the settings atomically: encode to a temp file in the same
// directory, then rename over the target.
func (s Settings) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return errors.Wrap(err, "encoding settings")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return errors.Wrap(err, "creating temp settings file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing settings")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing settings file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replacing settings file")
	}
	return nil
}

// Clamp forces every field into its valid range rather than rejecting bad
// input. Swapped min/max pairs are reordered.
func (s *Settings) Clamp() {
	s.LEDCount = clamp(s.LEDCount, 2, 300)
	s.Mode = clamp(s.Mode, 0, 2)
	s.BrightnessMin = clamp(s.BrightnessMin, 1, 255)
	s.BrightnessMax = clamp(s.BrightnessMax, 1, 255)
	if s.BrightnessMin > s.BrightnessMax {
		s.BrightnessMin, s.BrightnessMax = s.BrightnessMax, s.BrightnessMin
	}
	s.SensorDark = clamp(s.SensorDark, 0, 4095)
	s.SensorBright = clamp(s.SensorBright, 0, 4095)
	if s.SensorDark > s.SensorBright {
		s.SensorDark, s.SensorBright = s.SensorBright, s.SensorDark
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
