// Package httpapi serves the admin endpoints: a status snapshot for the UI
// to poll and a configuration-save endpoint. A save never touches the live
// controller; it persists the new settings and requests a restart, which is
// how configuration changes take effect.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/hauslicht/cheerstrip/internal/logging"
	"github.com/hauslicht/cheerstrip/internal/settings"
)

var logger = logging.New("httpapi")

// Status is the JSON document served by /status.
type Status struct {
	Ambient        string `json:"ambient"`
	Leading        string `json:"leading"`
	Trailing       string `json:"trailing"`
	LEDCount       int    `json:"led_count"`
	Mode           int    `json:"mode"`
	SensorRaw      int    `json:"sensor_raw"`
	Brightness     int    `json:"brightness"`
	AutoBrightness bool   `json:"auto_brightness"`
}

// Server handles the admin endpoints.
type Server struct {
	current settings.Settings
	status  func() Status
	save    func(settings.Settings) error
	restart func()
}

// New builds the admin server. current is the boot-time configuration used
// as the base for unsubmitted form fields; save persists, restart asks the
// daemon to exit so the new configuration loads.
func New(current settings.Settings, status func() Status, save func(settings.Settings) error, restart func()) *Server {
	return &Server{
		current: current,
		status:  status,
		save:    save,
		restart: restart,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/save", s.handleSave)
	return mux
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.With("addr", addr).Info("admin server listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "admin server failed")
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		logger.With("error", err).Warn("encoding status")
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	next := s.current
	next.LEDCount = formInt(r, "led_count", next.LEDCount)
	next.LeadingURL = formString(r, "leading_url", next.LeadingURL)
	next.TrailingURL = formString(r, "trailing_url", next.TrailingURL)
	next.Mode = formInt(r, "mode", next.Mode)
	next.BrightnessMin = formInt(r, "brightness_min", next.BrightnessMin)
	next.BrightnessMax = formInt(r, "brightness_max", next.BrightnessMax)
	next.SensorDark = formInt(r, "sensor_dark", next.SensorDark)
	next.SensorBright = formInt(r, "sensor_bright", next.SensorBright)
	// Checkbox semantics: an unchecked box is simply absent from the form.
	next.LeadingEnabled = formBool(r, "leading_enabled")
	next.TrailingEnabled = formBool(r, "trailing_enabled")
	next.AutoBrightness = formBool(r, "auto_brightness")

	next.Clamp()

	if err := s.save(next); err != nil {
		logger.With("error", err).Error("saving settings")
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("saved; restarting\n"))
	logger.Info("settings saved, requesting restart")
	s.restart()
}

func formString(r *http.Request, key, def string) string {
	if !r.Form.Has(key) {
		return def
	}
	return r.Form.Get(key)
}

func formInt(r *http.Request, key string, def int) int {
	if !r.Form.Has(key) {
		return def
	}
	v, err := strconv.Atoi(r.Form.Get(key))
	if err != nil {
		return def
	}
	return v
}

func formBool(r *http.Request, key string) bool {
	switch r.Form.Get(key) {
	case "on", "true", "1":
		return true
	}
	return false
}
