package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fermi/internal/logging"
)

// Log controls the slog handler.
type Log struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// Download controls the HTTP download manager.
type Download struct {
	Parallel   int    `json:"parallel" yaml:"parallel"`
	Timeout    string `json:"timeout" yaml:"timeout"` // Go duration, e.g. "60s"
	UserAgent  string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Offline    bool   `json:"offline" yaml:"offline"`
	Revalidate bool   `json:"revalidate" yaml:"revalidate"`
}

// Settings is the fermi settings file.
type Settings struct {
	CacheDir string   `json:"cache_dir" yaml:"cache_dir"`
	Log      Log      `json:"log" yaml:"log"`
	Download Download `json:"download" yaml:"download"`
}

// DefaultCacheDir is ~/.cache/fermi, or .fermi-cache when the user cache
// directory is unknown.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "fermi")
	}
	return ".fermi-cache"
}

// Default returns settings with every field populated.
func Default() Settings {
	return Settings{
		CacheDir: DefaultCacheDir(),
		Log:      Log{Level: "info", Format: "text"},
		Download: Download{Parallel: 3, Timeout: "60s"},
	}
}

// applyDefaults fills zero-valued fields from Default.
func (s *Settings) applyDefaults() {
	d := Default()
	if s.CacheDir == "" {
		s.CacheDir = d.CacheDir
	}
	if s.Log.Level == "" {
		s.Log.Level = d.Log.Level
	}
	if s.Log.Format == "" {
		s.Log.Format = d.Log.Format
	}
	if s.Download.Parallel == 0 {
		s.Download.Parallel = d.Download.Parallel
	}
	if s.Download.Timeout == "" {
		s.Download.Timeout = d.Download.Timeout
	}
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidFormat(s.Log.Format) {
		errs = append(errs, fmt.Errorf("config: log.format %q must be text or json", s.Log.Format))
	}
	if s.Download.Parallel < 1 {
		errs = append(errs, fmt.Errorf("config: download.parallel must be positive, got %d", s.Download.Parallel))
	}
	if _, err := time.ParseDuration(s.Download.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("config: download.timeout: %w", err))
	}
	return errors.Join(errs...)
}

// TimeoutDuration returns the parsed download timeout, or zero if unparsable.
func (d Download) TimeoutDuration() time.Duration {
	v, _ := time.ParseDuration(d.Timeout)
	return v
}
