// Package config resolves player settings from defaults, an optional
// YAML file and environment variable overrides, in that order.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var allowedExtensions = []string{
	".wav",
	".mp3",
	".flac",
	".ogg",
	".oga",
	".opus",
}

const (
	defaultVolume      = 80
	defaultHistorySize = 100
	defaultDebounceMS  = 500
	defaultLogFile     = "aria.log"
)

// Config holds the resolved player settings.
type Config struct {
	MusicDir        string
	LogFile         string
	Volume          int
	HistorySize     int
	RefreshDebounce time.Duration
	Extensions      []string
}

type fileConfig struct {
	MusicDir    string `yaml:"music_dir"`
	LogFile     string `yaml:"log_file"`
	Volume      int    `yaml:"volume"`
	HistorySize int    `yaml:"history_size"`
	DebounceMS  int    `yaml:"refresh_debounce_ms"`
}

// AllowedExtensions returns the supported audio extensions (lowercase).
func AllowedExtensions() []string {
	out := make([]string, len(allowedExtensions))
	copy(out, allowedExtensions)
	return out
}

// Load resolves the configuration. The YAML file at ARIA_CONFIG is
// optional; individual ARIA_* variables override it.
func Load() (Config, error) {
	cfg := Config{
		LogFile:         defaultLogFile,
		Volume:          defaultVolume,
		HistorySize:     defaultHistorySize,
		RefreshDebounce: defaultDebounceMS * time.Millisecond,
		Extensions:      AllowedExtensions(),
	}

	if path := strings.TrimSpace(os.Getenv("ARIA_CONFIG")); path != "" {
		resolved, err := expandPath(path)
		if err != nil {
			return Config{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Config{}, err
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, err
		}
		if fc.MusicDir != "" {
			cfg.MusicDir = fc.MusicDir
		}
		if fc.LogFile != "" {
			cfg.LogFile = fc.LogFile
		}
		if fc.Volume > 0 {
			cfg.Volume = fc.Volume
		}
		if fc.HistorySize > 0 {
			cfg.HistorySize = fc.HistorySize
		}
		if fc.DebounceMS > 0 {
			cfg.RefreshDebounce = time.Duration(fc.DebounceMS) * time.Millisecond
		}
	}

	if v := strings.TrimSpace(os.Getenv("ARIA_MUSIC_DIR")); v != "" {
		cfg.MusicDir = v
	}
	if v := strings.TrimSpace(os.Getenv("ARIA_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	if v := strings.TrimSpace(os.Getenv("ARIA_VOLUME")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 100 {
			cfg.Volume = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARIA_HISTORY_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistorySize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARIA_REFRESH_DEBOUNCE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RefreshDebounce = time.Duration(n) * time.Millisecond
		}
	}

	if cfg.MusicDir != "" {
		resolved, err := expandPath(cfg.MusicDir)
		if err != nil {
			return Config{}, err
		}
		cfg.MusicDir = resolved
	}
	return cfg, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Abs(path)
}
