package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ARIA_CONFIG", "ARIA_MUSIC_DIR", "ARIA_LOG_FILE",
		"ARIA_VOLUME", "ARIA_HISTORY_SIZE", "ARIA_REFRESH_DEBOUNCE_MS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Volume != defaultVolume {
		t.Errorf("volume = %d, want %d", cfg.Volume, defaultVolume)
	}
	if cfg.HistorySize != defaultHistorySize {
		t.Errorf("history size = %d, want %d", cfg.HistorySize, defaultHistorySize)
	}
	if cfg.LogFile != defaultLogFile {
		t.Errorf("log file = %q, want %q", cfg.LogFile, defaultLogFile)
	}
	if cfg.RefreshDebounce != defaultDebounceMS*time.Millisecond {
		t.Errorf("debounce = %v", cfg.RefreshDebounce)
	}
	if cfg.MusicDir != "" {
		t.Errorf("music dir = %q, want empty", cfg.MusicDir)
	}
	if len(cfg.Extensions) == 0 {
		t.Error("no extensions resolved")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "aria.yaml")
	content := "music_dir: " + dir + "\nvolume: 55\nhistory_size: 7\nrefresh_debounce_ms: 250\nlog_file: custom.log\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARIA_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Volume != 55 || cfg.HistorySize != 7 || cfg.LogFile != "custom.log" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.RefreshDebounce != 250*time.Millisecond {
		t.Fatalf("debounce = %v, want 250ms", cfg.RefreshDebounce)
	}
	if cfg.MusicDir != dir {
		t.Fatalf("music dir = %q, want %q", cfg.MusicDir, dir)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "aria.yaml")
	if err := os.WriteFile(path, []byte("volume: 55\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARIA_CONFIG", path)
	t.Setenv("ARIA_VOLUME", "33")
	t.Setenv("ARIA_HISTORY_SIZE", "11")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Volume != 33 {
		t.Errorf("volume = %d, want env override 33", cfg.Volume)
	}
	if cfg.HistorySize != 11 {
		t.Errorf("history size = %d, want 11", cfg.HistorySize)
	}
}

func TestBadEnvValuesIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARIA_VOLUME", "loud")
	t.Setenv("ARIA_HISTORY_SIZE", "-4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Volume != defaultVolume {
		t.Errorf("volume = %d, want default kept", cfg.Volume)
	}
	if cfg.HistorySize != defaultHistorySize {
		t.Errorf("history size = %d, want default kept", cfg.HistorySize)
	}
}

func TestMissingConfigFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARIA_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with missing config file")
	}
}

func TestMusicDirResolvedAbsolute(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARIA_MUSIC_DIR", "music")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !filepath.IsAbs(cfg.MusicDir) {
		t.Fatalf("music dir = %q, want absolute", cfg.MusicDir)
	}
}
