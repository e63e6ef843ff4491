package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoadFromMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Errorf("expected error for malformed config")
	}
}

func TestLoadFromFillsZeroFieldsWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"theme":"Dracula"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Theme != "Dracula" {
		t.Errorf("Theme = %q, want Dracula", cfg.Theme)
	}
	if cfg.UI.RefreshIntervalSeconds != 30 {
		t.Errorf("RefreshIntervalSeconds = %d, want default 30", cfg.UI.RefreshIntervalSeconds)
	}
}

func TestSaveToAndLoadFromRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	cfg := DefaultConfig()
	cfg.Theme = "Nord"
	cfg.Parsers.Gemini = false

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Theme != "Nord" || loaded.Parsers.Gemini {
		t.Errorf("got %+v", loaded)
	}
}

func TestSaveThemeToPreservesOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	cfg := DefaultConfig()
	cfg.Parsers.Codex = false
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	if err := SaveThemeTo(path, "Solarized"); err != nil {
		t.Fatalf("SaveThemeTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Theme != "Solarized" {
		t.Errorf("Theme = %q, want Solarized", loaded.Theme)
	}
	if loaded.Parsers.Codex {
		t.Errorf("expected Codex toggle preserved as false")
	}
}

func TestConfigDirUsesXDGOnNonWindows(t *testing.T) {
	dir := ConfigDir()
	if filepath.Base(dir) != "toktrack" {
		t.Errorf("ConfigDir() = %q, want suffix toktrack", dir)
	}
}
