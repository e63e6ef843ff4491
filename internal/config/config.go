// Package config holds toktrack's on-disk settings: a flat JSON document
// with defaults filled in after unmarshal, the way the teacher's own
// config package works.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// UIConfig controls TUI refresh cadence and spend-threshold coloring.
type UIConfig struct {
	RefreshIntervalSeconds int     `json:"refresh_interval_seconds"`
	WarnThresholdUSD       float64 `json:"warn_threshold_usd"`
	CritThresholdUSD       float64 `json:"crit_threshold_usd"`
}

// ParsersConfig holds per-parser enable toggles. They are stored in the
// config file only; the data loader does not consult them and scans every
// registered parser.
type ParsersConfig struct {
	Claude   bool `json:"claude"`
	Codex    bool `json:"codex"`
	Gemini   bool `json:"gemini"`
	OpenCode bool `json:"opencode"`
}

// PricingConfig holds a pricing network-access toggle. It is stored in the
// config file only; the data loader and the pricing service do not consult
// it, and the pricing service may still fetch over the network.
type PricingConfig struct {
	NetworkEnabled bool `json:"network_enabled"`
}

// Config is toktrack's full settings document.
type Config struct {
	UI           UIConfig      `json:"ui"`
	Theme        string        `json:"theme"`
	CacheHomeDir string        `json:"cache_home_dir,omitempty"`
	Parsers      ParsersConfig `json:"parsers"`
	Pricing      PricingConfig `json:"pricing"`
}

// DefaultConfig returns the settings used when no config file exists or a
// field is left unset.
func DefaultConfig() Config {
	return Config{
		Theme: "Gruvbox",
		UI: UIConfig{
			RefreshIntervalSeconds: 30,
			WarnThresholdUSD:       10.0,
			CritThresholdUSD:       50.0,
		},
		Parsers: ParsersConfig{Claude: true, Codex: true, Gemini: true, OpenCode: true},
		Pricing: PricingConfig{NetworkEnabled: true},
	}
}

// ConfigDir returns "%APPDATA%\toktrack" on Windows, "~/.config/toktrack"
// elsewhere.
func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "toktrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "toktrack")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

// Load reads the config at the default path.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads and validates the config at path. A missing file yields
// DefaultConfig with no error; a malformed one is an error.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.UI.RefreshIntervalSeconds <= 0 {
		cfg.UI.RefreshIntervalSeconds = 30
	}
	if cfg.UI.WarnThresholdUSD <= 0 {
		cfg.UI.WarnThresholdUSD = DefaultConfig().UI.WarnThresholdUSD
	}
	if cfg.UI.CritThresholdUSD <= 0 {
		cfg.UI.CritThresholdUSD = DefaultConfig().UI.CritThresholdUSD
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultConfig().Theme
	}

	return cfg, nil
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveTheme persists a theme name into the config file (read-modify-write).
func SaveTheme(theme string) error {
	return SaveThemeTo(ConfigPath(), theme)
}

func SaveThemeTo(path string, theme string) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.Theme = theme
	return SaveTo(path, cfg)
}

// SaveParsers persists parser enable/disable toggles into the config file.
func SaveParsers(parsers ParsersConfig) error {
	return SaveParsersTo(ConfigPath(), parsers)
}

func SaveParsersTo(path string, parsers ParsersConfig) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.Parsers = parsers
	return SaveTo(path, cfg)
}
