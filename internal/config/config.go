package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Click-through mode is not
// part of it: the overlay always starts in click-through mode.
type Config struct {
	// Title of the overlay window, used to find its native handle
	WindowTitle string `json:"window_title" toml:"window_title" yaml:"window_title"`

	Overlay    OverlayConfig    `json:"overlay" toml:"overlay" yaml:"overlay"`
	Tracking   TrackingConfig   `json:"tracking" toml:"tracking" yaml:"tracking"`
	Log        LogConfig        `json:"log" toml:"log" yaml:"log"`
	Appearance AppearanceConfig `json:"appearance" toml:"appearance" yaml:"appearance"`
}

// OverlayConfig holds overlay window settings
type OverlayConfig struct {
	Monitor         string `json:"monitor" toml:"monitor" yaml:"monitor"` // "nearest" or "primary"
	CoverOnStartup  bool   `json:"cover_on_startup" toml:"cover_on_startup" yaml:"cover_on_startup"`
	NativeTimeoutMs int    `json:"native_timeout_ms" toml:"native_timeout_ms" yaml:"native_timeout_ms"`
}

// TrackingConfig holds cursor polling cadence
type TrackingConfig struct {
	IntervalMs     int `json:"interval_ms" toml:"interval_ms" yaml:"interval_ms"`
	IdleIntervalMs int `json:"idle_interval_ms" toml:"idle_interval_ms" yaml:"idle_interval_ms"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `json:"level" toml:"level" yaml:"level"`
	Format string `json:"format" toml:"format" yaml:"format"` // "text" or "json"
}

// AppearanceConfig is the look the frontend persists between runs.
// Hues, saturation and brightness are fractions in [0, 1].
type AppearanceConfig struct {
	Preset      string  `json:"preset" toml:"preset" yaml:"preset"`
	HueMin      float64 `json:"hue_min" toml:"hue_min" yaml:"hue_min"`
	HueMax      float64 `json:"hue_max" toml:"hue_max" yaml:"hue_max"`
	Saturation  float64 `json:"saturation" toml:"saturation" yaml:"saturation"`
	Brightness  float64 `json:"brightness" toml:"brightness" yaml:"brightness"`
	WelcomeSeen bool    `json:"welcome_seen" toml:"welcome_seen" yaml:"welcome_seen"`
}

// Service manages configuration persistence
type Service struct {
	mu       sync.RWMutex
	config   *Config
	filePath string

	listenerMu sync.Mutex
	onChange   []func(*Config)
}

// configNames are tried in order inside the config directory.
var configNames = []string{"config.json", "config.toml", "config.yaml", "config.yml"}

// New creates a new config service rooted at ~/.fluid-overlay
func New() (*Service, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewAt(filepath.Join(homeDir, ".fluid-overlay"))
}

// NewAt creates a config service in dir. An existing config.json,
// config.toml or config.yaml is loaded; otherwise a default config.json is
// written.
func NewAt(configDir string) (*Service, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	service := &Service{
		filePath: filepath.Join(configDir, configNames[0]),
		config:   getDefaultConfig(),
	}

	for _, name := range configNames {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err == nil {
			service.filePath = path
			if err := service.Load(); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
			return service, nil
		}
	}

	if err := service.Save(); err != nil {
		return nil, fmt.Errorf("failed to create default config: %w", err)
	}
	return service, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		WindowTitle: "Fluid Overlay",
		Overlay: OverlayConfig{
			Monitor:         "nearest",
			CoverOnStartup:  true,
			NativeTimeoutMs: 250,
		},
		Tracking: TrackingConfig{
			IntervalMs:     16,
			IdleIntervalMs: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Appearance: AppearanceConfig{
			Preset:     "aurora",
			HueMin:     0,
			HueMax:     1,
			Saturation: 1,
			Brightness: 1,
		},
	}
}

// Default returns a fresh copy of the default configuration.
func Default() *Config {
	return getDefaultConfig()
}

// normalize clamps values the rest of the application cannot use.
func (c *Config) normalize() {
	if strings.TrimSpace(c.WindowTitle) == "" {
		c.WindowTitle = "Fluid Overlay"
	}

	switch strings.ToLower(strings.TrimSpace(c.Overlay.Monitor)) {
	case "primary":
		c.Overlay.Monitor = "primary"
	default:
		c.Overlay.Monitor = "nearest"
	}
	if c.Overlay.NativeTimeoutMs < 0 {
		c.Overlay.NativeTimeoutMs = 0
	}

	if c.Tracking.IntervalMs < 1 {
		c.Tracking.IntervalMs = 1
	}
	if c.Tracking.IdleIntervalMs < 1 {
		c.Tracking.IdleIntervalMs = 1
	}

	a := &c.Appearance
	a.HueMin = clamp01(a.HueMin)
	a.HueMax = clamp01(a.HueMax)
	if a.HueMin > a.HueMax {
		a.HueMin, a.HueMax = a.HueMax, a.HueMin
	}
	a.Saturation = clamp01(a.Saturation)
	a.Brightness = clamp01(a.Brightness)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Get returns a copy of the current configuration
func (s *Service) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := *s.config
	return &cfg
}

// Set updates the configuration
func (s *Service) Set(config *Config) {
	config.normalize()
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
}

// Load loads configuration from file
func (s *Service) Load() error {
	cfg, err := decodeFile(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// decodeFile reads path over the defaults, choosing the decoder by extension.
func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := getDefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

// Save saves configuration to file in the format matching its extension
func (s *Service) Save() error {
	s.mu.RLock()
	cfg := *s.config
	s.mu.RUnlock()

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(s.filePath)) {
	case ".toml":
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// Path returns the full path to the configuration file
func (s *Service) Path() string {
	return s.filePath
}

// UpdateAppearance updates appearance configuration
func (s *Service) UpdateAppearance(appearance AppearanceConfig) error {
	s.mu.Lock()
	s.config.Appearance = appearance
	s.config.normalize()
	s.mu.Unlock()
	return s.Save()
}

// UpdateTracking updates the polling cadence
func (s *Service) UpdateTracking(tracking TrackingConfig) error {
	s.mu.Lock()
	s.config.Tracking = tracking
	s.config.normalize()
	s.mu.Unlock()
	return s.Save()
}
