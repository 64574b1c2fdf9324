// Package config provides configuration loading for roadwatch commands.
//
// Values are resolved in three layers, later layers winning: built-in
// defaults, an optional YAML file, then environment variables. A .env file
// in the working directory is loaded first so local development keys don't
// need to live in the shell profile.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the scanner.
const (
	DefaultModel        = "gpt-4o-mini"
	DefaultScanInterval = 4 * time.Second
	DefaultJPEGQuality  = 70
	DefaultVoice        = "en-US-AriaNeural"
)

// Config is the root configuration for roadwatch.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Scan     ScanConfig     `yaml:"scan"`
	Voice    VoiceConfig    `yaml:"voice"`
	HUD      HUDConfig      `yaml:"hud"`
}

// AnalysisConfig configures the vision-model client.
type AnalysisConfig struct {
	// APIKey authenticates against the model endpoint. Required.
	APIKey string `yaml:"api_key"`

	// BaseURL points at any OpenAI-compatible endpoint. Empty means the
	// default OpenAI API.
	BaseURL string `yaml:"base_url"`

	// Model is the vision-capable model name.
	Model string `yaml:"model"`

	// Timeout bounds a single analysis round trip.
	Timeout time.Duration `yaml:"timeout"`
}

// ScanConfig configures frame capture and the auto-scan cadence.
type ScanConfig struct {
	// Interval between auto-scan ticks.
	Interval time.Duration `yaml:"interval"`

	// CameraDevice is the capture device index for live mode.
	CameraDevice int `yaml:"camera_device"`

	// JPEGQuality for encoded frames (1-100). Moderate quality keeps
	// uploads fast.
	JPEGQuality int `yaml:"jpeg_quality"`
}

// VoiceConfig configures spoken alerts.
type VoiceConfig struct {
	// Enabled turns voice alerts on at startup.
	Enabled bool `yaml:"enabled"`

	// Voice is the edge-tts voice name.
	Voice string `yaml:"voice"`
}

// HUDConfig configures the optional browser HUD server.
type HUDConfig struct {
	// Listen is the address to serve the HUD on, e.g. ":8080".
	// Empty disables the server.
	Listen string `yaml:"listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			Model:   DefaultModel,
			Timeout: 60 * time.Second,
		},
		Scan: ScanConfig{
			Interval:    DefaultScanInterval,
			JPEGQuality: DefaultJPEGQuality,
		},
		Voice: VoiceConfig{
			Voice: DefaultVoice,
		},
	}
}

// Load resolves the configuration from defaults, the YAML file at path
// (skipped when path is empty or missing), and environment variables.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("ROADWATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ROADWATCH_API_KEY"); v != "" {
		c.Analysis.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); c.Analysis.APIKey == "" && v != "" {
		c.Analysis.APIKey = v
	}
	if v := os.Getenv("ROADWATCH_BASE_URL"); v != "" {
		c.Analysis.BaseURL = v
	}
	if v := os.Getenv("ROADWATCH_MODEL"); v != "" {
		c.Analysis.Model = v
	}
	if v := os.Getenv("ROADWATCH_SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Scan.Interval = d
		}
	}
	if v := os.Getenv("ROADWATCH_CAMERA_DEVICE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scan.CameraDevice = n
		}
	}
	if v := os.Getenv("ROADWATCH_VOICE"); v != "" {
		c.Voice.Voice = v
	}
	if v := os.Getenv("ROADWATCH_HUD_LISTEN"); v != "" {
		c.HUD.Listen = v
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Analysis.APIKey == "" {
		return fmt.Errorf("config: API key required (set ROADWATCH_API_KEY)")
	}
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("config: scan interval must be positive")
	}
	if c.Scan.JPEGQuality < 1 || c.Scan.JPEGQuality > 100 {
		return fmt.Errorf("config: jpeg quality must be in 1-100")
	}
	return nil
}
