package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Analysis.Model != DefaultModel {
		t.Errorf("model: got %s", cfg.Analysis.Model)
	}
	if cfg.Scan.Interval != DefaultScanInterval {
		t.Errorf("interval: got %s", cfg.Scan.Interval)
	}
	if cfg.Scan.JPEGQuality != DefaultJPEGQuality {
		t.Errorf("quality: got %d", cfg.Scan.JPEGQuality)
	}
	if cfg.Voice.Voice != DefaultVoice {
		t.Errorf("voice: got %s", cfg.Voice.Voice)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
log_level: debug
analysis:
  api_key: yaml-key
  model: gpt-4o
  timeout: 30s
scan:
  interval: 2s
  jpeg_quality: 85
hud:
  listen: ":9090"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %s", cfg.LogLevel)
	}
	if cfg.Analysis.APIKey != "yaml-key" || cfg.Analysis.Model != "gpt-4o" {
		t.Errorf("analysis: got %+v", cfg.Analysis)
	}
	if cfg.Analysis.Timeout != 30*time.Second {
		t.Errorf("timeout: got %s", cfg.Analysis.Timeout)
	}
	if cfg.Scan.Interval != 2*time.Second || cfg.Scan.JPEGQuality != 85 {
		t.Errorf("scan: got %+v", cfg.Scan)
	}
	if cfg.HUD.Listen != ":9090" {
		t.Errorf("hud: got %+v", cfg.HUD)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.Model != DefaultModel {
		t.Errorf("model: got %s", cfg.Analysis.Model)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("analysis:\n  api_key: yaml-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ROADWATCH_API_KEY", "env-key")
	t.Setenv("ROADWATCH_SCAN_INTERVAL", "7s")
	t.Setenv("ROADWATCH_HUD_LISTEN", ":7777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.APIKey != "env-key" {
		t.Errorf("api key: got %s", cfg.Analysis.APIKey)
	}
	if cfg.Scan.Interval != 7*time.Second {
		t.Errorf("interval: got %s", cfg.Scan.Interval)
	}
	if cfg.HUD.Listen != ":7777" {
		t.Errorf("listen: got %s", cfg.HUD.Listen)
	}
}

func TestOpenAIKeyFallback(t *testing.T) {
	t.Setenv("ROADWATCH_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.APIKey != "openai-key" {
		t.Errorf("api key: got %s", cfg.Analysis.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("missing API key must fail validation")
	}

	cfg.Analysis.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.Scan.JPEGQuality = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero jpeg quality must fail validation")
	}
}
