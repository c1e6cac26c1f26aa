package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.LogBuffer.Capacity != 1000 {
		t.Errorf("LogBuffer.Capacity = %d, want 1000", cfg.LogBuffer.Capacity)
	}
	if cfg.YouTube.InitialDelay != 1500*time.Millisecond || cfg.YouTube.ProcessDelay != time.Second {
		t.Errorf("YouTube delays = %v/%v", cfg.YouTube.InitialDelay, cfg.YouTube.ProcessDelay)
	}
	if cfg.Extractor.Debounce != 0 {
		t.Errorf("Extractor.Debounce = %v, want 0", cfg.Extractor.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAGECAST_PORT", "9090")
	t.Setenv("PAGECAST_API_KEYS", "a, b ,,c")
	t.Setenv("PAGECAST_YT_PROCESS_DELAY", "250ms")
	t.Setenv("PAGECAST_HEADLESS", "false")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("PAGECAST_LOG_CAPACITY", "not-a-number")

	cfg := Load()
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(cfg.Auth.APIKeys, want) {
		t.Errorf("APIKeys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	if cfg.YouTube.ProcessDelay != 250*time.Millisecond {
		t.Errorf("ProcessDelay = %v", cfg.YouTube.ProcessDelay)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be false")
	}
	if got := cfg.LLM.APIKey("anthropic"); got != "sk-ant" {
		t.Errorf("APIKey(anthropic) = %q", got)
	}
	if cfg.LogBuffer.Capacity != 1000 {
		t.Errorf("invalid env value should keep default, got %d", cfg.LogBuffer.Capacity)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagecast.toml")
	data := `
[server]
port = 7000

[log]
level = "debug"
format = "text"

[log_buffer]
capacity = 50
store_path = "/var/lib/pagecast"

[llm]
default_model = "claudeHaiku"
base_urls = { groq = "http://localhost:1234/v1" }
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGECAST_LOG_LEVEL", "warn")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("env should override file: Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Log.Format)
	}
	if cfg.LogBuffer.Capacity != 50 || cfg.LogBuffer.StorePath != "/var/lib/pagecast" {
		t.Errorf("LogBuffer = %+v", cfg.LogBuffer)
	}
	if cfg.LLM.DefaultModel != "claudeHaiku" || cfg.LLM.BaseURLs["groq"] != "http://localhost:1234/v1" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	// Untouched sections keep their defaults.
	if cfg.Browser.MaxPages != 10 {
		t.Errorf("MaxPages = %d, want 10", cfg.Browser.MaxPages)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[server\nport = "), 0o644)
	if _, err := LoadFile(bad); err == nil {
		t.Error("malformed toml should fail")
	}

	invalid := filepath.Join(dir, "invalid.toml")
	os.WriteFile(invalid, []byte("[log]\nformat = \"xml\"\n"), 0o644)
	if _, err := LoadFile(invalid); err == nil {
		t.Error("unknown log format should fail validation")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestValidate_Webhook(t *testing.T) {
	cfg := Default()
	cfg.Webhook.URL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("bad webhook url should fail validation")
	}
	cfg.Webhook.URL = "https://hooks.example.com/pagecast"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid webhook url: %v", err)
	}
}
