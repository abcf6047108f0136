package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_URL", "https://fix.example.com")
	t.Setenv("DOWNLOAD_DIR", "/tmp/downloads")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REQUEST_TIMEOUT", "5m")
	t.Setenv("RATE_LIMIT", "3")
	t.Setenv("RATE_LIMIT_INTERVAL", "2s")
	t.Setenv("DEFAULT_CRF", "28")
	t.Setenv("DEFAULT_BITRATE", "800k")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := LoadConfig()

	if cfg.ServerURL != "https://fix.example.com" {
		t.Errorf("expected https://fix.example.com, got %s", cfg.ServerURL)
	}
	if cfg.DownloadDir != "/tmp/downloads" {
		t.Errorf("expected /tmp/downloads, got %s", cfg.DownloadDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %s", cfg.LogLevel)
	}
	if cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 3 {
		t.Errorf("expected 3, got %d", cfg.RateLimit)
	}
	if cfg.RateLimitInterval != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.RateLimitInterval)
	}
	if cfg.DefaultCRF != "28" {
		t.Errorf("expected 28, got %s", cfg.DefaultCRF)
	}
	if cfg.DefaultBitrate != "800k" {
		t.Errorf("expected 800k, got %s", cfg.DefaultBitrate)
	}
	if !cfg.TracingEnabled {
		t.Error("expected tracing to be enabled")
	}
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT", "many")
	t.Setenv("TRACING_ENABLED", "maybe")

	cfg := LoadConfig()

	if cfg.RequestTimeout != 0 {
		t.Errorf("expected default timeout 0, got %s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 1 {
		t.Errorf("expected default rate limit 1, got %d", cfg.RateLimit)
	}
	if cfg.TracingEnabled {
		t.Error("expected tracing to stay disabled")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerURL:         "http://localhost:5000",
			DownloadDir:       ".",
			LogLevel:          "info",
			LogFormat:         "text",
			RateLimit:         1,
			RateLimitInterval: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bucket instead of dir", func(c *Config) { c.DownloadDir = ""; c.DownloadBucket = "videos" }, false},
		{"missing server", func(c *Config) { c.ServerURL = "" }, true},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://host" }, true},
		{"no host", func(c *Config) { c.ServerURL = "http://" }, true},
		{"no destination", func(c *Config) { c.DownloadDir = "" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, true},
		{"zero interval", func(c *Config) { c.RateLimitInterval = 0 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
