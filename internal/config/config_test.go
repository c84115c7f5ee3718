package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "http" {
		t.Errorf("Expected default mode to be 'http', got '%s'", cfg.Mode)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Expected default host to be '0.0.0.0', got '%s'", cfg.Host)
	}

	if cfg.Port != 80 {
		t.Errorf("Expected default port to be 80, got %d", cfg.Port)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default environment to be 'development', got '%s'", cfg.Environment)
	}

	if cfg.ServerName != "pdf-form-filler" {
		t.Errorf("Expected default server name to be 'pdf-form-filler', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxBodySize != 50*1024*1024 {
		t.Errorf("Expected default max body size to be 50MB, got %d", cfg.MaxBodySize)
	}

	if cfg.CountUnchecked {
		t.Errorf("Expected unchecked checkboxes not to be counted by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config - http mode",
			modify: func(c *Config) {},
		},
		{
			name:   "valid config - stdio mode ignores port",
			modify: func(c *Config) { c.Mode = ModeStdio; c.Port = 0 },
		},
		{
			name:    "invalid mode",
			modify:  func(c *Config) { c.Mode = "server" },
			wantErr: "mode must be",
		},
		{
			name:    "port too low",
			modify:  func(c *Config) { c.Port = 0 },
			wantErr: "port must be",
		},
		{
			name:    "port too high",
			modify:  func(c *Config) { c.Port = 70000 },
			wantErr: "port must be",
		},
		{
			name:    "zero body size",
			modify:  func(c *Config) { c.MaxBodySize = 0 },
			wantErr: "body size",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 8081

	if got := cfg.Address(); got != "127.0.0.1:8081" {
		t.Errorf("Address() = %s, want 127.0.0.1:8081", got)
	}
}

func TestConfigModes(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsHTTPMode() || cfg.IsStdioMode() {
		t.Errorf("default config should be in http mode")
	}

	cfg.Mode = ModeStdio
	if cfg.IsHTTPMode() || !cfg.IsStdioMode() {
		t.Errorf("stdio config should be in stdio mode")
	}

	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Errorf("IsDebug() should be true for debug level")
	}
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	for _, want := range []string{"Mode: http", "Port: 80", "Environment: development"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, missing %q", s, want)
		}
	}
}
