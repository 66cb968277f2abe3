package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/loam-project/sdk/engine/remote"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loamd.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.Socket != remote.DefaultSocketPath() {
		t.Fatalf("Socket = %q, want the default socket path", cfg.Socket)
	}
	if cfg.Engine != "mem" {
		t.Fatalf("Engine = %q, want mem", cfg.Engine)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.MaxConns != remote.DefaultMaxConnections {
		t.Fatalf("MaxConns = %d, want %d", cfg.MaxConns, remote.DefaultMaxConnections)
	}
}

func TestLoadConfig_FileOverridesOnlyWhatItNames(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine: native\nlibrary: /opt/loam/libloam.so\nmax_conns: 8\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Engine != "native" {
		t.Fatalf("Engine = %q, want native", cfg.Engine)
	}
	if cfg.Library != "/opt/loam/libloam.so" {
		t.Fatalf("Library = %q, want the configured path", cfg.Library)
	}
	if cfg.MaxConns != 8 {
		t.Fatalf("MaxConns = %d, want 8", cfg.MaxConns)
	}
	if cfg.Socket != remote.DefaultSocketPath() {
		t.Fatalf("Socket = %q, want the default kept", cfg.Socket)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want the default kept", cfg.LogLevel)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig accepted a missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "socket: [not, a, string\n")); err == nil {
		t.Fatal("LoadConfig accepted malformed yaml")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "native engine", mutate: func(c *Config) { c.Engine = "native" }},
		{name: "empty socket", mutate: func(c *Config) { c.Socket = "" }, wantErr: true},
		{name: "unknown engine", mutate: func(c *Config) { c.Engine = "sqlite" }, wantErr: true},
		{name: "zero conns", mutate: func(c *Config) { c.MaxConns = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
