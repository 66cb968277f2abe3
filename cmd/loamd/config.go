package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loam-project/sdk/engine/remote"
)

// Config is the daemon configuration. Values merge with flag > file >
// default precedence; the flag merge happens in main.
type Config struct {
	// Socket is the unix socket path the daemon listens on.
	Socket string `yaml:"socket"`

	// Engine selects what backs the daemon: "mem" or "native".
	Engine string `yaml:"engine"`

	// DB, when set, is a store path the daemon opens at startup and holds
	// open until shutdown. For the mem engine this keeps the named store
	// alive between client sessions.
	DB string `yaml:"db"`

	// Library overrides the native library name or path. Only the native
	// engine reads it.
	Library string `yaml:"library"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// MaxConns caps concurrent client connections.
	MaxConns int `yaml:"max_conns"`
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() Config {
	return Config{
		Socket:   remote.DefaultSocketPath(),
		Engine:   "mem",
		LogLevel: "info",
		MaxConns: remote.DefaultMaxConnections,
	}
}

// LoadConfig reads a YAML config file over the defaults, so a file only has
// to name the settings it changes. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot serve.
func (c Config) Validate() error {
	if c.Socket == "" {
		return errors.New("socket path is empty")
	}
	switch c.Engine {
	case "mem", "native":
	default:
		return fmt.Errorf("unknown engine %q (want mem or native)", c.Engine)
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("max connections %d, want at least 1", c.MaxConns)
	}
	return nil
}

// parseLogLevel maps a level name onto slog. An empty name means info.
func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}
