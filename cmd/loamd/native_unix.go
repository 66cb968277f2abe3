//go:build linux || darwin

package main

import (
	"log/slog"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/engine/libloam"
)

// nativeEngine loads the Loam shared library.
func nativeEngine(cfg Config, log *slog.Logger) (engine.Engine, error) {
	return libloam.New(libloam.Config{
		SDKConfig: sdk.RuntimeConfig{Logger: log},
		Path:      cfg.Library,
	})
}
