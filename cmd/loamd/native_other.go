//go:build !linux && !darwin

package main

import (
	"errors"
	"log/slog"

	"github.com/loam-project/sdk/engine"
)

// nativeEngine needs the unix dynamic loader.
func nativeEngine(Config, *slog.Logger) (engine.Engine, error) {
	return nil, errors.New("the native engine requires linux or darwin")
}
