package sdk

import (
	"context"
	"log/slog"
)

// Version is the SDK release version.
const Version = "0.4.1"

// RuntimeConfig carries configuration shared by SDK components.
type RuntimeConfig struct {
	// Logger receives structured log output from SDK components. If nil,
	// components discard log output.
	Logger *slog.Logger
}

// discardHandler mirrors slog.DiscardHandler, which requires Go 1.24.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// Discard returns a logger that drops all records. Components fall back to
// it when RuntimeConfig.Logger is nil.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}
