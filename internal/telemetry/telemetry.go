// Package telemetry provides a single structured event sink that the rest of
// the engine logs through, instead of reaching for a global logger.
package telemetry

import (
	"log/slog"
	"os"
)

// Sink receives structured events. name is a short, stable identifier
// ("track.birth", "pipeline.drop", ...); fields are logged as key/value
// pairs in the order given.
type Sink interface {
	Event(name string, fields ...any)
}

// Slog adapts a *slog.Logger into a Sink.
type Slog struct {
	Logger *slog.Logger
}

// NewSlog builds a Sink backed by a text-handler slog.Logger writing to
// os.Stderr at the given level.
func NewSlog(level slog.Level) *Slog {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Slog{Logger: slog.New(h)}
}

func (s *Slog) Event(name string, fields ...any) {
	s.Logger.Info(name, fields...)
}

// Discard is a Sink that drops every event; useful in tests.
type Discard struct{}

func (Discard) Event(string, ...any) {}
