// Package telemetry provides fire-and-forget event sinks. Sink failures are
// swallowed by construction so they can never affect categorization outcomes.
package telemetry

import (
	"log/slog"

	"github.com/parthgeek/tally/internal/service"
)

// SlogSink emits events to the structured log at debug level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over the given logger, defaulting to the global
// one.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit logs the event with its fields.
func (s *SlogSink) Emit(event string, fields map[string]any) {
	attrs := make([]any, 0, len(fields)*2+2)
	attrs = append(attrs, "event", event)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	s.logger.Debug("telemetry", attrs...)
}

// Noop discards every event.
type Noop struct{}

// Emit does nothing.
func (Noop) Emit(string, map[string]any) {}

var (
	_ service.TelemetrySink = (*SlogSink)(nil)
	_ service.TelemetrySink = Noop{}
)
