package telemetry

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogSinkEmit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sink := NewSlogSink(logger)
	sink.Emit("decision.applied", map[string]any{"category": "travel", "confidence": 0.9})

	out := buf.String()
	assert.Contains(t, out, `"event":"decision.applied"`)
	assert.Contains(t, out, `"category":"travel"`)
}

func TestNoopEmit(t *testing.T) {
	assert.NotPanics(t, func() {
		Noop{}.Emit("anything", nil)
	})
}
