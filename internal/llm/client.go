// Package llm wraps the external generative-model classifier (Pass-2) behind
// a quota gate, retry control, and a forgiving response parser.
package llm

import (
	"context"
)

// Client defines the interface for model providers. Implementations return
// the raw completion text; parsing is centralized in this package so every
// provider gets the same tolerance for malformed output.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
