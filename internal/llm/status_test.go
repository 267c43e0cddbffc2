package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parthgeek/tally/internal/common"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		status        int
		wantNil       bool
		wantRetryable bool
		wantRateLimit bool
	}{
		{name: "ok", status: http.StatusOK, wantNil: true},
		{name: "429", status: http.StatusTooManyRequests, wantRetryable: true, wantRateLimit: true},
		{name: "529 overloaded", status: 529, wantRetryable: true, wantRateLimit: true},
		{name: "quota in body", status: http.StatusForbidden, body: `{"error": "monthly quota exceeded"}`, wantRetryable: true, wantRateLimit: true},
		{name: "rate limit in body", status: http.StatusBadRequest, body: "Rate limit reached for requests", wantRetryable: true, wantRateLimit: true},
		{name: "server error", status: http.StatusBadGateway, wantRetryable: true},
		{name: "auth failure", status: http.StatusUnauthorized, body: "invalid api key"},
		{name: "bad request", status: http.StatusBadRequest, body: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyHTTPStatus(tt.status, []byte(tt.body))
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			assert.Equal(t, tt.wantRetryable, common.IsRetryable(err))
			assert.Equal(t, tt.wantRateLimit, errors.Is(err, common.ErrRateLimit))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefghij", 5))
}
