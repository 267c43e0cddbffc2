package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalPrecedence(t *testing.T) {
	mcc := Signal{Type: SignalMCC}
	vendor := Signal{Type: SignalVendor}
	keyword := Signal{Type: SignalKeyword}
	pattern := Signal{Type: SignalPattern}
	amount := Signal{Type: SignalAmount}
	unknown := Signal{Type: SignalType("weather")}

	assert.Less(t, mcc.Precedence(), vendor.Precedence())
	assert.Less(t, vendor.Precedence(), keyword.Precedence())
	assert.Equal(t, keyword.Precedence(), pattern.Precedence())
	assert.Less(t, pattern.Precedence(), amount.Precedence())
	assert.Greater(t, unknown.Precedence(), amount.Precedence())
}
