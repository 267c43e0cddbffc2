package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmissionPerOrgCap(t *testing.T) {
	a := NewAdmissionController(2, 5)

	require.True(t, a.TryAcquire("org-1"))
	require.True(t, a.TryAcquire("org-1"))
	assert.False(t, a.TryAcquire("org-1"), "third slot for the same org must be refused")
	assert.Equal(t, 2, a.InFlight("org-1"))

	a.Release("org-1")
	assert.True(t, a.TryAcquire("org-1"))
}

func TestAdmissionGlobalCap(t *testing.T) {
	a := NewAdmissionController(2, 5)

	for i := 0; i < 5; i++ {
		require.True(t, a.TryAcquire(fmt.Sprintf("org-%d", i)))
	}
	assert.Equal(t, 5, a.ActiveOrgs())

	// A sixth distinct org is refused, but an already-active org can still
	// take its second slot.
	assert.False(t, a.TryAcquire("org-5"))
	assert.True(t, a.TryAcquire("org-0"))

	// Releasing a fully-drained org frees a global slot.
	a.Release("org-1")
	assert.True(t, a.TryAcquire("org-5"))
}

func TestAdmissionReleaseIsIdempotent(t *testing.T) {
	a := NewAdmissionController(2, 5)

	require.True(t, a.TryAcquire("org-1"))
	a.Release("org-1")
	a.Release("org-1") // extra release must not underflow

	assert.Zero(t, a.InFlight("org-1"))
	assert.Zero(t, a.ActiveOrgs())
	assert.True(t, a.TryAcquire("org-1"))
}

func TestAdmissionDefaults(t *testing.T) {
	a := NewAdmissionController(0, -1)

	assert.Equal(t, DefaultPerOrgCap, a.perOrgCap)
	assert.Equal(t, DefaultGlobalOrgCap, a.globalCap)
}
