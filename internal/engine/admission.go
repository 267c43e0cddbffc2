package engine

import (
	"sync"

	"github.com/parthgeek/tally/internal/metrics"
)

// Default admission caps.
const (
	DefaultPerOrgCap    = 2
	DefaultGlobalOrgCap = 5
)

// AdmissionController bounds how many organizations are processed
// simultaneously, and how many concurrent slots any one organization may
// hold. Counters live in process memory only: they bound concurrent
// invocations within one instance but provide no cross-instance guarantee.
type AdmissionController struct {
	inFlight  map[string]int
	perOrgCap int
	globalCap int
	mu        sync.Mutex
}

// NewAdmissionController creates a controller with the given caps; zero or
// negative caps fall back to the defaults.
func NewAdmissionController(perOrgCap, globalCap int) *AdmissionController {
	if perOrgCap <= 0 {
		perOrgCap = DefaultPerOrgCap
	}
	if globalCap <= 0 {
		globalCap = DefaultGlobalOrgCap
	}
	return &AdmissionController{
		inFlight:  make(map[string]int),
		perOrgCap: perOrgCap,
		globalCap: globalCap,
	}
}

// TryAcquire attempts to take a processing slot for the organization. A
// false return means the caller must defer the organization to the next
// scheduling pass, never drop it.
func (a *AdmissionController) TryAcquire(orgID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inFlight[orgID] >= a.perOrgCap {
		return false
	}
	if a.inFlight[orgID] == 0 && len(a.inFlight) >= a.globalCap {
		return false
	}

	if a.inFlight[orgID] == 0 {
		metrics.OrgsInFlight.Inc()
	}
	a.inFlight[orgID]++
	return true
}

// Release returns a slot taken by TryAcquire.
func (a *AdmissionController) Release(orgID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inFlight[orgID] == 0 {
		return
	}
	a.inFlight[orgID]--
	if a.inFlight[orgID] == 0 {
		delete(a.inFlight, orgID)
		metrics.OrgsInFlight.Dec()
	}
}

// InFlight reports the slots currently held by an organization.
func (a *AdmissionController) InFlight(orgID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight[orgID]
}

// ActiveOrgs reports how many organizations currently hold slots.
func (a *AdmissionController) ActiveOrgs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inFlight)
}
