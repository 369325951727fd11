package time

import (
	"time"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

// RealTimeProvider implements the TimeProvider interface with the wall clock in UTC
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider
func NewRealTimeProvider() core.TimeProvider {
	return &RealTimeProvider{}
}

// Now returns the current time
func (p *RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed since t
func (p *RealTimeProvider) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// FixedTimeProvider always reports the same instant. Used by tests and load scripts.
type FixedTimeProvider struct {
	At time.Time
}

// Now returns the fixed instant
func (p FixedTimeProvider) Now() time.Time {
	return p.At
}

// Since returns the duration between the fixed instant and t
func (p FixedTimeProvider) Since(t time.Time) time.Duration {
	return p.At.Sub(t)
}
