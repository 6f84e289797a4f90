package scheduler

import (
	"math/rand/v2"
	"time"
)

const (
	defaultPollingInterval = 30 * time.Second
	defaultMaxChecks       = 4
	triggerBuffer          = 64
)

// jitteredInterval returns base with a random offset of up to a quarter of base
// in either direction, so instances sharing a database do not poll in lockstep.
func jitteredInterval(base time.Duration) time.Duration {
	jitter := base / 4
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return base + offset
}
