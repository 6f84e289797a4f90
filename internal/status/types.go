package status

import "time"

// CheckPhase represents the current phase of a periodic source check
type CheckPhase string

const (
	// CheckPhaseChecking means the check is currently in progress
	CheckPhaseChecking CheckPhase = "Checking"

	// CheckPhaseComplete means the last check completed successfully
	CheckPhaseComplete CheckPhase = "Complete"

	// CheckPhaseFailed means the last check failed
	CheckPhaseFailed CheckPhase = "Failed"
)

// CheckStatus represents the state of the periodic checks of one source
type CheckStatus struct {
	// Phase represents the current check phase
	Phase CheckPhase `json:"phase"`

	// Message provides additional information about the check status
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last check attempt
	LastAttempt *time.Time `json:"last_attempt,omitempty"`

	// AttemptCount is the number of check attempts since the last success
	AttemptCount int `json:"attempt_count"`

	// LastSuccess is the timestamp of the last successful check
	LastSuccess *time.Time `json:"last_success,omitempty"`

	// DocumentsIngested is the number of files queued by the last successful check
	DocumentsIngested int `json:"documents_ingested"`

	// IntervalSeconds is the source check interval at the time of the last attempt
	IntervalSeconds int `json:"interval_seconds,omitempty"`
}

// Copy returns a deep copy of the status
func (s *CheckStatus) Copy() *CheckStatus {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastAttempt != nil {
		t := *s.LastAttempt
		c.LastAttempt = &t
	}
	if s.LastSuccess != nil {
		t := *s.LastSuccess
		c.LastSuccess = &t
	}
	return &c
}

// IsDue reports whether a check should run at now given the source interval.
// Sources that never ran, and sources whose last check failed, are due once
// the interval has elapsed since the last attempt.
func (s *CheckStatus) IsDue(now time.Time, interval time.Duration) bool {
	if s == nil || s.LastAttempt == nil {
		return true
	}
	if s.Phase == CheckPhaseChecking {
		return false
	}
	return !now.Before(s.LastAttempt.Add(interval))
}
