package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

// ErrCheckInProgress is returned when a check of the source is already running
var ErrCheckInProgress = errors.New("a check of this source is already in progress")

// Check failure reasons
const (
	ReasonInProgress = "in_progress"
	ReasonBusy       = "busy"
	ReasonBackend    = "backend"
	ReasonFailed     = "failed"
)

// CheckError reports why a check did not complete
type CheckError struct {
	SourceID int64
	Reason   string
	Err      error
}

// Error implements error
func (e *CheckError) Error() string {
	return fmt.Sprintf("check of source %d failed (%s): %v", e.SourceID, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *CheckError) Unwrap() error {
	return e.Err
}

// check runs ProcessDocuments and records the outcome in the check status
func (s *defaultScheduler) check(
	ctx context.Context, src *sources.Source, opts sources.ProcessOptions,
) (*sources.ProcessResult, error) {
	backend, _, err := s.registry.Backend(src, s.env)
	if err != nil {
		return nil, &CheckError{SourceID: src.ID, Reason: ReasonBackend, Err: err}
	}

	if opts.TestMode {
		logger.Infof("Source %d: Running test check", src.ID)
		result, err := backend.ProcessDocuments(ctx, opts)
		if err != nil {
			return nil, &CheckError{SourceID: src.ID, Reason: reasonFor(err), Err: err}
		}
		return result, nil
	}

	interval := sources.Interval(src)
	startTime := s.now()
	var attemptCount int
	if err := s.state.update(ctx, src.ID, func(st *status.CheckStatus) {
		st.Phase = status.CheckPhaseChecking
		st.Message = "Check in progress"
		st.LastAttempt = &startTime
		st.AttemptCount++
		st.IntervalSeconds = int(interval / time.Second)
		attemptCount = st.AttemptCount
	}); err != nil {
		logger.Warnf("Source %d: Failed to persist checking status: %v", src.ID, err)
	}

	// Always leave the status in a final phase, even if the backend panics.
	final := func(st *status.CheckStatus) {
		st.Phase = status.CheckPhaseFailed
		st.Message = fmt.Sprintf("Unexpected failure while checking source %s", src.Label)
	}
	defer func() {
		if err := s.state.update(context.WithoutCancel(ctx), src.ID, final); err != nil {
			logger.Errorf("Source %d: Failed to persist final check status: %v", src.ID, err)
		}
	}()

	logger.Infof("Source %d: Starting check (attempt %d)", src.ID, attemptCount)

	result, err := backend.ProcessDocuments(ctx, opts)
	duration := s.now().Sub(startTime)
	s.metrics.RecordCheckDuration(ctx, src.ID, src.BackendPath, duration, err == nil)

	if err != nil {
		reason := reasonFor(err)
		if reason == ReasonBusy {
			logger.Infof("Source %d: Check skipped: %v", src.ID, err)
			final = func(st *status.CheckStatus) {
				st.Phase = status.CheckPhaseComplete
				st.Message = fmt.Sprintf("Check skipped: %v", err)
			}
		} else {
			logger.Errorf("Source %d: Check failed: %v", src.ID, err)
			final = func(st *status.CheckStatus) {
				st.Phase = status.CheckPhaseFailed
				st.Message = err.Error()
				if result != nil {
					st.DocumentsIngested = result.DocumentsQueued
				}
			}
		}
		return result, &CheckError{SourceID: src.ID, Reason: reason, Err: err}
	}
	if result == nil {
		result = &sources.ProcessResult{}
	}

	now := s.now()
	final = func(st *status.CheckStatus) {
		st.Phase = status.CheckPhaseComplete
		st.Message = "Check completed successfully"
		st.LastSuccess = &now
		st.AttemptCount = 0
		st.DocumentsIngested = result.DocumentsQueued
	}
	logger.Infof("Source %d: Check completed successfully: %d documents queued in %s",
		src.ID, result.DocumentsQueued, duration)
	return result, nil
}

func reasonFor(err error) string {
	if errors.Is(err, sources.ErrSourceBusy) {
		return ReasonBusy
	}
	return ReasonFailed
}
