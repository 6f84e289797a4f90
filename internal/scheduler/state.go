package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

const interruptedMessage = "Previous check was interrupted"

// stateService caches check statuses in front of their persistence
type stateService struct {
	persistence status.StatusPersistence

	mu       sync.RWMutex
	statuses map[int64]*status.CheckStatus
}

func newStateService(persistence status.StatusPersistence) *stateService {
	return &stateService{
		persistence: persistence,
		statuses:    make(map[int64]*status.CheckStatus),
	}
}

// initialize loads the status of every periodic source. A status left in
// Checking belongs to a check that died with the previous process.
func (s *stateService) initialize(ctx context.Context, srcs []*sources.Source) {
	for _, src := range srcs {
		st, err := s.persistence.LoadStatus(ctx, src.ID)
		if err != nil {
			logger.Warnf("Source %d: Failed to load check status, initializing with defaults: %v", src.ID, err)
			st = &status.CheckStatus{}
		}

		if st.Phase == status.CheckPhaseChecking {
			logger.Warnf("Source %d: Previous check was interrupted (status=Checking), resetting to Failed", src.ID)
			st.Phase = status.CheckPhaseFailed
			st.Message = interruptedMessage
			if err := s.persistence.SaveStatus(ctx, src.ID, st); err != nil {
				logger.Warnf("Source %d: Failed to persist corrected check status: %v", src.ID, err)
			}
		}

		if st.LastSuccess != nil {
			logger.Infof("Source %d: Loaded check status: phase=%s, last success at %s, %d documents",
				src.ID, st.Phase, st.LastSuccess.Format(time.RFC3339), st.DocumentsIngested)
		} else {
			logger.Debugf("Source %d: Check status: phase=%s, no previous success", src.ID, st.Phase)
		}

		s.mu.Lock()
		s.statuses[src.ID] = st
		s.mu.Unlock()
	}
}

// get returns a copy of the status of a source, loading it when not cached
func (s *stateService) get(ctx context.Context, sourceID int64) (*status.CheckStatus, error) {
	s.mu.RLock()
	st, ok := s.statuses[sourceID]
	s.mu.RUnlock()
	if ok {
		return st.Copy(), nil
	}

	st, err := s.persistence.LoadStatus(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.statuses[sourceID]; ok {
		return cached.Copy(), nil
	}
	s.statuses[sourceID] = st
	return st.Copy(), nil
}

// update applies fn to the status of a source and persists the result
func (s *stateService) update(ctx context.Context, sourceID int64, fn func(st *status.CheckStatus)) error {
	if _, err := s.get(ctx, sourceID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[sourceID].Copy()
	fn(st)
	if err := s.persistence.SaveStatus(ctx, sourceID, st); err != nil {
		return fmt.Errorf("failed to persist check status of source %d: %w", sourceID, err)
	}
	s.statuses[sourceID] = st
	return nil
}

// forget drops the status of a deleted source
func (s *stateService) forget(ctx context.Context, sourceID int64) error {
	s.mu.Lock()
	delete(s.statuses, sourceID)
	s.mu.Unlock()
	return s.persistence.DeleteStatus(ctx, sourceID)
}
