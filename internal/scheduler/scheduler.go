package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
	"github.com/stacklok/docsource-server/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mocks -source=scheduler.go Scheduler,SourceLister

// Scheduler manages the periodic checks of document sources
type Scheduler interface {
	// Start runs the polling loop. It blocks until the context is cancelled.
	Start(ctx context.Context) error

	// Stop cancels the polling loop and waits for running checks
	Stop() error

	// Trigger requests an immediate check of a source
	Trigger(sourceID int64)

	// RunCheck runs the check of a source synchronously. Test mode checks
	// leave the check status untouched.
	RunCheck(ctx context.Context, src *sources.Source, opts sources.ProcessOptions) (*sources.ProcessResult, error)

	// GetStatus returns the check status of a source
	GetStatus(ctx context.Context, sourceID int64) (*status.CheckStatus, error)

	// Forget removes the check status of a deleted source
	Forget(ctx context.Context, sourceID int64) error
}

// SourceLister reads sources from their store
type SourceLister interface {
	List(ctx context.Context) ([]*sources.Source, error)
	Get(ctx context.Context, id int64) (*sources.Source, error)
}

// Option is a function that configures the scheduler
type Option func(*defaultScheduler)

// WithPollingInterval sets the base polling interval
func WithPollingInterval(d time.Duration) Option {
	return func(s *defaultScheduler) {
		if d > 0 {
			s.pollingInterval = d
		}
	}
}

// WithMaxConcurrentChecks bounds how many checks run at once
func WithMaxConcurrentChecks(n int) Option {
	return func(s *defaultScheduler) {
		if n > 0 {
			s.maxChecks = n
		}
	}
}

// WithCheckMetrics sets the check metrics for the scheduler
func WithCheckMetrics(metrics *telemetry.CheckMetrics) Option {
	return func(s *defaultScheduler) {
		s.metrics = metrics
	}
}

type watcher struct {
	cancel    context.CancelFunc
	updatedAt time.Time
}

// defaultScheduler is the default implementation of Scheduler
type defaultScheduler struct {
	store    SourceLister
	registry *sources.Registry
	env      *sources.Env
	state    *stateService
	metrics  *telemetry.CheckMetrics
	now      func() time.Time

	pollingInterval time.Duration
	maxChecks       int
	slots           *semaphore.Weighted

	triggers chan int64

	mu       sync.Mutex
	inFlight map[int64]bool
	watchers map[int64]*watcher

	// Lifecycle management
	cancelFunc context.CancelFunc
	running    sync.WaitGroup
	done       chan struct{}
}

// New creates a new scheduler with injected dependencies
func New(
	store SourceLister,
	registry *sources.Registry,
	env *sources.Env,
	persistence status.StatusPersistence,
	opts ...Option,
) Scheduler {
	s := &defaultScheduler{
		store:           store,
		registry:        registry,
		env:             env,
		state:           newStateService(persistence),
		now:             time.Now,
		pollingInterval: defaultPollingInterval,
		maxChecks:       defaultMaxChecks,
		triggers:        make(chan int64, triggerBuffer),
		inFlight:        make(map[int64]bool),
		watchers:        make(map[int64]*watcher),
		done:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.slots = semaphore.NewWeighted(int64(s.maxChecks))

	return s
}

// Start begins background check scheduling for all periodic sources
func (s *defaultScheduler) Start(ctx context.Context) error {
	schedCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()
	defer func() {
		s.stopWatchers()
		s.running.Wait()
		close(s.done)
		slog.Info("Source check scheduler shut down")
	}()

	periodic, err := s.periodicSources(schedCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize source check status: %w", err)
	}
	s.state.initialize(schedCtx, periodic)

	pollingInterval := jitteredInterval(s.pollingInterval)
	slog.Info("Starting source check scheduler",
		"periodic_sources", len(periodic),
		"base_interval", s.pollingInterval,
		"actual_interval", pollingInterval,
		"max_concurrent_checks", s.maxChecks)

	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()

	s.processDueChecks(schedCtx)

	for {
		select {
		case <-ticker.C:
			s.processDueChecks(schedCtx)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(jitteredInterval(s.pollingInterval))
		case sourceID := <-s.triggers:
			s.processTrigger(schedCtx, sourceID)
		case <-schedCtx.Done():
			slog.Info("Source check scheduler stopping")
			return nil
		}
	}
}

// Stop gracefully stops the scheduler
func (s *defaultScheduler) Stop() error {
	s.mu.Lock()
	cancel := s.cancelFunc
	s.mu.Unlock()
	if cancel != nil {
		slog.Info("Stopping source check scheduler")
		cancel()
		<-s.done
	}
	return nil
}

// Trigger queues an immediate check; requests beyond the buffer are dropped
// since the source is already waiting for a check.
func (s *defaultScheduler) Trigger(sourceID int64) {
	select {
	case s.triggers <- sourceID:
	default:
		slog.Debug("Check trigger dropped, queue full", "source_id", sourceID)
	}
}

// GetStatus returns the check status of a source
func (s *defaultScheduler) GetStatus(ctx context.Context, sourceID int64) (*status.CheckStatus, error) {
	return s.state.get(ctx, sourceID)
}

// Forget removes the check status and watcher of a deleted source
func (s *defaultScheduler) Forget(ctx context.Context, sourceID int64) error {
	s.mu.Lock()
	if w, ok := s.watchers[sourceID]; ok {
		w.cancel()
		delete(s.watchers, sourceID)
	}
	s.mu.Unlock()
	return s.state.forget(ctx, sourceID)
}

// periodicSources lists the enabled sources bound to a periodic backend
func (s *defaultScheduler) periodicSources(ctx context.Context) ([]*sources.Source, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []*sources.Source
	for _, src := range all {
		if s.isPeriodic(src) {
			result = append(result, src)
		}
	}
	return result, nil
}

func (s *defaultScheduler) isPeriodic(src *sources.Source) bool {
	if !src.Enabled {
		return false
	}
	info, err := s.registry.Get(src.BackendPath)
	return err == nil && info.Periodic
}

// processDueChecks starts the check of every periodic source whose interval elapsed
func (s *defaultScheduler) processDueChecks(ctx context.Context) {
	periodic, err := s.periodicSources(ctx)
	if err != nil {
		slog.Error("Error listing sources for periodic checks", "error", err)
		return
	}

	s.syncWatchers(ctx, periodic)

	now := s.now()
	for _, src := range periodic {
		st, err := s.state.get(ctx, src.ID)
		if err != nil {
			slog.Error("Error reading check status", "source_id", src.ID, "error", err)
			continue
		}
		if !st.IsDue(now, sources.Interval(src)) {
			continue
		}
		s.startCheck(ctx, src)
	}
}

// processTrigger starts the check of one source regardless of its interval
func (s *defaultScheduler) processTrigger(ctx context.Context, sourceID int64) {
	src, err := s.store.Get(ctx, sourceID)
	if err != nil {
		slog.Warn("Triggered source not found", "source_id", sourceID, "error", err)
		return
	}
	if !s.isPeriodic(src) {
		slog.Debug("Ignoring trigger for a source without periodic checks", "source_id", sourceID)
		return
	}
	s.startCheck(ctx, src)
}

// startCheck runs a check in the background once a slot is free
func (s *defaultScheduler) startCheck(ctx context.Context, src *sources.Source) {
	if !s.claim(src.ID) {
		slog.Debug("Check already in progress", "source_id", src.ID)
		return
	}

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		defer s.release(src.ID)

		if err := s.slots.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.slots.Release(1)

		if _, err := s.check(ctx, src, sources.ProcessOptions{}); err != nil {
			var checkErr *CheckError
			if errors.As(err, &checkErr) && checkErr.Reason == ReasonBusy {
				return
			}
			slog.Error("Periodic check failed", "source_id", src.ID, "error", err)
		}
	}()
}

// RunCheck runs the check of a source now, on the caller's goroutine
func (s *defaultScheduler) RunCheck(
	ctx context.Context, src *sources.Source, opts sources.ProcessOptions,
) (*sources.ProcessResult, error) {
	if !s.claim(src.ID) {
		return nil, &CheckError{SourceID: src.ID, Reason: ReasonInProgress, Err: ErrCheckInProgress}
	}
	defer s.release(src.ID)
	return s.check(ctx, src, opts)
}

func (s *defaultScheduler) claim(sourceID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sourceID] {
		return false
	}
	s.inFlight[sourceID] = true
	return true
}

func (s *defaultScheduler) release(sourceID int64) {
	s.mu.Lock()
	delete(s.inFlight, sourceID)
	s.mu.Unlock()
}

// syncWatchers starts a watcher for every periodic source whose backend can
// watch, restarting it when the source changed and stopping stale ones.
func (s *defaultScheduler) syncWatchers(ctx context.Context, periodic []*sources.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool, len(periodic))
	for _, src := range periodic {
		seen[src.ID] = true
		if w, ok := s.watchers[src.ID]; ok {
			if w.updatedAt.Equal(src.UpdatedAt) {
				continue
			}
			w.cancel()
			delete(s.watchers, src.ID)
		}

		backend, _, err := s.registry.Backend(src, s.env)
		if err != nil {
			continue
		}
		w, ok := backend.(sources.Watcher)
		if !ok {
			continue
		}

		watchCtx, cancel := context.WithCancel(ctx)
		s.watchers[src.ID] = &watcher{cancel: cancel, updatedAt: src.UpdatedAt}
		sourceID := src.ID
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			if err := w.Watch(watchCtx, func() { s.Trigger(sourceID) }); err != nil && watchCtx.Err() == nil {
				slog.Warn("Source watcher stopped", "source_id", sourceID, "error", err)
			}
		}()
	}

	for id, w := range s.watchers {
		if !seen[id] {
			w.cancel()
			delete(s.watchers, id)
		}
	}
}

func (s *defaultScheduler) stopWatchers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.watchers {
		w.cancel()
		delete(s.watchers, id)
	}
}
