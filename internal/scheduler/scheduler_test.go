package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

const (
	testPeriodicPath    = "test.Periodic"
	testInteractivePath = "test.Interactive"
	waitTimeout         = 5 * time.Second
)

// fakeBackend records ProcessDocuments calls
type fakeBackend struct {
	process func(ctx context.Context, opts sources.ProcessOptions) (*sources.ProcessResult, error)
	calls   chan sources.ProcessOptions
}

func (*fakeBackend) Create(context.Context) error                         { return nil }
func (*fakeBackend) Save(context.Context) error                           { return nil }
func (*fakeBackend) Delete(context.Context) error                         { return nil }
func (*fakeBackend) GetViewContext(context.Context) (map[string]any, error) { return nil, nil }
func (*fakeBackend) TaskExtraKwargs() map[string]any                      { return map[string]any{} }

func (b *fakeBackend) ProcessDocuments(ctx context.Context, opts sources.ProcessOptions) (*sources.ProcessResult, error) {
	if b.calls != nil {
		b.calls <- opts
	}
	if b.process != nil {
		return b.process(ctx, opts)
	}
	return &sources.ProcessResult{DocumentsQueued: 2}, nil
}

// watchingBackend triggers a check as soon as it starts watching
type watchingBackend struct {
	*fakeBackend
}

func (*watchingBackend) Watch(ctx context.Context, trigger func()) error {
	trigger()
	<-ctx.Done()
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	sources map[int64]*sources.Source
}

func newFakeStore(srcs ...*sources.Source) *fakeStore {
	s := &fakeStore{sources: make(map[int64]*sources.Source)}
	for _, src := range srcs {
		s.sources[src.ID] = src
	}
	return s
}

func (s *fakeStore) List(context.Context) ([]*sources.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*sources.Source
	for _, src := range s.sources {
		result = append(result, src)
	}
	return result, nil
}

func (s *fakeStore) Get(_ context.Context, id int64) (*sources.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		return src, nil
	}
	return nil, sources.ErrSourceNotFound
}

func testRegistry(t *testing.T, backend sources.Backend) *sources.Registry {
	t.Helper()
	r := sources.NewRegistry()
	require.NoError(t, r.Register(testPeriodicPath, &sources.BackendInfo{
		Label:    "Periodic",
		Periodic: true,
		New:      func(*sources.Source, *sources.Env) (sources.Backend, error) { return backend, nil },
	}))
	require.NoError(t, r.Register(testInteractivePath, &sources.BackendInfo{
		Label:       "Interactive",
		Interactive: true,
		New:         func(*sources.Source, *sources.Env) (sources.Backend, error) { return backend, nil },
	}))
	return r
}

func periodicSource(id int64) *sources.Source {
	return &sources.Source{
		ID:          id,
		Label:       "Mailbox",
		Enabled:     true,
		BackendPath: testPeriodicPath,
		BackendData: []byte(`{"interval":600,"document_type_id":1}`),
	}
}

func newTestScheduler(
	t *testing.T, backend sources.Backend, persistence status.StatusPersistence, srcs ...*sources.Source,
) *defaultScheduler {
	t.Helper()
	if persistence == nil {
		persistence = status.NewFileStatusPersistence(t.TempDir())
	}
	s := New(newFakeStore(srcs...), testRegistry(t, backend), &sources.Env{}, persistence,
		WithPollingInterval(time.Hour), WithMaxConcurrentChecks(2))
	return s.(*defaultScheduler)
}

func startScheduler(t *testing.T, s *defaultScheduler) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(context.Background())
	}()
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
		require.NoError(t, <-errCh)
	})
}

func waitForCall(t *testing.T, calls <-chan sources.ProcessOptions) sources.ProcessOptions {
	t.Helper()
	select {
	case opts := <-calls:
		return opts
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for ProcessDocuments")
		return sources.ProcessOptions{}
	}
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		process       func(context.Context, sources.ProcessOptions) (*sources.ProcessResult, error)
		wantErr       error
		wantReason    string
		wantPhase     status.CheckPhase
		wantMessage   string
		wantDocuments int
		wantAttempts  int
		wantSuccess   bool
	}{
		{
			name:          "success",
			wantPhase:     status.CheckPhaseComplete,
			wantMessage:   "Check completed successfully",
			wantDocuments: 2,
			wantSuccess:   true,
		},
		{
			name: "failure",
			process: func(context.Context, sources.ProcessOptions) (*sources.ProcessResult, error) {
				return nil, errors.New("connection refused")
			},
			wantErr:      errors.New("connection refused"),
			wantReason:   ReasonFailed,
			wantPhase:    status.CheckPhaseFailed,
			wantMessage:  "connection refused",
			wantAttempts: 1,
		},
		{
			name: "busy",
			process: func(context.Context, sources.ProcessOptions) (*sources.ProcessResult, error) {
				return nil, sources.ErrSourceBusy
			},
			wantErr:      sources.ErrSourceBusy,
			wantReason:   ReasonBusy,
			wantPhase:    status.CheckPhaseComplete,
			wantMessage:  "Check skipped: " + sources.ErrSourceBusy.Error(),
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := periodicSource(1)
			s := newTestScheduler(t, &fakeBackend{process: tt.process}, nil, src)

			result, err := s.RunCheck(context.Background(), src, sources.ProcessOptions{})
			if tt.wantErr != nil {
				require.Error(t, err)
				var checkErr *CheckError
				require.ErrorAs(t, err, &checkErr)
				assert.Equal(t, tt.wantReason, checkErr.Reason)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantDocuments, result.DocumentsQueued)
			}

			st, err := s.GetStatus(context.Background(), src.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhase, st.Phase)
			assert.Equal(t, tt.wantMessage, st.Message)
			assert.Equal(t, tt.wantDocuments, st.DocumentsIngested)
			assert.Equal(t, tt.wantAttempts, st.AttemptCount)
			assert.Equal(t, 600, st.IntervalSeconds)
			assert.NotNil(t, st.LastAttempt)
			assert.Equal(t, tt.wantSuccess, st.LastSuccess != nil)
		})
	}
}

func TestRunCheckCountsAttempts(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	fail := true
	backend := &fakeBackend{process: func(context.Context, sources.ProcessOptions) (*sources.ProcessResult, error) {
		if fail {
			return nil, errors.New("timeout")
		}
		return &sources.ProcessResult{DocumentsQueued: 1}, nil
	}}
	s := newTestScheduler(t, backend, nil, src)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, err := s.RunCheck(ctx, src, sources.ProcessOptions{})
		require.Error(t, err)
		st, err := s.GetStatus(ctx, src.ID)
		require.NoError(t, err)
		assert.Equal(t, i, st.AttemptCount)
	}

	fail = false
	_, err := s.RunCheck(ctx, src, sources.ProcessOptions{})
	require.NoError(t, err)
	st, err := s.GetStatus(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.AttemptCount)
	assert.Equal(t, 1, st.DocumentsIngested)
}

func TestRunCheckTestModeLeavesStatus(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	calls := make(chan sources.ProcessOptions, 1)
	s := newTestScheduler(t, &fakeBackend{calls: calls}, nil, src)

	result, err := s.RunCheck(context.Background(), src, sources.ProcessOptions{TestMode: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DocumentsQueued)
	assert.True(t, (<-calls).TestMode)

	st, err := s.GetStatus(context.Background(), src.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CheckPhase(""), st.Phase)
	assert.Nil(t, st.LastAttempt)
}

func TestRunCheckInProgress(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	s := newTestScheduler(t, &fakeBackend{}, nil, src)
	require.True(t, s.claim(src.ID))

	_, err := s.RunCheck(context.Background(), src, sources.ProcessOptions{TestMode: true})
	assert.ErrorIs(t, err, ErrCheckInProgress)

	s.release(src.ID)
	_, err = s.RunCheck(context.Background(), src, sources.ProcessOptions{TestMode: true})
	assert.NoError(t, err)
}

func TestRunCheckUnknownBackend(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	src.BackendPath = "sources.Missing"
	s := newTestScheduler(t, &fakeBackend{}, nil, src)

	_, err := s.RunCheck(context.Background(), src, sources.ProcessOptions{})
	var checkErr *CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, ReasonBackend, checkErr.Reason)
	assert.ErrorIs(t, err, sources.ErrBackendNotFound)
}

func TestStartRunsDueChecks(t *testing.T) {
	t.Parallel()

	due := periodicSource(1)
	disabled := periodicSource(2)
	disabled.Enabled = false
	interactive := periodicSource(3)
	interactive.BackendPath = testInteractivePath

	calls := make(chan sources.ProcessOptions, 4)
	s := newTestScheduler(t, &fakeBackend{calls: calls}, nil, due, disabled, interactive)
	startScheduler(t, s)

	opts := waitForCall(t, calls)
	assert.False(t, opts.TestMode)

	require.Eventually(t, func() bool {
		st, err := s.GetStatus(context.Background(), due.ID)
		return err == nil && st.Phase == status.CheckPhaseComplete
	}, waitTimeout, 10*time.Millisecond)

	assert.Empty(t, calls, "only the enabled periodic source is checked")
}

func TestStartResetsInterruptedChecks(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	persistence := status.NewFileStatusPersistence(t.TempDir())
	recent := time.Now()
	require.NoError(t, persistence.SaveStatus(context.Background(), src.ID, &status.CheckStatus{
		Phase:       status.CheckPhaseChecking,
		LastAttempt: &recent,
	}))

	calls := make(chan sources.ProcessOptions, 1)
	s := newTestScheduler(t, &fakeBackend{calls: calls}, persistence, src)
	startScheduler(t, s)

	require.Eventually(t, func() bool {
		st, err := persistence.LoadStatus(context.Background(), src.ID)
		return err == nil && st.Phase == status.CheckPhaseFailed && st.Message == interruptedMessage
	}, waitTimeout, 10*time.Millisecond)

	// The interrupted attempt was recent, so no check is due yet
	assert.Empty(t, calls)
}

func TestTriggerRunsCheckBeforeInterval(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	persistence := status.NewFileStatusPersistence(t.TempDir())
	recent := time.Now()
	require.NoError(t, persistence.SaveStatus(context.Background(), src.ID, &status.CheckStatus{
		Phase:       status.CheckPhaseComplete,
		LastAttempt: &recent,
	}))

	calls := make(chan sources.ProcessOptions, 1)
	s := newTestScheduler(t, &fakeBackend{calls: calls}, persistence, src)
	startScheduler(t, s)

	s.Trigger(404)
	s.Trigger(src.ID)
	waitForCall(t, calls)
}

func TestWatcherTriggersCheck(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	persistence := status.NewFileStatusPersistence(t.TempDir())
	recent := time.Now()
	require.NoError(t, persistence.SaveStatus(context.Background(), src.ID, &status.CheckStatus{
		Phase:       status.CheckPhaseComplete,
		LastAttempt: &recent,
	}))

	calls := make(chan sources.ProcessOptions, 1)
	s := newTestScheduler(t, &watchingBackend{&fakeBackend{calls: calls}}, persistence, src)
	startScheduler(t, s)

	waitForCall(t, calls)
}

func TestForget(t *testing.T) {
	t.Parallel()

	src := periodicSource(1)
	persistence := status.NewFileStatusPersistence(t.TempDir())
	s := newTestScheduler(t, &fakeBackend{}, persistence, src)
	ctx := context.Background()

	_, err := s.RunCheck(ctx, src, sources.ProcessOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Forget(ctx, src.ID))

	st, err := persistence.LoadStatus(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CheckPhase(""), st.Phase)

	st, err = s.GetStatus(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CheckPhase(""), st.Phase)
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t, &fakeBackend{}, nil)
	assert.NoError(t, s.Stop())
}

func TestJitteredInterval(t *testing.T) {
	t.Parallel()

	base := 40 * time.Second
	for range 100 {
		d := jitteredInterval(base)
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.Less(t, d, 50*time.Second)
	}
	assert.Equal(t, time.Duration(0), jitteredInterval(0))
}
