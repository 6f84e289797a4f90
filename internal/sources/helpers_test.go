package sources_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gocloud.dev/blob/memblob"

	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/sources/mocks"
	"github.com/stacklok/docsource-server/internal/storage"
)

type taskRecorder struct {
	mu    sync.Mutex
	tasks []*ingest.UploadTask
}

func (r *taskRecorder) all() []*ingest.UploadTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*ingest.UploadTask{}, r.tasks...)
}

type testEnv struct {
	*sources.Env
	ctrl      *gomock.Controller
	recorder  *taskRecorder
	converter *mocks.MockImageConverter
	lookup    *mocks.MockMetadataLookup
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	shared := storage.New(storage.NameSharedUploads, memblob.OpenBucket(nil))
	cache := storage.New(storage.NameSourceCache, memblob.OpenBucket(nil))
	t.Cleanup(func() {
		_ = shared.Close()
		_ = cache.Close()
	})

	recorder := &taskRecorder{}
	submitter := mocks.NewMockTaskSubmitter(ctrl)
	submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, task *ingest.UploadTask) error {
			recorder.mu.Lock()
			defer recorder.mu.Unlock()
			recorder.tasks = append(recorder.tasks, task)
			return nil
		}).AnyTimes()

	env := &testEnv{
		ctrl:      ctrl,
		recorder:  recorder,
		converter: mocks.NewMockImageConverter(ctrl),
		lookup:    mocks.NewMockMetadataLookup(ctrl),
	}
	env.Env = &sources.Env{
		SharedUploads: storage.NewSharedUploads(shared),
		Tasks:         submitter,
		Cache:         cache,
		Converter:     env.converter,
		Documents:     env.lookup,
		LockDir:       t.TempDir(),
	}
	return env
}

func newSource(t *testing.T, id int64, path string, data map[string]any) *sources.Source {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &sources.Source{ID: id, Label: "source", Enabled: true, BackendPath: path, BackendData: raw}
}

func newBackend(t *testing.T, env *sources.Env, src *sources.Source) sources.Backend {
	t.Helper()

	backend, _, err := sources.NewDefaultRegistry().Backend(src, env)
	require.NoError(t, err)
	return backend
}
