package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	docmocks "github.com/stacklok/docsource-server/internal/documents/mocks"
	"github.com/stacklok/docsource-server/internal/ingest"
	schedmocks "github.com/stacklok/docsource-server/internal/scheduler/mocks"
	"github.com/stacklok/docsource-server/internal/service/db/mocks"
	"github.com/stacklok/docsource-server/internal/sources"
	srcmocks "github.com/stacklok/docsource-server/internal/sources/mocks"
)

const (
	testPeriodicPath    = "test.Periodic"
	testInteractivePath = "test.Interactive"
)

// uploadingBackend is an interactive backend with a scripted upload
type uploadingBackend struct {
	*srcmocks.MockBackend
	upload func(ctx context.Context, req *sources.UploadRequest) ([]*ingest.UploadTask, error)
}

func (b *uploadingBackend) Upload(ctx context.Context, req *sources.UploadRequest) ([]*ingest.UploadTask, error) {
	return b.upload(ctx, req)
}

type testService struct {
	*dbService
	ctrl      *gomock.Controller
	store     *mocks.MockSourceStore
	docs      *docmocks.MockStore
	scheduler *schedmocks.MockScheduler
	backend   *srcmocks.MockBackend
	uploader  *uploadingBackend
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	ctrl := gomock.NewController(t)
	ts := &testService{
		ctrl:      ctrl,
		store:     mocks.NewMockSourceStore(ctrl),
		docs:      docmocks.NewMockStore(ctrl),
		scheduler: schedmocks.NewMockScheduler(ctrl),
		backend:   srcmocks.NewMockBackend(ctrl),
	}
	ts.uploader = &uploadingBackend{MockBackend: srcmocks.NewMockBackend(ctrl)}

	registry := sources.NewRegistry()
	require.NoError(t, registry.Register(testPeriodicPath, &sources.BackendInfo{
		Label:    "Periodic",
		Periodic: true,
		New:      func(*sources.Source, *sources.Env) (sources.Backend, error) { return ts.backend, nil },
	}))
	require.NoError(t, registry.Register(testInteractivePath, &sources.BackendInfo{
		Label:       "Interactive",
		Interactive: true,
		New:         func(*sources.Source, *sources.Env) (sources.Backend, error) { return ts.uploader, nil },
	}))

	svc, err := New(
		WithSourceStore(ts.store),
		WithDocumentStore(ts.docs),
		WithRegistry(registry, &sources.Env{}),
		WithScheduler(ts.scheduler),
	)
	require.NoError(t, err)
	ts.dbService = svc.(*dbService)
	return ts
}

func testSource(id int64, path string, enabled bool, data map[string]any) *sources.Source {
	raw, _ := json.Marshal(data)
	return &sources.Source{
		ID:          id,
		Label:       "Source " + path,
		Enabled:     enabled,
		BackendPath: path,
		BackendData: raw,
	}
}
