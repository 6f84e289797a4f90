package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/scheduler"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCreateSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     *service.SourceInput
		setup     func(ts *testService)
		wantErr   error
		wantField *string
	}{
		{
			name:  "periodic source is checked right away",
			input: &service.SourceInput{Label: " Mailbox ", Enabled: true, BackendPath: testPeriodicPath, BackendData: json.RawMessage(`{"interval":60}`)},
			setup: func(ts *testService) {
				ts.store.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, src *sources.Source) (*sources.Source, error) {
						assert.Equal(t, "Mailbox", src.Label)
						assert.JSONEq(t, `{"interval":60}`, string(src.BackendData))
						created := *src
						created.ID = 7
						return &created, nil
					})
				ts.backend.EXPECT().Create(gomock.Any()).Return(nil)
				ts.scheduler.EXPECT().Trigger(int64(7))
			},
		},
		{
			name:  "disabled source is not triggered",
			input: &service.SourceInput{Label: "Mailbox", BackendPath: testPeriodicPath},
			setup: func(ts *testService) {
				ts.store.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, src *sources.Source) (*sources.Source, error) {
						created := *src
						created.ID = 8
						return &created, nil
					})
				ts.backend.EXPECT().Create(gomock.Any()).Return(nil)
			},
		},
		{
			name:      "label is required",
			input:     &service.SourceInput{Label: "  ", BackendPath: testPeriodicPath},
			wantField: ptr("label"),
		},
		{
			name:      "backend path is required",
			input:     &service.SourceInput{Label: "Mailbox"},
			wantField: ptr("backend_path"),
		},
		{
			name:    "unknown backend",
			input:   &service.SourceInput{Label: "Mailbox", BackendPath: "sources.Telex"},
			wantErr: sources.ErrBackendNotFound,
		},
		{
			name:      "backend data must be an object",
			input:     &service.SourceInput{Label: "Mailbox", BackendPath: testPeriodicPath, BackendData: json.RawMessage(`[1]`)},
			wantField: ptr(""),
		},
		{
			name:  "duplicate label",
			input: &service.SourceInput{Label: "Mailbox", BackendPath: testPeriodicPath},
			setup: func(ts *testService) {
				ts.store.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("%w: Mailbox", sources.ErrDuplicateLabel))
			},
			wantErr: sources.ErrDuplicateLabel,
		},
		{
			name:  "failed create hook removes the record",
			input: &service.SourceInput{Label: "Mailbox", BackendPath: testPeriodicPath},
			setup: func(ts *testService) {
				ts.store.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, src *sources.Source) (*sources.Source, error) {
						created := *src
						created.ID = 9
						return &created, nil
					})
				ts.backend.EXPECT().Create(gomock.Any()).Return(errors.New("permission denied"))
				ts.store.EXPECT().Delete(gomock.Any(), int64(9)).Return(nil)
			},
			wantErr: errors.New("failed to set up source Mailbox: permission denied"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestService(t)
			if tt.setup != nil {
				tt.setup(ts)
			}

			src, err := ts.CreateSource(context.Background(), tt.input)
			switch {
			case tt.wantField != nil:
				var ve *sources.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Fields, *tt.wantField)
			case tt.wantErr != nil:
				require.Error(t, err)
				if errors.Is(err, tt.wantErr) {
					return
				}
				assert.Equal(t, tt.wantErr.Error(), err.Error())
			default:
				require.NoError(t, err)
				assert.NotZero(t, src.ID)
			}
		})
	}
}

func TestUpdateSource(t *testing.T) {
	t.Parallel()

	current := testSource(3, testPeriodicPath, true, map[string]any{"interval": 60})

	tests := []struct {
		name     string
		update   *service.SourceUpdate
		setup    func(ts *testService)
		wantErr  error
		validate func(t *testing.T, saved *sources.Source)
	}{
		{
			name:   "partial update keeps backend data",
			update: &service.SourceUpdate{Enabled: ptr(false)},
			validate: func(t *testing.T, saved *sources.Source) {
				t.Helper()
				assert.False(t, saved.Enabled)
				assert.Equal(t, current.Label, saved.Label)
				assert.JSONEq(t, `{"interval":60}`, string(saved.BackendData))
			},
		},
		{
			name:   "backend data is replaced",
			update: &service.SourceUpdate{Label: ptr("Renamed"), BackendData: json.RawMessage(`{"interval":120}`)},
			setup: func(ts *testService) {
				ts.scheduler.EXPECT().Trigger(int64(3))
			},
			validate: func(t *testing.T, saved *sources.Source) {
				t.Helper()
				assert.Equal(t, "Renamed", saved.Label)
				assert.JSONEq(t, `{"interval":120}`, string(saved.BackendData))
			},
		},
		{
			name:    "empty label",
			update:  &service.SourceUpdate{Label: ptr("")},
			wantErr: &sources.ValidationError{},
		},
		{
			name:    "unknown new backend",
			update:  &service.SourceUpdate{BackendPath: ptr("sources.Telex")},
			wantErr: sources.ErrBackendNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestService(t)
			ts.store.EXPECT().Get(gomock.Any(), int64(3)).DoAndReturn(
				func(context.Context, int64) (*sources.Source, error) {
					copied := *current
					return &copied, nil
				})
			if tt.setup != nil {
				tt.setup(ts)
			}

			var saved *sources.Source
			if tt.validate != nil {
				ts.store.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, src *sources.Source) (*sources.Source, error) {
						saved = src
						return src, nil
					})
				ts.backend.EXPECT().Save(gomock.Any()).Return(nil)
			}

			_, err := ts.UpdateSource(context.Background(), 3, tt.update)
			if tt.wantErr != nil {
				var ve *sources.ValidationError
				if errors.As(tt.wantErr, &ve) {
					assert.ErrorAs(t, err, &ve)
					return
				}
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validate(t, saved)
		})
	}
}

func TestUpdateSourceNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestService(t)
	ts.store.EXPECT().Get(gomock.Any(), int64(404)).Return(nil, sources.ErrSourceNotFound)

	_, err := ts.UpdateSource(context.Background(), 404, &service.SourceUpdate{Enabled: ptr(true)})
	assert.ErrorIs(t, err, sources.ErrSourceNotFound)
}

func TestDeleteSource(t *testing.T) {
	t.Parallel()

	t.Run("runs hook, deletes and forgets", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		src := testSource(4, testPeriodicPath, true, nil)
		gomock.InOrder(
			ts.store.EXPECT().Get(gomock.Any(), int64(4)).Return(src, nil),
			ts.backend.EXPECT().Delete(gomock.Any()).Return(nil),
			ts.store.EXPECT().Delete(gomock.Any(), int64(4)).Return(nil),
			ts.scheduler.EXPECT().Forget(gomock.Any(), int64(4)).Return(nil),
		)
		require.NoError(t, ts.DeleteSource(context.Background(), 4))
	})

	t.Run("failed hook keeps the record", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		src := testSource(4, testPeriodicPath, true, nil)
		ts.store.EXPECT().Get(gomock.Any(), int64(4)).Return(src, nil)
		ts.backend.EXPECT().Delete(gomock.Any()).Return(errors.New("busy"))

		err := ts.DeleteSource(context.Background(), 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to tear down source")
	})

	t.Run("unregistered backend is still deleted", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		src := testSource(5, "sources.Removed", true, nil)
		ts.store.EXPECT().Get(gomock.Any(), int64(5)).Return(src, nil)
		ts.store.EXPECT().Delete(gomock.Any(), int64(5)).Return(nil)
		ts.scheduler.EXPECT().Forget(gomock.Any(), int64(5)).Return(nil)
		require.NoError(t, ts.DeleteSource(context.Background(), 5))
	})
}

func TestTestSource(t *testing.T) {
	t.Parallel()

	t.Run("runs a test mode check", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		src := testSource(6, testPeriodicPath, true, nil)
		ts.store.EXPECT().Get(gomock.Any(), int64(6)).Return(src, nil)
		ts.scheduler.EXPECT().RunCheck(gomock.Any(), src, sources.ProcessOptions{TestMode: true}).
			Return(&sources.ProcessResult{DocumentsQueued: 3}, nil)

		result, err := ts.TestSource(context.Background(), 6)
		require.NoError(t, err)
		assert.Equal(t, 3, result.DocumentsQueued)
	})

	t.Run("interactive sources have no check", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		ts.store.EXPECT().Get(gomock.Any(), int64(1)).Return(testSource(1, testInteractivePath, true, nil), nil)

		_, err := ts.TestSource(context.Background(), 1)
		assert.ErrorIs(t, err, service.ErrNotPeriodic)
	})

	t.Run("check in progress", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		src := testSource(6, testPeriodicPath, true, nil)
		ts.store.EXPECT().Get(gomock.Any(), int64(6)).Return(src, nil)
		ts.scheduler.EXPECT().RunCheck(gomock.Any(), src, gomock.Any()).
			Return(nil, &scheduler.CheckError{SourceID: 6, Reason: scheduler.ReasonInProgress, Err: scheduler.ErrCheckInProgress})

		_, err := ts.TestSource(context.Background(), 6)
		assert.ErrorIs(t, err, scheduler.ErrCheckInProgress)
	})
}

func TestGetSourceStatus(t *testing.T) {
	t.Parallel()

	ts := newTestService(t)
	ts.store.EXPECT().Get(gomock.Any(), int64(6)).Return(testSource(6, testPeriodicPath, true, nil), nil)
	ts.scheduler.EXPECT().GetStatus(gomock.Any(), int64(6)).
		Return(&status.CheckStatus{Phase: status.CheckPhaseComplete, DocumentsIngested: 2}, nil)

	st, err := ts.GetSourceStatus(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, status.CheckPhaseComplete, st.Phase)
	assert.Equal(t, 2, st.DocumentsIngested)
}

func TestBackends(t *testing.T) {
	t.Parallel()

	ts := newTestService(t)
	choices := ts.ListBackends()
	require.Len(t, choices, 2)
	assert.Equal(t, "Interactive", choices[0].Label)
	assert.Equal(t, "Periodic", choices[1].Label)

	_, err := ts.GetBackendSchema(testPeriodicPath)
	require.NoError(t, err)
	_, err = ts.GetBackendSchema("sources.Telex")
	assert.ErrorIs(t, err, sources.ErrBackendNotFound)
}

func TestGetUploadView(t *testing.T) {
	t.Parallel()

	disabled := testSource(1, testInteractivePath, false, nil)
	first := testSource(2, testInteractivePath, true, nil)
	second := testSource(3, testInteractivePath, true, nil)
	periodicSrc := testSource(4, testPeriodicPath, true, nil)

	tests := []struct {
		name     string
		sources  []*sources.Source
		sourceID *int64
		wantID   int64
		wantErr  error
	}{
		{
			name:    "default is the first enabled interactive source",
			sources: []*sources.Source{disabled, first, second, periodicSrc},
			wantID:  2,
		},
		{
			name:     "explicit source",
			sources:  []*sources.Source{disabled, first, second},
			sourceID: ptr(int64(3)),
			wantID:   3,
		},
		{
			name:     "disabled source cannot be selected",
			sources:  []*sources.Source{disabled, first},
			sourceID: ptr(int64(1)),
			wantErr:  sources.ErrSourceNotFound,
		},
		{
			name:     "periodic source cannot be selected",
			sources:  []*sources.Source{first, periodicSrc},
			sourceID: ptr(int64(4)),
			wantErr:  sources.ErrSourceNotFound,
		},
		{
			name:    "no interactive sources",
			sources: []*sources.Source{disabled, periodicSrc},
			wantErr: service.ErrNoInteractiveSources,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestService(t)
			ts.store.EXPECT().List(gomock.Any()).Return(tt.sources, nil)
			if tt.wantErr == nil {
				ts.uploader.EXPECT().GetViewContext(gomock.Any()).Return(map[string]any{"form": "files"}, nil)
			}

			view, err := ts.GetUploadView(context.Background(), tt.sourceID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, view.Source.ID)
			assert.Equal(t, "files", view.Context["form"])
			for _, src := range view.Sources {
				assert.True(t, src.Enabled)
				assert.Equal(t, testInteractivePath, src.BackendPath)
			}
		})
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	t.Run("queues through the backend", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		ts.store.EXPECT().Get(gomock.Any(), int64(2)).Return(testSource(2, testInteractivePath, true, nil), nil)
		ts.docs.EXPECT().GetDocumentType(gomock.Any(), int64(1)).Return(&documents.DocumentType{ID: 1}, nil)
		ts.uploader.upload = func(_ context.Context, req *sources.UploadRequest) ([]*ingest.UploadTask, error) {
			assert.Equal(t, "alice", req.UserID)
			return []*ingest.UploadTask{{SourceID: 2, DocumentTypeID: 1}}, nil
		}

		tasks, err := ts.Upload(context.Background(), 2, &sources.UploadRequest{DocumentTypeID: 1, UserID: "alice"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
	})

	t.Run("unknown document type", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		ts.store.EXPECT().Get(gomock.Any(), int64(2)).Return(testSource(2, testInteractivePath, true, nil), nil)
		ts.docs.EXPECT().GetDocumentType(gomock.Any(), int64(9)).Return(nil, documents.ErrDocumentTypeNotFound)

		_, err := ts.Upload(context.Background(), 2, &sources.UploadRequest{DocumentTypeID: 9})
		assert.ErrorIs(t, err, documents.ErrDocumentTypeNotFound)
	})

	t.Run("disabled source", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		ts.store.EXPECT().Get(gomock.Any(), int64(1)).Return(testSource(1, testInteractivePath, false, nil), nil)

		_, err := ts.Upload(context.Background(), 1, &sources.UploadRequest{DocumentTypeID: 1})
		assert.ErrorIs(t, err, sources.ErrNotInteractive)
	})

	t.Run("periodic source", func(t *testing.T) {
		t.Parallel()

		ts := newTestService(t)
		ts.store.EXPECT().Get(gomock.Any(), int64(4)).Return(testSource(4, testPeriodicPath, true, nil), nil)

		_, err := ts.Upload(context.Background(), 4, &sources.UploadRequest{DocumentTypeID: 1})
		assert.ErrorIs(t, err, sources.ErrNotInteractive)
	})
}
