package sources_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/docsource-server/internal/sources"
)

func newWatchFolder(t *testing.T, env *testEnv, recursive bool) (string, sources.Backend) {
	t.Helper()

	dir := t.TempDir()
	src := newSource(t, 9, sources.PathWatchFolder, map[string]any{
		"folder_path":            dir,
		"include_subdirectories": recursive,
		"document_type_id":       5,
		"uncompress":             "always",
	})
	return dir, newBackend(t, env.Env, src)
}

func populate(t *testing.T, dir string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.pdf"), []byte("top"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep.pdf"), []byte("deep"), 0600))
}

func TestWatchFolderProcessDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		recursive  bool
		testMode   bool
		wantLabels []string
		wantKept   []string
	}{
		{
			name:       "top_level_only",
			wantLabels: []string{"top.pdf"},
			wantKept:   []string{"nested/deep.pdf"},
		},
		{
			name:       "recursive",
			recursive:  true,
			wantLabels: []string{"nested/deep.pdf", "top.pdf"},
		},
		{
			name:       "test_mode_keeps_files",
			recursive:  true,
			testMode:   true,
			wantLabels: []string{"nested/deep.pdf", "top.pdf"},
			wantKept:   []string{"nested/deep.pdf", "top.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			dir, backend := newWatchFolder(t, env, tt.recursive)
			populate(t, dir)

			result, err := backend.ProcessDocuments(context.Background(), sources.ProcessOptions{TestMode: tt.testMode})
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantLabels), result.DocumentsQueued)

			var labels []string
			for _, task := range env.recorder.all() {
				labels = append(labels, task.Label)
				assert.Equal(t, int64(5), task.DocumentTypeID)
				assert.Equal(t, int64(9), task.SourceID)
				assert.True(t, task.Expand)
			}
			sort.Strings(labels)
			assert.Equal(t, tt.wantLabels, labels)

			var kept []string
			require.NoError(t, filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err == nil && info.Mode().IsRegular() {
					rel, _ := filepath.Rel(dir, path)
					kept = append(kept, filepath.ToSlash(rel))
				}
				return err
			}))
			sort.Strings(kept)
			assert.Equal(t, tt.wantKept, kept)
		})
	}
}

func TestWatchFolderLocked(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, backend := newWatchFolder(t, env, false)

	lock := flock.New(filepath.Join(env.LockDir, "watchfolder-9.lock"))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = lock.Unlock() })

	_, err = backend.ProcessDocuments(context.Background(), sources.ProcessOptions{})
	require.ErrorIs(t, err, sources.ErrSourceBusy)
}

func TestWatchFolderMissingFolder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newSource(t, 10, sources.PathWatchFolder, map[string]any{"folder_path": "/nonexistent/watch"})
	_, err := newBackend(t, env.Env, src).ProcessDocuments(context.Background(), sources.ProcessOptions{})
	require.ErrorContains(t, err, "failed to scan watch folder")
}

func TestWatchFolderWatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dir, backend := newWatchFolder(t, env, false)

	ctx, cancel := context.WithCancel(context.Background())
	triggered := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- backend.(sources.Watcher).Watch(ctx, func() {
			select {
			case triggered <- struct{}{}:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "new.pdf"), []byte("x"), 0600)
		select {
		case <-triggered:
			return true
		default:
			return false
		}
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
