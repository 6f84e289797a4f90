package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

func TestStatusStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := newTestConnection(t)
	src, err := NewSourceStore(conn).Create(ctx, &sources.Source{Label: "Watch", BackendPath: sources.PathWatchFolder})
	require.NoError(t, err)

	store := NewStatusStore(conn)

	empty, err := store.LoadStatus(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CheckPhase(""), empty.Phase)

	attempt := time.Date(2026, 2, 3, 10, 0, 0, 123000000, time.UTC)
	require.NoError(t, store.SaveStatus(ctx, src.ID, &status.CheckStatus{
		Phase:           status.CheckPhaseChecking,
		Message:         "Check in progress",
		LastAttempt:     &attempt,
		AttemptCount:    1,
		IntervalSeconds: 600,
	}))

	loaded, err := store.LoadStatus(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CheckPhaseChecking, loaded.Phase)
	assert.Equal(t, "Check in progress", loaded.Message)
	require.NotNil(t, loaded.LastAttempt)
	assert.True(t, attempt.Equal(*loaded.LastAttempt))
	assert.Nil(t, loaded.LastSuccess)
	assert.Equal(t, 600, loaded.IntervalSeconds)

	success := attempt.Add(time.Second)
	require.NoError(t, store.SaveStatus(ctx, src.ID, &status.CheckStatus{
		Phase:             status.CheckPhaseComplete,
		Message:           "Check completed successfully",
		LastAttempt:       &attempt,
		LastSuccess:       &success,
		DocumentsIngested: 3,
		IntervalSeconds:   600,
	}))

	all, err := store.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.Contains(t, all, src.ID)
	assert.Equal(t, status.CheckPhaseComplete, all[src.ID].Phase)
	assert.Equal(t, 3, all[src.ID].DocumentsIngested)
	assert.Equal(t, 0, all[src.ID].AttemptCount)
	require.NotNil(t, all[src.ID].LastSuccess)
	assert.True(t, success.Equal(*all[src.ID].LastSuccess))

	require.NoError(t, store.DeleteStatus(ctx, src.ID))
	all, err = store.LoadAllStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
