package journalsync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	journalsync "github.com/c0deZ3R0/journal-sync"
	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/payload"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestQueueDrainsInBackground(t *testing.T) {
	svc, adapter, _ := newTestService(t)
	ctx := context.Background()

	for i, id := range []string{"ms-1", "ms-2", "ms-3"} {
		adapter.setRemote("manuscript", id, payload.Payload{"n": i})
		require.NoError(t, svc.QueueSync(journalsync.SyncRequest{
			EntityType: "manuscript",
			EntityID:   id,
			Direction:  journalsync.DirectionFromExternal,
		}))
	}
	assert.Equal(t, 3, svc.QueueSize())
	assert.False(t, svc.IsRunning())

	svc.StartSyncService()
	assert.True(t, svc.IsRunning())

	waitFor(t, 2*time.Second, func() bool { return svc.QueueSize() == 0 })

	waitFor(t, 2*time.Second, func() bool {
		stats, err := svc.GetStatistics(ctx)
		return err == nil && stats.SuccessfulSyncs == 3
	})

	for _, id := range []string{"ms-1", "ms-2", "ms-3"} {
		rec, err := svc.GetSyncStatus(ctx, "manuscript", id)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, journalsync.StatusCompleted, rec.Status)
	}
}

// Stopping the service does not drop queued requests; they drain after a
// subsequent start.
func TestQueueSurvivesStopStart(t *testing.T) {
	svc, adapter, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		adapter.setRemote("reviewer", id, payload.Payload{"n": i})
		require.NoError(t, svc.QueueSync(journalsync.SyncRequest{
			EntityType: "reviewer",
			EntityID:   id,
			Direction:  journalsync.DirectionFromExternal,
		}))
	}

	svc.StopSyncService() // worker never started; still a no-op
	assert.Equal(t, 5, svc.QueueSize())

	svc.StartSyncService()
	waitFor(t, 2*time.Second, func() bool { return svc.QueueSize() == 0 })
}

func TestQueueStartStopIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.StartSyncService()
	svc.StartSyncService()
	assert.True(t, svc.IsRunning())

	svc.StopSyncService()
	svc.StopSyncService()
	assert.False(t, svc.IsRunning())
}

func TestQueueSyncValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.QueueSync(journalsync.SyncRequest{
		EntityType: "manuscript",
		EntityID:   "ms-1",
		Direction:  journalsync.DirectionToExternal, // no payload
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, syncErrors.ErrLocalPayloadRequired)
	assert.Equal(t, 0, svc.QueueSize())
}
