package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	journalsync "github.com/c0deZ3R0/journal-sync"
	"github.com/c0deZ3R0/journal-sync/payload"
)

func TestUpsertGetIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := &journalsync.SyncRecord{
		EntityType: "manuscript",
		EntityID:   "ms-1",
		Status:     journalsync.StatusCompleted,
		LastHash:   "h1",
	}
	require.NoError(t, store.Upsert(ctx, rec))

	// Mutating the caller's copy after Upsert must not leak into the store.
	rec.Status = journalsync.StatusFailed

	got, err := store.Get(ctx, "manuscript", "ms-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, journalsync.StatusCompleted, got.Status)

	// And mutating a returned copy must not leak back in.
	got.LastHash = "tampered"
	again, err := store.Get(ctx, "manuscript", "ms-1")
	require.NoError(t, err)
	assert.Equal(t, "h1", again.LastHash)
}

func TestGetMissing(t *testing.T) {
	store := New()

	got, err := store.Get(context.Background(), "manuscript", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCountByStatus(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i, status := range []journalsync.SyncStatus{
		journalsync.StatusCompleted,
		journalsync.StatusCompleted,
		journalsync.StatusFailed,
	} {
		require.NoError(t, store.Upsert(ctx, &journalsync.SyncRecord{
			EntityType: "reviewer",
			EntityID:   string(rune('a' + i)),
			Status:     status,
		}))
	}

	n, err := store.CountByStatus(ctx, journalsync.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.CountByStatus(ctx, journalsync.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.CountByStatus(ctx, journalsync.StatusConflict)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListByStatusSince(t *testing.T) {
	store := New()
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour)
	recent := time.Now().UTC().Add(-time.Minute)

	require.NoError(t, store.Upsert(ctx, &journalsync.SyncRecord{
		EntityType: "manuscript", EntityID: "old",
		Status: journalsync.StatusCompleted, LastSyncedAt: &old,
	}))
	require.NoError(t, store.Upsert(ctx, &journalsync.SyncRecord{
		EntityType: "manuscript", EntityID: "recent",
		Status: journalsync.StatusCompleted, LastSyncedAt: &recent,
	}))

	since := time.Now().UTC().Add(-time.Hour)
	records, err := store.ListByStatus(ctx, journalsync.StatusCompleted, &since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "recent", records[0].EntityID)
}

func TestConflictResolveOnce(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := &journalsync.ConflictRecord{
		ID:                 "c-1",
		EntityType:         "manuscript",
		EntityID:           "ms-1",
		LocalPayload:       payload.Payload{"title": "local"},
		RemotePayload:      payload.Payload{"title": "remote"},
		DetectedAt:         time.Now().UTC(),
		ResolutionStrategy: "manual",
	}
	require.NoError(t, store.AddConflict(ctx, rec))

	n, err := store.CountPendingConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := store.ResolveConflict(ctx, "c-1", payload.Payload{"title": "chosen"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ResolveConflict(ctx, "c-1", payload.Payload{"title": "other"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.GetConflict(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Resolved)
	assert.Equal(t, payload.Payload{"title": "chosen"}, got.ResolutionPayload)

	pending, err := store.ListPendingConflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestListPendingConflictsOrder(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"c-1", "c-2", "c-3"} {
		require.NoError(t, store.AddConflict(ctx, &journalsync.ConflictRecord{
			ID:         id,
			EntityType: "decision",
			EntityID:   id,
			DetectedAt: time.Now().UTC(),
		}))
	}

	pending, err := store.ListPendingConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "c-1", pending[0].ID)
	assert.Equal(t, "c-3", pending[2].ID)
}
