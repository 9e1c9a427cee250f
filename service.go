package journalsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c0deZ3R0/journal-sync/conflict"
	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/logging"
	"github.com/c0deZ3R0/journal-sync/payload"
)

// Service is the synchronization engine: it owns the per-key exclusion, the
// background queue, the statistics, and the conflict manager. Construct one
// at process start and pass it by reference; there are no package-level
// singletons.
type Service struct {
	store    EntityStore
	adapter  Adapter
	options  Options
	conflict *conflict.Manager

	locks  *keyLocks
	stats  *statsCollector
	queue  *syncQueue
	logger *logging.Logger
}

// New creates a Service. opts may be nil, in which case DefaultOptions() is
// used.
func New(store EntityStore, adapter Adapter, opts *Options) *Service {
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.setDefaults()

	s := &Service{
		store:    store,
		adapter:  adapter,
		options:  *opts,
		conflict: conflict.NewManager(opts.ExtractTimestamp),
		locks:    newKeyLocks(),
		stats:    newStatsCollector(),
		logger:   logging.WithComponent(logging.Component("sync-service")),
	}
	s.queue = newSyncQueue(s, opts.PollInterval)
	return s
}

// GetSyncStatus returns the sync record for an entity, or nil if the key has
// never been synced.
func (s *Service) GetSyncStatus(ctx context.Context, entityType, entityID string) (*SyncRecord, error) {
	rec, err := s.store.Get(ctx, entityType, entityID)
	if err != nil {
		return nil, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}
	return rec, nil
}

// GetPendingConflicts returns all unresolved conflict records.
func (s *Service) GetPendingConflicts(ctx context.Context) ([]*ConflictRecord, error) {
	conflicts, err := s.store.ListPendingConflicts(ctx)
	if err != nil {
		return nil, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}
	return conflicts, nil
}

// GetConflict returns a conflict record by id, or nil if the id is unknown.
func (s *Service) GetConflict(ctx context.Context, conflictID string) (*ConflictRecord, error) {
	rec, err := s.store.GetConflict(ctx, conflictID)
	if err != nil {
		return nil, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}
	return rec, nil
}

// ResolveConflict marks a conflict resolved with the given payload and moves
// the entity's record back to PENDING so a follow-up sync can complete it.
// Returns false when the id is unknown or the conflict was already resolved.
// A nil resolution payload is resolved through the conflict manager under the
// configured strategy first; with the manual strategy that is an explicit
// error, never a silent default.
func (s *Service) ResolveConflict(ctx context.Context, conflictID string, resolution payload.Payload) (bool, error) {
	rec, err := s.store.GetConflict(ctx, conflictID)
	if err != nil {
		return false, syncErrors.NewStorageError(syncErrors.OpConflictResolve, err)
	}
	if rec == nil || rec.Resolved {
		return false, nil
	}

	if resolution == nil {
		resolved, err := s.conflict.Resolve(ctx, conflict.Conflict{
			EntityType: rec.EntityType,
			EntityID:   rec.EntityID,
			Local:      rec.LocalPayload,
			Remote:     rec.RemotePayload,
		}, s.options.ConflictStrategy, nil)
		if err != nil {
			return false, syncErrors.NewConflictError(syncErrors.OpConflictResolve, err)
		}
		resolution = resolved.Payload
		s.logger.WithOperation(logging.Operation("conflict_resolve")).InfoContext(ctx, "conflict resolved by strategy",
			slog.String("conflict_id", conflictID),
			slog.String("strategy", s.options.ConflictStrategy),
			slog.String("decision", resolved.Decision),
		)
	}

	ok, err := s.store.ResolveConflict(ctx, conflictID, resolution)
	if err != nil {
		return false, syncErrors.NewStorageError(syncErrors.OpConflictResolve, err)
	}
	if !ok {
		return false, nil
	}
	s.stats.recordResolution()

	// Reopen the sync record so the follow-up sync moves CONFLICT to
	// COMPLETED instead of re-detecting the same divergence. The reopen holds
	// the entity's key lock so it cannot interleave with an in-flight sync;
	// when the key is busy the reopen is skipped, because that sync's own
	// final upsert supersedes it.
	key := entityKey(rec.EntityType, rec.EntityID)
	if s.locks.TryLock(key) {
		syncRec, err := s.store.Get(ctx, rec.EntityType, rec.EntityID)
		if err == nil && syncRec != nil && syncRec.Status == StatusConflict {
			syncRec.Status = StatusPending
			if upErr := s.store.Upsert(ctx, syncRec); upErr != nil {
				s.logger.LogError(ctx, upErr, "failed to reopen sync record after resolution",
					slog.String("conflict_id", conflictID),
				)
			}
		}
		s.locks.Unlock(key)
	}

	return true, nil
}

// GetStatistics returns the process-wide counters plus the derived gauges.
func (s *Service) GetStatistics(ctx context.Context) (Statistics, error) {
	stats := s.stats.snapshot()

	active, err := s.store.CountByStatus(ctx, StatusInProgress)
	if err != nil {
		return stats, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}
	pending, err := s.store.CountPendingConflicts(ctx)
	if err != nil {
		return stats, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}

	stats.ActiveSyncs = active
	stats.PendingConflicts = pending
	stats.QueueSize = s.queue.size()
	return stats, nil
}

// RecentRecords lists records in a status within the trailing window, used
// for 24h statistics reporting.
func (s *Service) RecentRecords(ctx context.Context, status SyncStatus, window time.Duration) ([]*SyncRecord, error) {
	since := time.Now().UTC().Add(-window)
	records, err := s.store.ListByStatus(ctx, status, &since)
	if err != nil {
		return nil, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}
	return records, nil
}

// Close stops the queue worker and closes the store. The adapter owns no
// resources beyond its HTTP client, which needs no teardown.
func (s *Service) Close() error {
	s.queue.stopWorker()
	if err := s.store.Close(); err != nil {
		return syncErrors.WrapOpComponent(fmt.Errorf("close store: %w", err), syncErrors.OpClose, "store")
	}
	return nil
}
