package journalsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c0deZ3R0/journal-sync/conflict"
	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/payload"
)

// SyncEntity runs one synchronization attempt for an entity.
//
// A concurrent attempt on the same (type, id) key is rejected with
// ErrSyncInProgress rather than blocked; the rejected attempt counts as a
// failure in the statistics and leaves the in-flight attempt's record alone.
//
// Returns true only when the attempt reached COMPLETED. A detected conflict
// returns (false, nil): it is an outcome awaiting resolution, not an error.
// Adapter failures are absorbed into record state and statistics and
// returned wrapped so callers can log them; they are never retried here.
func (s *Service) SyncEntity(ctx context.Context, req SyncRequest) (bool, error) {
	if err := validateRequest(req); err != nil {
		s.stats.recordFailure()
		return false, syncErrors.NewValidationError(syncErrors.OpSync, err)
	}

	key := entityKey(req.EntityType, req.EntityID)
	if !s.locks.TryLock(key) {
		s.stats.recordFailure()
		return false, syncErrors.New(syncErrors.OpSync, syncErrors.ErrSyncInProgress)
	}
	defer s.locks.Unlock(key)

	logger := s.logger.WithEntity(req.EntityType, req.EntityID)

	rec, err := s.store.Get(ctx, req.EntityType, req.EntityID)
	if err != nil {
		s.stats.recordFailure()
		return false, syncErrors.NewStorageError(syncErrors.OpSync, err)
	}
	if rec == nil {
		// First attempt for this key: the record starts as implicit PENDING.
		rec = &SyncRecord{
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
			Status:     StatusPending,
		}
	}

	rec.Status = StatusInProgress
	rec.Direction = req.Direction
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.stats.recordFailure()
		return false, syncErrors.NewStorageError(syncErrors.OpSync, err)
	}

	ok, err := s.reconcile(ctx, rec, req)
	if err != nil {
		logger.LogError(ctx, err, "sync attempt failed",
			slog.String("direction", string(req.Direction)),
		)
	}
	return ok, err
}

// BatchSync invokes SyncEntity for each id. Failures are isolated: one
// entity's failure does not abort the batch, and the result map has exactly
// one entry per input id.
func (s *Service) BatchSync(ctx context.Context, entityType string, entityIDs []string, direction SyncDirection) map[string]bool {
	results := make(map[string]bool, len(entityIDs))
	for _, id := range entityIDs {
		ok, err := s.SyncEntity(ctx, SyncRequest{
			EntityType: entityType,
			EntityID:   id,
			Direction:  direction,
		})
		if err != nil {
			ok = false
		}
		results[id] = ok
	}
	return results
}

func validateRequest(req SyncRequest) error {
	if req.EntityType == "" || req.EntityID == "" {
		return fmt.Errorf("entity type and id are required")
	}
	if !req.Direction.Valid() {
		return fmt.Errorf("invalid sync direction %q", req.Direction)
	}
	if req.Direction == DirectionToExternal && req.LocalPayload == nil {
		return syncErrors.ErrLocalPayloadRequired
	}
	return nil
}

// reconcile runs steps 2-6 of the sync state machine with the key lock held
// and the record already marked IN_PROGRESS.
func (s *Service) reconcile(ctx context.Context, rec *SyncRecord, req SyncRequest) (bool, error) {
	switch req.Direction {
	case DirectionFromExternal:
		remote, err := s.fetchRemote(ctx, req.EntityType, req.EntityID)
		if err != nil {
			return false, s.fail(ctx, rec, syncErrors.OpFetch, err)
		}
		hash, err := payload.Hash(remote)
		if err != nil {
			return false, s.failLocal(ctx, rec, err)
		}
		return s.complete(ctx, rec, hash)

	case DirectionToExternal:
		hash, err := payload.Hash(req.LocalPayload)
		if err != nil {
			return false, s.failLocal(ctx, rec, err)
		}
		if err := s.pushRemote(ctx, req.EntityType, req.EntityID, req.LocalPayload); err != nil {
			return false, s.fail(ctx, rec, syncErrors.OpPush, err)
		}
		return s.complete(ctx, rec, hash)

	default: // DirectionBidirectional
		return s.reconcileBidirectional(ctx, rec, req)
	}
}

func (s *Service) reconcileBidirectional(ctx context.Context, rec *SyncRecord, req SyncRequest) (bool, error) {
	remote, err := s.fetchRemote(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return false, s.fail(ctx, rec, syncErrors.OpFetch, err)
	}

	if req.LocalPayload == nil {
		// No local side to compare: the remote copy is authoritative and
		// nothing is pushed. Repeating the call with no external change
		// leaves last_hash untouched.
		remoteHash, err := payload.Hash(remote)
		if err != nil {
			return false, s.failLocal(ctx, rec, err)
		}
		return s.complete(ctx, rec, remoteHash)
	}

	localHash, err := payload.Hash(req.LocalPayload)
	if err != nil {
		return false, s.failLocal(ctx, rec, err)
	}
	remoteHash, err := payload.Hash(remote)
	if err != nil {
		return false, s.failLocal(ctx, rec, err)
	}

	if localHash == remoteHash {
		// Both sides already agree; record the shared hash.
		return s.complete(ctx, rec, remoteHash)
	}

	if c := conflict.Detect(req.EntityType, req.EntityID, rec.LastHash, localHash, remoteHash, req.LocalPayload, remote); c != nil {
		return s.escalate(ctx, rec, c)
	}

	// Exactly one side changed since the last reconciliation; it is
	// authoritative and propagates to the other.
	if localHash != rec.LastHash {
		if err := s.pushRemote(ctx, req.EntityType, req.EntityID, req.LocalPayload); err != nil {
			return false, s.fail(ctx, rec, syncErrors.OpPush, err)
		}
		return s.complete(ctx, rec, localHash)
	}
	return s.complete(ctx, rec, remoteHash)
}

// escalate persists the conflict and parks the record in CONFLICT. The
// attempt counts toward total_syncs but is neither a success nor a failure.
func (s *Service) escalate(ctx context.Context, rec *SyncRecord, c *conflict.Conflict) (bool, error) {
	now := time.Now().UTC()
	conflictRec := &ConflictRecord{
		ID:                 uuid.NewString(),
		EntityType:         c.EntityType,
		EntityID:           c.EntityID,
		LocalPayload:       c.Local,
		RemotePayload:      c.Remote,
		DetectedAt:         now,
		ResolutionStrategy: s.options.ConflictStrategy,
	}
	if err := s.store.AddConflict(ctx, conflictRec); err != nil {
		rec.Status = StatusFailed
		if upErr := s.store.Upsert(ctx, rec); upErr != nil {
			s.logger.LogError(ctx, upErr, "failed to record FAILED status")
		}
		s.stats.recordFailure()
		return false, syncErrors.NewStorageError(syncErrors.OpStore, err)
	}

	rec.Status = StatusConflict
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.stats.recordFailure()
		return false, syncErrors.NewStorageError(syncErrors.OpSync, err)
	}

	s.stats.recordConflict()
	s.logger.WithEntity(rec.EntityType, rec.EntityID).WarnContext(ctx, "conflict detected",
		slog.String("conflict_id", conflictRec.ID),
		slog.String("strategy", conflictRec.ResolutionStrategy),
	)
	return false, nil
}

func (s *Service) complete(ctx context.Context, rec *SyncRecord, newHash string) (bool, error) {
	now := time.Now().UTC()
	rec.Status = StatusCompleted
	rec.LastHash = newHash
	rec.LastSyncedAt = &now
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.stats.recordFailure()
		return false, syncErrors.NewStorageError(syncErrors.OpSync, err)
	}

	s.stats.recordSuccess(now)
	return true, nil
}

// failLocal records a FAILED attempt caused by a non-adapter problem, such
// as an unhashable payload.
func (s *Service) failLocal(ctx context.Context, rec *SyncRecord, cause error) error {
	rec.Status = StatusFailed
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.logger.LogError(ctx, err, "failed to record FAILED status")
	}
	s.stats.recordFailure()
	return syncErrors.NewValidationError(syncErrors.OpSync, cause)
}

// fail records a FAILED attempt. The original adapter/storage error is
// returned wrapped; the bookkeeping write error, if any, is logged but does
// not mask the cause.
func (s *Service) fail(ctx context.Context, rec *SyncRecord, op syncErrors.Operation, cause error) error {
	rec.Status = StatusFailed
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.logger.LogError(ctx, err, "failed to record FAILED status")
	}
	s.stats.recordFailure()
	return syncErrors.NewAdapterError(op, cause)
}

func (s *Service) fetchRemote(ctx context.Context, entityType, entityID string) (payload.Payload, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.adapter.GetEntity(opCtx, entityType, entityID)
}

func (s *Service) pushRemote(ctx context.Context, entityType, entityID string, p payload.Payload) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.adapter.PushEntity(opCtx, entityType, entityID, p)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.options.AdapterTimeout)
}
