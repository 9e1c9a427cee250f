// Package journalsync reconciles entity state (manuscripts, reviewers,
// editorial decisions) between the agent-side store and an external
// journal-management platform. It detects divergent concurrent edits via
// content hashes, resolves or escalates conflicts, and drives sync both
// on-demand and through a background queue.
package journalsync

import (
	"context"
	"time"

	"github.com/c0deZ3R0/journal-sync/payload"
)

// SyncStatus is the lifecycle state of an entity's sync bookkeeping.
type SyncStatus string

const (
	StatusPending    SyncStatus = "PENDING"
	StatusInProgress SyncStatus = "IN_PROGRESS"
	StatusCompleted  SyncStatus = "COMPLETED"
	StatusFailed     SyncStatus = "FAILED"
	StatusConflict   SyncStatus = "CONFLICT"
)

// SyncDirection selects which side(s) of a sync are authoritative/target.
type SyncDirection string

const (
	// DirectionFromExternal fetches the remote copy and treats it as truth.
	DirectionFromExternal SyncDirection = "FROM_EXTERNAL"

	// DirectionToExternal pushes a caller-supplied local payload out.
	DirectionToExternal SyncDirection = "TO_EXTERNAL"

	// DirectionBidirectional compares both sides and reconciles.
	DirectionBidirectional SyncDirection = "BIDIRECTIONAL"
)

// Valid reports whether d is one of the defined directions.
func (d SyncDirection) Valid() bool {
	switch d {
	case DirectionFromExternal, DirectionToExternal, DirectionBidirectional:
		return true
	}
	return false
}

// SyncRecord is the durable per-entity sync bookkeeping. There is at most
// one record per (EntityType, EntityID) and records are never deleted:
// they are the audit trail.
type SyncRecord struct {
	EntityType   string
	EntityID     string
	Status       SyncStatus
	LastHash     string // content hash at last successful reconciliation; "" before first sync
	LastSyncedAt *time.Time
	Direction    SyncDirection // direction of the most recent attempt
}

// ConflictRecord captures a detected divergence: both sides changed
// independently since the last successful sync and disagree. Resolution
// fields are set exactly once.
type ConflictRecord struct {
	ID         string
	EntityType string
	EntityID   string

	LocalPayload  payload.Payload
	RemotePayload payload.Payload

	DetectedAt         time.Time
	ResolutionStrategy string // strategy active when the conflict was detected

	Resolved          bool
	ResolvedAt        *time.Time
	ResolutionPayload payload.Payload
}

// Statistics are process-wide sync counters. The counters reset only on
// process restart; the derived fields are computed at read time.
type Statistics struct {
	TotalSyncs        int64
	SuccessfulSyncs   int64
	FailedSyncs       int64
	ConflictsResolved int64

	PendingConflicts int // derived: unresolved ConflictRecords
	ActiveSyncs      int // derived: IN_PROGRESS SyncRecords
	QueueSize        int // derived: pending queue entries

	LastSync *time.Time
}

// HealthState is the aggregate service health classification.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthStatus is the result of a health check. Issues is empty only when
// Status is healthy.
type HealthStatus struct {
	Status    HealthState
	Issues    []string
	LastCheck time.Time
}

// SyncRequest identifies one entity sync attempt. LocalPayload carries the
// agent-side representation; it is required for TO_EXTERNAL and supplies the
// local side for BIDIRECTIONAL. A nil local side on BIDIRECTIONAL means the
// local copy is absent: the remote copy is authoritative and nothing is
// pushed.
type SyncRequest struct {
	EntityType   string
	EntityID     string
	Direction    SyncDirection
	LocalPayload payload.Payload
}

// EntityStore persists SyncRecords and ConflictRecords. Implementations must
// be safe for concurrent callers from the synchronous path and the background
// worker; callers never mutate returned records in place.
type EntityStore interface {
	// Get returns the record for the key, or nil if the key has never synced.
	Get(ctx context.Context, entityType, entityID string) (*SyncRecord, error)

	// Upsert creates or replaces the record for its key.
	Upsert(ctx context.Context, record *SyncRecord) error

	// ListByStatus returns records in the given status, optionally restricted
	// to those synced at or after since.
	ListByStatus(ctx context.Context, status SyncStatus, since *time.Time) ([]*SyncRecord, error)

	// CountByStatus returns the number of records in the given status.
	CountByStatus(ctx context.Context, status SyncStatus) (int, error)

	// AddConflict appends a conflict record.
	AddConflict(ctx context.Context, record *ConflictRecord) error

	// ListPendingConflicts returns all unresolved conflict records.
	ListPendingConflicts(ctx context.Context) ([]*ConflictRecord, error)

	// GetConflict returns the conflict with the given id, or nil if unknown.
	GetConflict(ctx context.Context, id string) (*ConflictRecord, error)

	// ResolveConflict marks the conflict resolved with the given payload.
	// Returns false when the id is unknown or the conflict is already
	// resolved; the resolution fields are only ever written once.
	ResolveConflict(ctx context.Context, id string, resolution payload.Payload) (bool, error)

	// CountPendingConflicts returns the number of unresolved conflicts.
	CountPendingConflicts(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}

// Adapter is the boundary to the external journal-management platform.
// Exactly one production implementation exists (adapter/httpadapter); test
// doubles live in test code only.
type Adapter interface {
	// GetEntity fetches the external copy of an entity. A nil payload with a
	// nil error means the external system has no such entity yet.
	GetEntity(ctx context.Context, entityType, entityID string) (payload.Payload, error)

	// PushEntity writes the payload to the external system.
	PushEntity(ctx context.Context, entityType, entityID string, p payload.Payload) error

	// GetSystemStatus probes external-system health.
	GetSystemStatus(ctx context.Context) (payload.Payload, error)
}
