// Package memory provides an in-memory EntityStore, useful for embedding
// and for tests that do not need durability.
package memory

import (
	"context"
	"sync"
	"time"

	journalsync "github.com/c0deZ3R0/journal-sync"
	"github.com/c0deZ3R0/journal-sync/payload"
)

// Store is a map-backed EntityStore. Records are copied on the way in and
// out so callers never alias stored state.
type Store struct {
	mu        sync.RWMutex
	records   map[string]*journalsync.SyncRecord
	conflicts map[string]*journalsync.ConflictRecord
	order     []string // conflict insertion order, for stable listings
}

var _ journalsync.EntityStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		records:   make(map[string]*journalsync.SyncRecord),
		conflicts: make(map[string]*journalsync.ConflictRecord),
	}
}

func key(entityType, entityID string) string {
	return entityType + "/" + entityID
}

func copyRecord(r *journalsync.SyncRecord) *journalsync.SyncRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.LastSyncedAt != nil {
		t := *r.LastSyncedAt
		out.LastSyncedAt = &t
	}
	return &out
}

func copyConflict(c *journalsync.ConflictRecord) *journalsync.ConflictRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.LocalPayload = c.LocalPayload.Clone()
	out.RemotePayload = c.RemotePayload.Clone()
	out.ResolutionPayload = c.ResolutionPayload.Clone()
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}

func (s *Store) Get(ctx context.Context, entityType, entityID string) (*journalsync.SyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRecord(s.records[key(entityType, entityID)]), nil
}

func (s *Store) Upsert(ctx context.Context, record *journalsync.SyncRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(record.EntityType, record.EntityID)] = copyRecord(record)
	return nil
}

func (s *Store) ListByStatus(ctx context.Context, status journalsync.SyncStatus, since *time.Time) ([]*journalsync.SyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*journalsync.SyncRecord
	for _, r := range s.records {
		if r.Status != status {
			continue
		}
		if since != nil && (r.LastSyncedAt == nil || r.LastSyncedAt.Before(*since)) {
			continue
		}
		out = append(out, copyRecord(r))
	}
	return out, nil
}

func (s *Store) CountByStatus(ctx context.Context, status journalsync.SyncStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) AddConflict(ctx context.Context, record *journalsync.ConflictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts[record.ID] = copyConflict(record)
	s.order = append(s.order, record.ID)
	return nil
}

func (s *Store) ListPendingConflicts(ctx context.Context) ([]*journalsync.ConflictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*journalsync.ConflictRecord
	for _, id := range s.order {
		if c := s.conflicts[id]; c != nil && !c.Resolved {
			out = append(out, copyConflict(c))
		}
	}
	return out, nil
}

func (s *Store) GetConflict(ctx context.Context, id string) (*journalsync.ConflictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyConflict(s.conflicts[id]), nil
}

func (s *Store) ResolveConflict(ctx context.Context, id string, resolution payload.Payload) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conflicts[id]
	if !ok || c.Resolved {
		return false, nil
	}
	now := time.Now().UTC()
	c.Resolved = true
	c.ResolvedAt = &now
	c.ResolutionPayload = resolution.Clone()
	return true, nil
}

func (s *Store) CountPendingConflicts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.conflicts {
		if !c.Resolved {
			n++
		}
	}
	return n, nil
}

// Close is a no-op; the Store holds no external resources.
func (s *Store) Close() error {
	return nil
}
