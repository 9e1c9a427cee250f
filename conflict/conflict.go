// Package conflict holds the decision logic for divergence detection and
// resolution between the agent-side and external copies of an entity.
// Keep this generic and domain-agnostic: schema knowledge enters only
// through the injected timestamp extractor.
package conflict

import (
	"context"

	"github.com/c0deZ3R0/journal-sync/payload"
)

// Strategy names. Unknown names fail loudly rather than falling back to a
// default, so a misconfigured deployment cannot silently lose edits.
const (
	StrategyLatestWins = "latest_wins"
	StrategyManual     = "manual"
	StrategyMerge      = "merge"
)

// Conflict carries the context needed to resolve a detected divergence
// between the local and remote copies of an entity.
type Conflict struct {
	EntityType string
	EntityID   string

	// Hash state at detection time.
	LastHash   string // hash recorded at last successful reconciliation
	LocalHash  string
	RemoteHash string

	Local  payload.Payload // local candidate
	Remote payload.Payload // remote candidate
}

// Resolution captures the decision and the payload to apply.
type Resolution struct {
	Payload  payload.Payload
	Decision string   // e.g. "keep_local", "keep_remote", "manual"
	Reasons  []string // human-readable annotations for audit/telemetry
}

// Resolver is the Strategy interface for conflict resolution. The manual
// payload argument is nil for automatic strategies.
type Resolver interface {
	Resolve(ctx context.Context, c Conflict, manual payload.Payload) (Resolution, error)
}

// Detect reports whether the two sides have diverged. A conflict exists only
// when both hashes differ from the recorded lastHash AND from each other:
// if only one side changed, the changed side is authoritative and no
// conflict is raised.
func Detect(entityType, entityID, lastHash, localHash, remoteHash string, local, remote payload.Payload) *Conflict {
	if localHash == lastHash || remoteHash == lastHash || localHash == remoteHash {
		return nil
	}
	return &Conflict{
		EntityType: entityType,
		EntityID:   entityID,
		LastHash:   lastHash,
		LocalHash:  localHash,
		RemoteHash: remoteHash,
		Local:      local,
		Remote:     remote,
	}
}
