package conflict

import (
	"context"
	"fmt"

	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/payload"
)

var (
	_ Resolver = (*LatestWinsResolver)(nil)
	_ Resolver = (*ManualResolver)(nil)
	_ Resolver = (*mergeResolver)(nil)
)

// LatestWinsResolver picks the payload with the later extracted timestamp.
// Ties, and payloads the extractor cannot read, resolve to the remote side:
// the external platform is the system of record.
type LatestWinsResolver struct {
	Extract payload.TimestampExtractor
}

func (r *LatestWinsResolver) Resolve(ctx context.Context, c Conflict, _ payload.Payload) (Resolution, error) {
	extract := r.Extract
	if extract == nil {
		extract = payload.DefaultTimestampExtractor
	}

	localTS, localOK := extract(c.Local)
	remoteTS, remoteOK := extract(c.Remote)

	switch {
	case !localOK && !remoteOK:
		return Resolution{Payload: c.Remote, Decision: "keep_remote", Reasons: []string{"no timestamps, prefer system of record"}}, nil
	case !localOK:
		return Resolution{Payload: c.Remote, Decision: "keep_remote", Reasons: []string{"local timestamp missing"}}, nil
	case !remoteOK:
		return Resolution{Payload: c.Local, Decision: "keep_local", Reasons: []string{"remote timestamp missing"}}, nil
	case localTS.After(remoteTS):
		return Resolution{Payload: c.Local, Decision: "keep_local", Reasons: []string{"local newer"}}, nil
	case remoteTS.After(localTS):
		return Resolution{Payload: c.Remote, Decision: "keep_remote", Reasons: []string{"remote newer"}}, nil
	default:
		return Resolution{Payload: c.Remote, Decision: "keep_remote", Reasons: []string{"equal timestamps, prefer system of record"}}, nil
	}
}

// ManualResolver applies a caller-supplied resolution payload. There is no
// silent default: a missing payload is a configuration error.
type ManualResolver struct{}

func (r *ManualResolver) Resolve(ctx context.Context, c Conflict, manual payload.Payload) (Resolution, error) {
	if manual == nil {
		return Resolution{}, syncErrors.ErrManualPayloadRequired
	}
	return Resolution{Payload: manual, Decision: "manual", Reasons: []string{"caller-supplied resolution"}}, nil
}

// mergeResolver is registered by name so that requesting it produces a clear
// "not implemented" error instead of an unknown-strategy one. Field-level
// merge semantics are intentionally not defined.
type mergeResolver struct{}

func (r *mergeResolver) Resolve(ctx context.Context, c Conflict, _ payload.Payload) (Resolution, error) {
	return Resolution{}, fmt.Errorf("%q: %w", StrategyMerge, syncErrors.ErrStrategyNotImplemented)
}

// Manager resolves conflicts under a named strategy.
type Manager struct {
	strategies map[string]Resolver
}

// NewManager builds a Manager with the built-in strategies registered.
// extract may be nil, in which case payload.DefaultTimestampExtractor is used
// for latest_wins.
func NewManager(extract payload.TimestampExtractor) *Manager {
	return &Manager{
		strategies: map[string]Resolver{
			StrategyLatestWins: &LatestWinsResolver{Extract: extract},
			StrategyManual:     &ManualResolver{},
			StrategyMerge:      &mergeResolver{},
		},
	}
}

// Register adds or replaces a named strategy.
func (m *Manager) Register(name string, r Resolver) {
	m.strategies[name] = r
}

// Resolve applies the named strategy to the conflict. Unknown strategy names
// fail with ErrUnknownStrategy.
func (m *Manager) Resolve(ctx context.Context, c Conflict, strategy string, manual payload.Payload) (Resolution, error) {
	r, ok := m.strategies[strategy]
	if !ok {
		return Resolution{}, fmt.Errorf("%q: %w", strategy, syncErrors.ErrUnknownStrategy)
	}
	return r.Resolve(ctx, c, manual)
}
