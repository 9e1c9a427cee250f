package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/payload"
)

func TestDetect(t *testing.T) {
	local := payload.Payload{"title": "local"}
	remote := payload.Payload{"title": "remote"}

	tests := []struct {
		name       string
		lastHash   string
		localHash  string
		remoteHash string
		want       bool
	}{
		{"both diverged and disagree", "h0", "h1", "h2", true},
		{"only local changed", "h0", "h1", "h0", false},
		{"only remote changed", "h0", "h0", "h2", false},
		{"neither changed", "h0", "h0", "h0", false},
		{"both changed identically", "h0", "h1", "h1", false},
		{"first sync, sides disagree", "", "h1", "h2", true},
		{"first sync, one side absent", "", "h1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Detect("manuscript", "ms-1", tt.lastHash, tt.localHash, tt.remoteHash, local, remote)
			if !tt.want {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, "manuscript", c.EntityType)
			assert.Equal(t, "ms-1", c.EntityID)
			assert.Equal(t, tt.lastHash, c.LastHash)
			assert.Equal(t, local, c.Local)
			assert.Equal(t, remote, c.Remote)
		})
	}
}

func TestLatestWinsPrefersLaterTimestamp(t *testing.T) {
	m := NewManager(nil)
	c := Conflict{
		Local:  payload.Payload{"title": "A", "ts": "2024-01-01T10:00:00Z"},
		Remote: payload.Payload{"title": "B", "ts": "2024-01-01T11:00:00Z"},
	}

	res, err := m.Resolve(context.Background(), c, StrategyLatestWins, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep_remote", res.Decision)
	assert.Equal(t, c.Remote, res.Payload)

	// Flip recency.
	c.Local["ts"] = "2024-01-01T12:00:00Z"
	res, err = m.Resolve(context.Background(), c, StrategyLatestWins, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep_local", res.Decision)
	assert.Equal(t, c.Local, res.Payload)
}

func TestLatestWinsTieGoesToRemote(t *testing.T) {
	m := NewManager(nil)
	c := Conflict{
		Local:  payload.Payload{"title": "A", "ts": "2024-01-01T10:00:00Z"},
		Remote: payload.Payload{"title": "B", "ts": "2024-01-01T10:00:00Z"},
	}

	res, err := m.Resolve(context.Background(), c, StrategyLatestWins, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep_remote", res.Decision)
	assert.Equal(t, c.Remote, res.Payload)
}

func TestLatestWinsMissingTimestamps(t *testing.T) {
	m := NewManager(nil)

	// No timestamps at all: the system of record wins.
	c := Conflict{
		Local:  payload.Payload{"title": "A"},
		Remote: payload.Payload{"title": "B"},
	}
	res, err := m.Resolve(context.Background(), c, StrategyLatestWins, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep_remote", res.Decision)

	// Only the local side has one.
	c.Local["ts"] = "2024-01-01T10:00:00Z"
	res, err = m.Resolve(context.Background(), c, StrategyLatestWins, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep_local", res.Decision)
}

func TestLatestWinsCustomExtractor(t *testing.T) {
	// The caller's schema keeps its revision time under a custom field.
	extract := func(p payload.Payload) (time.Time, bool) {
		raw, ok := p["revised"].(string)
		if !ok {
			return time.Time{}, false
		}
		ts, err := time.Parse(time.RFC3339, raw)
		return ts, err == nil
	}

	m := NewManager(extract)
	c := Conflict{
		Local:  payload.Payload{"title": "A", "revised": "2024-06-01T09:00:00Z"},
		Remote: payload.Payload{"title": "B", "revised": "2024-05-01T09:00:00Z"},
	}

	res, err := m.Resolve(context.Background(), c, StrategyLatestWins, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep_local", res.Decision)
}

func TestManualRequiresPayload(t *testing.T) {
	m := NewManager(nil)
	c := Conflict{
		Local:  payload.Payload{"title": "A"},
		Remote: payload.Payload{"title": "B"},
	}

	_, err := m.Resolve(context.Background(), c, StrategyManual, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncErrors.ErrManualPayloadRequired)

	manual := payload.Payload{"title": "merged by hand"}
	res, err := m.Resolve(context.Background(), c, StrategyManual, manual)
	require.NoError(t, err)
	assert.Equal(t, "manual", res.Decision)
	assert.Equal(t, manual, res.Payload)
}

func TestMergeFailsLoudly(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Resolve(context.Background(), Conflict{}, StrategyMerge, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncErrors.ErrStrategyNotImplemented)
}

func TestUnknownStrategyFailsLoudly(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Resolve(context.Background(), Conflict{}, "newest_wins", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncErrors.ErrUnknownStrategy)
	assert.Contains(t, err.Error(), "newest_wins")
}
