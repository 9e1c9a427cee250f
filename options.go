package journalsync

import (
	"time"

	"github.com/c0deZ3R0/journal-sync/payload"
)

// Options configures a Service.
type Options struct {
	// AdapterTimeout bounds every Adapter call. A timeout is treated like
	// any other adapter failure: FAILED status, no retry.
	AdapterTimeout time.Duration

	// ConflictStrategy is the strategy name recorded on detected conflicts
	// and used when resolving through the conflict manager.
	ConflictStrategy string

	// ExtractTimestamp is used by the latest_wins strategy. Nil selects
	// payload.DefaultTimestampExtractor.
	ExtractTimestamp payload.TimestampExtractor

	// PollInterval is the queue worker's fallback wake-up interval. The
	// worker is primarily woken by enqueues; the tick only guards against
	// missed wake-ups.
	PollInterval time.Duration
}

// DefaultOptions returns production defaults.
func DefaultOptions() *Options {
	return &Options{
		AdapterTimeout:   30 * time.Second,
		ConflictStrategy: "latest_wins",
		PollInterval:     500 * time.Millisecond,
	}
}

func (o *Options) setDefaults() {
	if o.AdapterTimeout <= 0 {
		o.AdapterTimeout = 30 * time.Second
	}
	if o.ConflictStrategy == "" {
		o.ConflictStrategy = "latest_wins"
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
}
