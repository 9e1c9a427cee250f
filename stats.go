package journalsync

import (
	"sync"
	"time"
)

// statsCollector holds the process-wide sync counters. The engine is the
// only writer; reads snapshot under the same lock so a batch of updates is
// never observed half-applied.
type statsCollector struct {
	mu sync.Mutex

	totalSyncs        int64
	successfulSyncs   int64
	failedSyncs       int64
	conflictsResolved int64
	lastSync          *time.Time
}

func newStatsCollector() *statsCollector {
	return &statsCollector{}
}

func (s *statsCollector) recordSuccess(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSyncs++
	s.successfulSyncs++
	s.lastSync = &at
}

func (s *statsCollector) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSyncs++
	s.failedSyncs++
}

// recordConflict counts the attempt without marking it successful or failed:
// a detected conflict is a first-class outcome awaiting resolution.
func (s *statsCollector) recordConflict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSyncs++
}

func (s *statsCollector) recordResolution() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflictsResolved++
}

// snapshot copies the counters into a Statistics value. Derived fields are
// filled in by the caller.
func (s *statsCollector) snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		TotalSyncs:        s.totalSyncs,
		SuccessfulSyncs:   s.successfulSyncs,
		FailedSyncs:       s.failedSyncs,
		ConflictsResolved: s.conflictsResolved,
	}
	if s.lastSync != nil {
		t := *s.lastSync
		stats.LastSync = &t
	}
	return stats
}
