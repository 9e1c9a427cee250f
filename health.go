package journalsync

import (
	"context"
	"fmt"
	"time"
)

// HealthCheck aggregates service liveness:
//
//   - unhealthy: the external system's status probe failed — syncs in either
//     direction cannot succeed.
//   - degraded: the external system is reachable but the background worker is
//     stopped, so queued work will never drain.
//   - healthy: otherwise.
func (s *Service) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    HealthHealthy,
		LastCheck: time.Now().UTC(),
	}

	probeCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.adapter.GetSystemStatus(probeCtx); err != nil {
		status.Status = HealthUnhealthy
		status.Issues = append(status.Issues, fmt.Sprintf("external system unreachable: %v", err))
	}

	if !s.queue.isRunning() {
		if status.Status == HealthHealthy {
			status.Status = HealthDegraded
		}
		status.Issues = append(status.Issues, "sync worker is not running; queued work will not drain")
	}

	return status
}
