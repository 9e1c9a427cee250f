package journalsync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	journalsync "github.com/c0deZ3R0/journal-sync"
)

func TestHealthCheckDegradedWhenWorkerStopped(t *testing.T) {
	svc, _, _ := newTestService(t)

	health := svc.HealthCheck(context.Background())
	assert.Equal(t, journalsync.HealthDegraded, health.Status)
	assert.NotEmpty(t, health.Issues)
	assert.False(t, health.LastCheck.IsZero())
}

func TestHealthCheckHealthyWhenRunning(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.StartSyncService()
	health := svc.HealthCheck(context.Background())
	assert.Equal(t, journalsync.HealthHealthy, health.Status)
	assert.Empty(t, health.Issues)
}

func TestHealthCheckUnhealthyOnProbeFailure(t *testing.T) {
	svc, adapter, _ := newTestService(t)
	adapter.statusErr = errors.New("503 service unavailable")

	// Unhealthy regardless of worker state.
	svc.StartSyncService()
	health := svc.HealthCheck(context.Background())
	assert.Equal(t, journalsync.HealthUnhealthy, health.Status)
	assert.NotEmpty(t, health.Issues)

	svc.StopSyncService()
	health = svc.HealthCheck(context.Background())
	assert.Equal(t, journalsync.HealthUnhealthy, health.Status)
	assert.Len(t, health.Issues, 2)
}
