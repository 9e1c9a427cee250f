package journalsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/logging"
)

// syncQueue is a thread-safe FIFO of pending sync requests drained by a
// single background worker. Enqueue never blocks and never drops; pending
// items survive stop/start cycles. The worker is woken by a channel signal
// on enqueue, with a bounded poll tick as a safety net.
//
// The queue's lock is distinct from the store's and the statistics' locks.
type syncQueue struct {
	service *Service
	poll    time.Duration

	mu      sync.Mutex
	items   []SyncRequest
	wake    chan struct{}
	stop    chan struct{}
	running bool
}

func newSyncQueue(service *Service, poll time.Duration) *syncQueue {
	return &syncQueue{
		service: service,
		poll:    poll,
		wake:    make(chan struct{}, 1),
	}
}

func (q *syncQueue) enqueue(req SyncRequest) {
	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()

	// Non-blocking: a pending wake-up already covers this item.
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// dequeue pops the oldest pending request.
func (q *syncQueue) dequeue() (SyncRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return SyncRequest{}, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

func (q *syncQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *syncQueue) isRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// start spawns the worker. Calling it while already running is a no-op.
func (q *syncQueue) start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	stopChan := make(chan struct{})
	q.stop = stopChan
	q.running = true

	go q.worker(stopChan)
}

// stopWorker signals the worker to exit after finishing its current item.
// It does not cancel an in-flight sync. Calling it while stopped is a no-op.
func (q *syncQueue) stopWorker() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	close(q.stop)
	q.stop = nil
	q.running = false
}

func (q *syncQueue) worker(stopChan chan struct{}) {
	logger := q.service.logger.WithComponent(logging.Component("sync-queue"))
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		// Drain everything currently pending before sleeping.
		for {
			select {
			case <-stopChan:
				return
			default:
			}

			req, ok := q.dequeue()
			if !ok {
				break
			}
			q.process(req, logger)
		}

		select {
		case <-stopChan:
			return
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

func (q *syncQueue) process(req SyncRequest, logger *logging.Logger) {
	ctx := context.Background()
	ok, err := q.service.SyncEntity(ctx, req)
	if err != nil {
		logger.LogError(ctx, err, "queued sync failed",
			slog.String("entity_type", req.EntityType),
			slog.String("entity_id", req.EntityID),
		)
		return
	}
	if !ok {
		logger.WarnContext(ctx, "queued sync ended in conflict",
			slog.String("entity_type", req.EntityType),
			slog.String("entity_id", req.EntityID),
		)
	}
}

// QueueSync appends a sync request to the background queue. TO_EXTERNAL
// requests are validated eagerly: rejecting a payload-less push at enqueue
// time beats failing it silently at drain time.
func (s *Service) QueueSync(req SyncRequest) error {
	if err := validateRequest(req); err != nil {
		return syncErrors.NewValidationError(syncErrors.OpQueue, err)
	}
	s.queue.enqueue(req)
	return nil
}

// StartSyncService starts the background worker. Idempotent.
func (s *Service) StartSyncService() {
	s.queue.start()
}

// StopSyncService stops the background worker after its current item.
// Pending requests stay queued for a subsequent start. Idempotent.
func (s *Service) StopSyncService() {
	s.queue.stopWorker()
}

// QueueSize returns the number of pending queued requests.
func (s *Service) QueueSize() int {
	return s.queue.size()
}

// IsRunning reports whether the background worker is active.
func (s *Service) IsRunning() bool {
	return s.queue.isRunning()
}
