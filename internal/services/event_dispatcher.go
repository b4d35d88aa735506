package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"task-tracker.com/task-tracker/internal/events"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

const deliveryTimeout = 10 * time.Second

// EventDispatcher delivers outbox events with a fixed pool of workers. Fresh
// events arrive through Enqueue; a poll loop picks up anything that missed
// the queue or failed an earlier attempt.
type EventDispatcher struct {
	queue        chan string
	wg           sync.WaitGroup
	requeueWG    sync.WaitGroup
	enqueued     sync.Map
	repo         *repository.OutboxRepository
	publisher    events.Publisher
	requeueStop  chan struct{}
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int

	mu     sync.RWMutex
	closed bool
}

func NewEventDispatcher(
	repo *repository.OutboxRepository,
	publisher events.Publisher,
	workers int,
	queueSize int,
	pollInterval time.Duration,
	batchSize int,
	maxAttempts int,
) *EventDispatcher {
	d := &EventDispatcher{
		queue:        make(chan string, queueSize),
		repo:         repo,
		publisher:    publisher,
		requeueStop:  make(chan struct{}),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
	}

	d.requeueWG.Add(1)
	go d.requeuePendingLoop()

	for i := 1; i <= workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	return d
}

// Enqueue never blocks. It reports false when the event is already queued,
// the queue is full, or the dispatcher is shut down.
func (d *EventDispatcher) Enqueue(eventID string) bool {
	ok, _ := d.enqueueIfNotPresent(eventID)
	return ok
}

func (d *EventDispatcher) worker(workerID int) {
	defer d.wg.Done()

	zap.L().Debug("event worker started", zap.Int("worker", workerID))

	for eventID := range d.queue {
		d.handleEvent(workerID, eventID)
	}

	zap.L().Debug("event worker stopped", zap.Int("worker", workerID))
}

func (d *EventDispatcher) handleEvent(workerID int, eventID string) {
	defer d.untrackEnqueued(eventID)

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	log := zap.L().With(zap.Int("worker", workerID), zap.String("event_id", eventID))

	event, err := d.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			log.Warn("event vanished before delivery")
			return
		}
		log.Error("failed to load event", zap.Error(err))
		return
	}

	if event.DeliveredAt != nil || event.Attempts >= d.maxAttempts {
		return
	}

	if err := d.publisher.Publish(ctx, event); err != nil {
		log.Warn("event delivery failed",
			zap.String("topic", event.Topic),
			zap.Int("attempt", event.Attempts+1),
			zap.Error(err),
		)
		if markErr := d.repo.MarkFailed(ctx, eventID, err); markErr != nil {
			log.Error("failed to record delivery failure", zap.Error(markErr))
		}
		return
	}

	if err := d.repo.MarkDelivered(ctx, eventID, time.Now().UTC()); err != nil {
		log.Error("failed to mark event delivered", zap.Error(err))
		return
	}

	log.Debug("event delivered", zap.String("topic", event.Topic))
}

func (d *EventDispatcher) requeuePendingLoop() {
	defer d.requeueWG.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.requeuePendingOnce()
		case <-d.requeueStop:
			return
		}
	}
}

func (d *EventDispatcher) requeuePendingOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	pending, err := d.repo.ListPending(ctx, d.maxAttempts, d.batchSize)
	if err != nil {
		zap.L().Error("requeue: failed to list pending events", zap.Error(err))
		return
	}

	for _, event := range pending {
		_, queueFull := d.enqueueIfNotPresent(event.ID)
		if queueFull {
			return
		}
	}
}

func (d *EventDispatcher) enqueueIfNotPresent(eventID string) (bool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false, true
	}

	if !d.trackEnqueued(eventID) {
		return false, false
	}

	select {
	case d.queue <- eventID:
		return true, false
	default:
		d.untrackEnqueued(eventID)
		return false, true
	}
}

func (d *EventDispatcher) trackEnqueued(eventID string) bool {
	_, loaded := d.enqueued.LoadOrStore(eventID, struct{}{})
	return !loaded
}

func (d *EventDispatcher) untrackEnqueued(eventID string) {
	d.enqueued.Delete(eventID)
}

// Shutdown stops polling, lets the workers drain the queue and waits for them
// until ctx is done. Undelivered events stay in the outbox for the next run.
func (d *EventDispatcher) Shutdown(ctx context.Context) {
	close(d.requeueStop)
	d.requeueWG.Wait()

	d.mu.Lock()
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("event dispatcher shut down cleanly")
	case <-ctx.Done():
		zap.L().Warn("event dispatcher shutdown timed out")
	}
}
