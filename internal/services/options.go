package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

// EventQueue receives the ids of freshly committed outbox events so they are
// delivered without waiting for the next poll.
type EventQueue interface {
	Enqueue(eventID string) bool
}

type options struct {
	now   func() time.Time
	queue EventQueue
}

type Option func(*options)

// WithClock replaces the wall clock. Returned times should be UTC.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithEventQueue(queue EventQueue) Option {
	return func(o *options) {
		o.queue = queue
	}
}

func buildOptions(opts []Option) options {
	o := options{now: utcNow}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (o options) dispatch(eventIDs []string) {
	if o.queue == nil {
		return
	}
	for _, id := range eventIDs {
		o.queue.Enqueue(id)
	}
}

// appendEvent writes an outbox row under a savepoint of tx. Failing to record
// a notification never fails the surrounding mutation.
func appendEvent(
	ctx context.Context,
	tx *repository.Store,
	now time.Time,
	topic string,
	aggregateID string,
	userID *string,
	payload interface{},
) string {
	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to encode event payload", zap.String("topic", topic), zap.Error(err))
		return ""
	}

	event := &model.OutboxEvent{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		UserID:      userID,
		Payload:     datatypes.JSON(body),
		CreatedAt:   now,
	}

	err = tx.Transaction(ctx, func(sp *repository.Store) error {
		return sp.Outbox.Append(ctx, event)
	})
	if err != nil {
		zap.L().Warn("failed to record event",
			zap.String("topic", topic),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err),
		)
		return ""
	}

	return event.ID
}

func collect(ids []string, id string) []string {
	if id == "" {
		return ids
	}
	return append(ids, id)
}

func stringPtr(s string) *string {
	return &s
}
