package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	model "task-tracker.com/task-tracker/internal/models"
)

// Publisher delivers one outbox event to the notification collaborator.
type Publisher interface {
	Publish(ctx context.Context, event *model.OutboxEvent) error
}

type Envelope struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	UserID      *string         `json:"userId,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func NewEnvelope(event *model.OutboxEvent) Envelope {
	payload := json.RawMessage(event.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return Envelope{
		ID:          event.ID,
		Topic:       event.Topic,
		AggregateID: event.AggregateID,
		UserID:      event.UserID,
		Payload:     payload,
		OccurredAt:  event.CreatedAt,
	}
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event *model.OutboxEvent) error {
	zap.L().Info("event published",
		zap.String("event_id", event.ID),
		zap.String("topic", event.Topic),
		zap.String("aggregate_id", event.AggregateID),
	)
	return nil
}
