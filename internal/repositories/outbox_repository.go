package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	model "task-tracker.com/task-tracker/internal/models"
)

var ErrEventNotFound = errors.New("outbox event not found")

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Append(ctx context.Context, event *model.OutboxEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *OutboxRepository) FindByID(ctx context.Context, id string) (*model.OutboxEvent, error) {
	var event model.OutboxEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListPending returns undelivered events that still have attempts left,
// oldest first.
func (r *OutboxRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]model.OutboxEvent, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	var events []model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("delivered_at IS NULL AND attempts < ?", maxAttempts).
		Order("created_at asc").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *OutboxRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ? AND delivered_at IS NULL", id).
		Updates(map[string]interface{}{
			"delivered_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error
}

func (r *OutboxRepository) ListByAggregate(ctx context.Context, aggregateID string) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("created_at asc").
		Find(&events).Error
	return events, err
}
