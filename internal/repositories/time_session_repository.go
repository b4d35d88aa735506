package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	model "task-tracker.com/task-tracker/internal/models"
)

type TimeSessionRepository struct {
	db *gorm.DB
}

func NewTimeSessionRepository(db *gorm.DB) *TimeSessionRepository {
	return &TimeSessionRepository{db: db}
}

// Create inserts a session. A second open session for the same (task, user)
// violates ux_time_sessions_open and fails with gorm.ErrDuplicatedKey.
func (r *TimeSessionRepository) Create(ctx context.Context, session *model.TimeSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindOpen returns the running session for (taskID, userID), or nil.
func (r *TimeSessionRepository) FindOpen(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	var session model.TimeSession
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ? AND end_time IS NULL", taskID, userID).
		Order("start_time desc").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListOpen returns every running session of the pair, newest first. Under the
// partial unique index there is at most one.
func (r *TimeSessionRepository) ListOpen(ctx context.Context, taskID, userID string) ([]model.TimeSession, error) {
	var sessions []model.TimeSession
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ? AND end_time IS NULL", taskID, userID).
		Order("start_time desc").
		Find(&sessions).Error
	return sessions, err
}

// Close sets end_time and duration on a still-open session. It reports false
// when another writer closed the session first.
func (r *TimeSessionRepository) Close(ctx context.Context, session *model.TimeSession) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TimeSession{}).
		Where("id = ? AND end_time IS NULL", session.ID).
		Updates(map[string]interface{}{
			"end_time":         session.EndTime,
			"duration_minutes": session.DurationMinutes,
			"updated_at":       session.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TimeSessionRepository) History(ctx context.Context, taskID, userID string) ([]model.TimeSession, error) {
	var sessions []model.TimeSession
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Order("start_time desc").
		Find(&sessions).Error
	return sessions, err
}

func (r *TimeSessionRepository) CountOpen(ctx context.Context, taskID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TimeSession{}).
		Where("task_id = ? AND user_id = ? AND end_time IS NULL", taskID, userID).
		Count(&count).Error
	return count, err
}
