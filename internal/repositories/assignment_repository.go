package repository

import (
	"context"

	"gorm.io/gorm"

	model "task-tracker.com/task-tracker/internal/models"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ClearCurrent flips every current record of the task to historical.
func (r *AssignmentRepository) ClearCurrent(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("task_id = ? AND is_current = ?", taskID, true).
		Update("is_current", false).Error
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Omit("AssignedToUser", "AssignedByUser").Create(assignment).Error
}

func (r *AssignmentRepository) FindCurrent(ctx context.Context, taskID string) (*model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND is_current = ?", taskID, true).
		Limit(1).
		Find(&assignments).Error
	if err != nil || len(assignments) == 0 {
		return nil, err
	}
	return &assignments[0], nil
}

func (r *AssignmentRepository) History(ctx context.Context, taskID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("AssignedToUser").
		Preload("AssignedByUser").
		Where("task_id = ?", taskID).
		Order("assigned_at desc").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) CountCurrent(ctx context.Context, taskID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("task_id = ? AND is_current = ?", taskID, true).
		Count(&count).Error
	return count, err
}
