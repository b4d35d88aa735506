package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-tracker.com/task-tracker/internal/constants"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	model "task-tracker.com/task-tracker/internal/models"
)

const statsQuery = `
SELECT
  COUNT(CASE WHEN assigned_to = @user OR created_by = @user THEN 1 END) AS total_tasks,
  COUNT(CASE WHEN (assigned_to = @user OR created_by = @user) AND status = @completed THEN 1 END) AS completed_tasks,
  COUNT(CASE WHEN (assigned_to = @user OR created_by = @user) AND status = @in_progress THEN 1 END) AS in_progress_tasks,
  COUNT(CASE WHEN assigned_to = @user THEN 1 END) AS assigned_to_me,
  COUNT(CASE WHEN created_by = @user THEN 1 END) AS assigned_by_me,
  COUNT(CASE WHEN (assigned_to = @user OR created_by = @user) AND due_date < @today AND status <> @completed THEN 1 END) AS overdue_tasks
FROM tasks
`

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts the task row and its tag rows. Callers wrap it in a
// transaction so both land together.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, tags []string) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return err
	}

	return r.insertTags(ctx, task.ID, tags)
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.joined(ctx).First(&task, "tasks.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}

	tasks := []model.Task{task}
	r.attachCurrentAssignments(ctx, tasks)

	return &tasks[0], nil
}

func (r *TaskRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// LockByID loads the bare task row, locking it for the rest of the
// transaction where the database supports row locks.
func (r *TaskRepository) LockByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := forUpdate(r.db.WithContext(ctx)).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindAll(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Limit < 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	query := r.joined(ctx)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	query = query.Order("created_at desc").Order("id")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}

	r.attachCurrentAssignments(ctx, tasks)

	return tasks, nil
}

// Update writes the whitelisted columns in changes, guarded by the version
// column. A concurrent writer that bumped the version first makes this
// return ErrOptimisticLock.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, changes map[string]interface{}) error {
	changes["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(changes)

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}

	task.Version++
	return nil
}

// ReplaceTags deletes every tag of the task and inserts the new set.
func (r *TaskRepository) ReplaceTags(ctx context.Context, taskID string, tags []string) error {
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.TaskTag{}).Error; err != nil {
		return err
	}
	return r.insertTags(ctx, taskID, tags)
}

// Delete removes the task together with its tags, time sessions and
// assignment history.
func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	db := r.db.WithContext(ctx)

	for _, child := range []interface{}{&model.TaskTag{}, &model.TimeSession{}, &model.Assignment{}} {
		if err := db.Where("task_id = ?", id).Delete(child).Error; err != nil {
			return false, err
		}
	}

	res := db.Delete(&model.Task{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// StatsByUser counts tasks the user created or is assigned to. Tasks due
// before today and not completed are overdue.
func (r *TaskRepository) StatsByUser(ctx context.Context, userID string, today time.Time) (*model.TaskStats, error) {
	var stats model.TaskStats
	err := r.db.WithContext(ctx).Raw(statsQuery,
		sql.Named("user", userID),
		sql.Named("completed", constants.StatusCompleted),
		sql.Named("in_progress", constants.StatusInProgress),
		sql.Named("today", today),
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *TaskRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tag") }).
		Preload("Assignee").
		Preload("Creator")
}

// attachCurrentAssignments fills CurrentAssignment from the history table.
// The history is supplementary, so a failed lookup leaves the field empty and
// Task.AssignedTo still answers who is assigned.
func (r *TaskRepository) attachCurrentAssignments(ctx context.Context, tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	var current []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("AssignedByUser").
		Where("task_id IN ? AND is_current = ?", ids, true).
		Find(&current).Error
	if err != nil {
		zap.L().Warn("failed to load current assignments", zap.Int("tasks", len(tasks)), zap.Error(err))
		return
	}

	byTask := make(map[string]*model.Assignment, len(current))
	for i := range current {
		byTask[current[i].TaskID] = &current[i]
	}
	for i := range tasks {
		tasks[i].CurrentAssignment = byTask[tasks[i].ID]
	}
}

func (r *TaskRepository) insertTags(ctx context.Context, taskID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	rows := make([]model.TaskTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, model.TaskTag{TaskID: taskID, Tag: tag})
	}

	return r.db.WithContext(ctx).Create(&rows).Error
}
