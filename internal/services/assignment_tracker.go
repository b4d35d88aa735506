package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-tracker.com/task-tracker/internal/constants"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

// AssignmentTracker keeps the assignment history of tasks. Task.AssignedTo
// stays the source of truth for the current assignee; the history is
// supplementary.
type AssignmentTracker struct {
	store *repository.Store
	options
}

func NewAssignmentTracker(store *repository.Store, opts ...Option) *AssignmentTracker {
	return &AssignmentTracker{
		store:   store,
		options: buildOptions(opts),
	}
}

// RecordAssignment retires the current record of the task and inserts a new
// current one, in a single transaction. It only writes history; callers that
// also move Task.AssignedTo go through TaskService.UpdateTask, which records
// the assignment inside its own transaction.
func (a *AssignmentTracker) RecordAssignment(
	ctx context.Context,
	taskID string,
	assignedTo string,
	assignedBy string,
) (*model.Assignment, error) {
	var (
		record   *model.Assignment
		eventIDs []string
	)

	err := a.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Tasks.LockByID(ctx, taskID); err != nil {
			return err
		}

		var err error
		record, err = a.recordIn(ctx, tx, taskID, assignedTo, assignedBy)
		if err != nil {
			return err
		}

		eventIDs = collect(eventIDs, appendEvent(ctx, tx, record.AssignedAt, constants.TopicTaskAssigned, taskID, &assignedTo,
			assignmentChange{To: &assignedTo, By: assignedBy}))
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("record assignment", err)
	}

	a.dispatch(eventIDs)
	return record, nil
}

func (a *AssignmentTracker) History(ctx context.Context, taskID string) ([]model.Assignment, error) {
	if err := ensureTask(ctx, a.store, taskID); err != nil {
		return nil, apperrors.Persistence("load assignment history", err)
	}

	history, err := a.store.Assignments.History(ctx, taskID)
	if err != nil {
		return nil, apperrors.Persistence("load assignment history", err)
	}
	return history, nil
}

func (a *AssignmentTracker) recordIn(
	ctx context.Context,
	tx *repository.Store,
	taskID string,
	assignedTo string,
	assignedBy string,
) (*model.Assignment, error) {
	now := a.now()
	record := &model.Assignment{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		AssignedTo: assignedTo,
		AssignedAt: now,
		IsCurrent:  true,
		CreatedAt:  now,
	}
	if assignedBy != "" {
		record.AssignedBy = stringPtr(assignedBy)
	}

	err := tx.Transaction(ctx, func(sp *repository.Store) error {
		if err := sp.Assignments.ClearCurrent(ctx, taskID); err != nil {
			return err
		}
		return sp.Assignments.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// recordBestEffort tracks a reassignment inside a caller's transaction. A
// failure rolls back only the tracking savepoint and is logged.
func (a *AssignmentTracker) recordBestEffort(
	ctx context.Context,
	tx *repository.Store,
	taskID string,
	assignedTo string,
	assignedBy string,
) {
	if _, err := a.recordIn(ctx, tx, taskID, assignedTo, assignedBy); err != nil {
		zap.L().Warn("failed to track assignment",
			zap.String("task_id", taskID),
			zap.String("assigned_to", assignedTo),
			zap.String("assigned_by", assignedBy),
			zap.Error(err),
		)
	}
}

// clearBestEffort retires the current record when a task is unassigned.
func (a *AssignmentTracker) clearBestEffort(ctx context.Context, tx *repository.Store, taskID string) {
	err := tx.Transaction(ctx, func(sp *repository.Store) error {
		return sp.Assignments.ClearCurrent(ctx, taskID)
	})
	if err != nil {
		zap.L().Warn("failed to clear current assignment",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}
}
