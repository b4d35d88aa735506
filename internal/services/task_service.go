package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"task-tracker.com/task-tracker/internal/constants"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

// TaskService applies task creation, updates and deletion. It owns the
// completed_at rule and hands reassignments to the AssignmentTracker.
type TaskService struct {
	store       *repository.Store
	assignments *AssignmentTracker
	options
}

type statusChange struct {
	From constants.TaskStatus `json:"from"`
	To   constants.TaskStatus `json:"to"`
}

type assignmentChange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
	By   string  `json:"by"`
}

type deletedTask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DeletedBy string `json:"deletedBy"`
}

func NewTaskService(store *repository.Store, assignments *AssignmentTracker, opts ...Option) *TaskService {
	return &TaskService{
		store:       store,
		assignments: assignments,
		options:     buildOptions(opts),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*model.Task, error) {
	now := s.now()

	task, tags, err := buildTask(in, now)
	if err != nil {
		return nil, err
	}

	var eventIDs []string
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if task.AssignedTo != nil {
			if err := ensureUser(ctx, tx, *task.AssignedTo, "assignedTo"); err != nil {
				return err
			}
		}

		if err := tx.Tasks.Create(ctx, task, tags); err != nil {
			return err
		}

		eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTaskCreated, task.ID, task.CreatedBy, task))

		if task.AssignedTo != nil {
			s.assignments.recordBestEffort(ctx, tx, task.ID, *task.AssignedTo, in.CreatedBy)
			eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTaskAssigned, task.ID, task.AssignedTo,
				assignmentChange{To: task.AssignedTo, By: in.CreatedBy}))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("create task", err)
	}

	s.dispatch(eventIDs)
	return s.GetTask(ctx, task.ID)
}

func buildTask(in CreateTaskInput, now time.Time) (*model.Task, []string, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = constants.PriorityMedium
	}
	if err := validatePriority(priority); err != nil {
		return nil, nil, err
	}

	status := in.Status
	if status == "" {
		status = constants.StatusPending
	}
	if err := validateStatus(status); err != nil {
		return nil, nil, err
	}

	category, err := normalizeCategory(in.Category)
	if err != nil {
		return nil, nil, err
	}

	estimated := constants.DefaultEstimatedHours
	if in.EstimatedHours != nil {
		estimated = *in.EstimatedHours
	}
	if err := validateEstimatedHours(estimated); err != nil {
		return nil, nil, err
	}

	startDate, dueDate := utcDate(in.StartDate), utcDate(in.DueDate)
	if err := validateDates(startDate, dueDate); err != nil {
		return nil, nil, err
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, nil, err
	}

	task := &model.Task{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    in.Description,
		AssignedTo:     normalizeUserRef(in.AssignedTo),
		Priority:       priority,
		Category:       category,
		Status:         status,
		EstimatedHours: estimated,
		StartDate:      startDate,
		DueDate:        dueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.CreatedBy != "" {
		task.CreatedBy = stringPtr(in.CreatedBy)
	}
	if status == constants.StatusCompleted {
		task.CompletedAt = &now
	}

	return task, tags, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	if taskID == "" {
		return nil, apperrors.ErrTaskIDRequired
	}

	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.Persistence("load task", err)
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	if filter.Priority != "" {
		if err := validatePriority(filter.Priority); err != nil {
			return nil, err
		}
	}
	if filter.Offset < 0 {
		return nil, apperrors.Validation("offset", "offset must not be negative")
	}

	tasks, err := s.store.Tasks.FindAll(ctx, filter)
	if err != nil {
		return nil, apperrors.Persistence("list tasks", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update on behalf of requesterID, who must be
// the creator or the assignee. An empty requesterID skips the check for
// internal callers. The update is all-or-nothing except for assignment
// tracking.
func (s *TaskService) UpdateTask(
	ctx context.Context,
	taskID string,
	requesterID string,
	in UpdateTaskInput,
) (*model.Task, error) {
	if taskID == "" {
		return nil, apperrors.ErrTaskIDRequired
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var eventIDs []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Tasks.LockByID(ctx, taskID)
		if err != nil {
			return err
		}

		if requesterID != "" && !canEdit(current, requesterID) {
			return apperrors.Permission("only the creator or assignee can update this task")
		}

		now := s.now()
		changes, err := planUpdate(current, in, now)
		if err != nil {
			return err
		}

		reassigned := in.AssignedToSet && !sameRef(current.AssignedTo, in.AssignedTo)
		if reassigned && in.AssignedTo != nil {
			if err := ensureUser(ctx, tx, *in.AssignedTo, "assignedTo"); err != nil {
				return err
			}
		}

		previousStatus := current.Status
		previousAssignee := current.AssignedTo

		if err := tx.Tasks.Update(ctx, current, changes); err != nil {
			return err
		}
		if in.TagsSet {
			if err := tx.Tasks.ReplaceTags(ctx, taskID, in.Tags); err != nil {
				return err
			}
		}

		actor := optionalRef(requesterID)
		eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTaskUpdated, taskID, actor, changedFields(changes, in.TagsSet)))

		if in.Status != nil && *in.Status != previousStatus {
			eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTaskStatusChanged, taskID, actor,
				statusChange{From: previousStatus, To: *in.Status}))
		}

		if reassigned {
			if in.AssignedTo != nil {
				s.assignments.recordBestEffort(ctx, tx, taskID, *in.AssignedTo, requesterID)
			} else {
				s.assignments.clearBestEffort(ctx, tx, taskID)
			}
			eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTaskAssigned, taskID, in.AssignedTo,
				assignmentChange{From: previousAssignee, To: in.AssignedTo, By: requesterID}))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("update task", err)
	}

	s.dispatch(eventIDs)
	return s.GetTask(ctx, taskID)
}

// planUpdate turns the input into a column whitelist for the repository and
// applies the completed_at rule.
func planUpdate(current *model.Task, in UpdateTaskInput, now time.Time) (map[string]interface{}, error) {
	startDate, dueDate := current.StartDate, current.DueDate
	if in.StartDateSet {
		startDate = in.StartDate
	}
	if in.DueDateSet {
		dueDate = in.DueDate
	}
	if err := validateDates(startDate, dueDate); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{"updated_at": now}

	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.DescriptionSet {
		changes["description"] = in.Description
	}
	if in.AssignedToSet {
		changes["assigned_to"] = in.AssignedTo
	}
	if in.Priority != nil {
		changes["priority"] = *in.Priority
	}
	if in.Category != nil {
		changes["category"] = *in.Category
	}
	if in.EstimatedHours != nil {
		changes["estimated_hours"] = *in.EstimatedHours
	}
	if in.ActualHours != nil {
		changes["actual_hours"] = *in.ActualHours
	}
	if in.StartDateSet {
		changes["start_date"] = in.StartDate
	}
	if in.DueDateSet {
		changes["due_date"] = in.DueDate
	}

	if in.Status != nil {
		changes["status"] = *in.Status
		switch {
		case *in.Status == constants.StatusCompleted && current.Status != constants.StatusCompleted:
			changes["completed_at"] = now
		case *in.Status != constants.StatusCompleted:
			changes["completed_at"] = nil
		}
	}

	return changes, nil
}

// DeleteTask removes the task and everything it owns. Only its creator may
// delete it.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, requesterID string) (bool, error) {
	if taskID == "" {
		return false, apperrors.ErrTaskIDRequired
	}
	if requesterID == "" {
		return false, apperrors.ErrIdentityRequired
	}

	var (
		deleted  bool
		eventIDs []string
	)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.LockByID(ctx, taskID)
		if err != nil {
			return err
		}

		if task.CreatedBy == nil || *task.CreatedBy != requesterID {
			return apperrors.Permission("only the task creator can delete this task")
		}

		deleted, err = tx.Tasks.Delete(ctx, taskID)
		if err != nil {
			return err
		}

		eventIDs = collect(eventIDs, appendEvent(ctx, tx, s.now(), constants.TopicTaskDeleted, taskID, &requesterID,
			deletedTask{ID: taskID, Title: task.Title, DeletedBy: requesterID}))
		return nil
	})
	if err != nil {
		return false, apperrors.Persistence("delete task", err)
	}

	s.dispatch(eventIDs)
	return deleted, nil
}

// GetTaskStats counts tasks the user created or is assigned to. Overdue means
// due before the start of the current UTC day and not completed.
func (s *TaskService) GetTaskStats(ctx context.Context, userID string) (*model.TaskStats, error) {
	if userID == "" {
		return nil, apperrors.ErrIdentityRequired
	}

	today := s.now().Truncate(24 * time.Hour)
	stats, err := s.store.Tasks.StatsByUser(ctx, userID, today)
	if err != nil {
		return nil, apperrors.Persistence("load task stats", err)
	}
	return stats, nil
}

func (s *TaskService) AssignmentHistory(ctx context.Context, taskID string) ([]model.Assignment, error) {
	if taskID == "" {
		return nil, apperrors.ErrTaskIDRequired
	}
	return s.assignments.History(ctx, taskID)
}

func canEdit(task *model.Task, userID string) bool {
	return sameRef(task.CreatedBy, &userID) || sameRef(task.AssignedTo, &userID)
}

func ensureUser(ctx context.Context, tx *repository.Store, userID, field string) error {
	ok, err := tx.Users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation(field, "user does not exist")
	}
	return nil
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func optionalRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func changedFields(changes map[string]interface{}, tagsSet bool) map[string]interface{} {
	fields := make([]string, 0, len(changes))
	for column := range changes {
		if column == "updated_at" {
			continue
		}
		fields = append(fields, column)
	}
	if tagsSet {
		fields = append(fields, "tags")
	}
	sort.Strings(fields)
	return map[string]interface{}{"fields": fields}
}
