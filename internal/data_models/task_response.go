package dto

import (
	"time"

	"task-tracker.com/task-tracker/internal/constants"
	model "task-tracker.com/task-tracker/internal/models"
)

// TaskResponse is the joined view of a task: names of the assignee and
// creator, tags, and who made the current assignment.
type TaskResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    *string              `json:"description"`
	AssignedTo     *string              `json:"assignedTo"`
	AssignedToName *string              `json:"assignedToName"`
	CreatedBy      *string              `json:"createdBy"`
	CreatedByName  *string              `json:"createdByName"`
	AssignedByName *string              `json:"assignedByName"`
	AssignedAt     *time.Time           `json:"assignedAt"`
	Priority       constants.Priority   `json:"priority"`
	Category       string               `json:"category"`
	Status         constants.TaskStatus `json:"status"`
	EstimatedHours float64              `json:"estimatedHours"`
	ActualHours    float64              `json:"actualHours"`
	StartDate      *time.Time           `json:"startDate"`
	DueDate        *time.Time           `json:"dueDate"`
	CompletedAt    *time.Time           `json:"completedAt"`
	Tags           []string             `json:"tags"`
	Version        uint                 `json:"version"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

type TaskListResponse struct {
	Count int            `json:"count"`
	Tasks []TaskResponse `json:"tasks"`
}

type AssignmentResponse struct {
	ID             string    `json:"id"`
	AssignedTo     string    `json:"assignedTo"`
	AssignedToName *string   `json:"assignedToName"`
	AssignedBy     *string   `json:"assignedBy"`
	AssignedByName *string   `json:"assignedByName"`
	AssignedAt     time.Time `json:"assignedAt"`
	IsCurrent      bool      `json:"isCurrent"`
}

type TimerHistoryResponse struct {
	Sessions     []model.TimeSession `json:"sessions"`
	TotalMinutes int64               `json:"totalMinutes"`
	TotalSeconds int64               `json:"totalSeconds"`
}

func NewTaskResponse(task *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		AssignedTo:     task.AssignedTo,
		CreatedBy:      task.CreatedBy,
		Priority:       task.Priority,
		Category:       task.Category,
		Status:         task.Status,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		StartDate:      task.StartDate,
		DueDate:        task.DueDate,
		CompletedAt:    task.CompletedAt,
		Tags:           task.TagNames(),
		Version:        task.Version,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	resp.AssignedToName = userName(task.Assignee)
	resp.CreatedByName = userName(task.Creator)

	if current := task.CurrentAssignment; current != nil {
		resp.AssignedByName = userName(current.AssignedByUser)
		assignedAt := current.AssignedAt
		resp.AssignedAt = &assignedAt
	}

	return resp
}

func NewTaskListResponse(tasks []model.Task) TaskListResponse {
	items := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, NewTaskResponse(&tasks[i]))
	}
	return TaskListResponse{Count: len(items), Tasks: items}
}

func NewAssignmentResponses(history []model.Assignment) []AssignmentResponse {
	items := make([]AssignmentResponse, 0, len(history))
	for _, a := range history {
		items = append(items, AssignmentResponse{
			ID:             a.ID,
			AssignedTo:     a.AssignedTo,
			AssignedToName: userName(a.AssignedToUser),
			AssignedBy:     a.AssignedBy,
			AssignedByName: userName(a.AssignedByUser),
			AssignedAt:     a.AssignedAt,
			IsCurrent:      a.IsCurrent,
		})
	}
	return items
}

func NewTimerHistoryResponse(sessions []model.TimeSession, tracked time.Duration) TimerHistoryResponse {
	if sessions == nil {
		sessions = []model.TimeSession{}
	}
	return TimerHistoryResponse{
		Sessions:     sessions,
		TotalMinutes: int64(tracked / time.Minute),
		TotalSeconds: int64(tracked / time.Second),
	}
}

func userName(u *model.User) *string {
	if u == nil {
		return nil
	}
	name := u.FullName
	return &name
}
