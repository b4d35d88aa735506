package model

import (
	"time"

	"task-tracker.com/task-tracker/internal/constants"
)

type Task struct {
	ID             string               `gorm:"primaryKey;size:36" json:"id"`
	Title          string               `gorm:"size:255;not null" json:"title"`
	Description    *string              `json:"description"`
	AssignedTo     *string              `gorm:"size:36;index" json:"assignedTo"`
	CreatedBy      *string              `gorm:"size:36;index" json:"createdBy"`
	Priority       constants.Priority   `gorm:"type:varchar(10);not null;index" json:"priority"`
	Category       string               `gorm:"size:50;not null" json:"category"`
	Status         constants.TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	EstimatedHours float64              `gorm:"not null" json:"estimatedHours"`
	ActualHours    float64              `gorm:"not null" json:"actualHours"`
	StartDate      *time.Time           `json:"startDate"`
	DueDate        *time.Time           `gorm:"index" json:"dueDate"`
	CompletedAt    *time.Time           `json:"completedAt"`
	Version        uint                 `gorm:"not null" json:"version"`
	CreatedAt      time.Time            `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`

	Tags     []TaskTag `gorm:"foreignKey:TaskID" json:"-"`
	Assignee *User     `gorm:"foreignKey:AssignedTo" json:"-"`
	Creator  *User     `gorm:"foreignKey:CreatedBy" json:"-"`

	// Filled by the repository from task_assignments; not a column.
	CurrentAssignment *Assignment `gorm:"-" json:"-"`
}

func (t *Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Tag)
	}
	return names
}

type TaskTag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	TaskID    string    `gorm:"size:36;not null;uniqueIndex:ux_task_tags_task_tag,priority:1"`
	Tag       string    `gorm:"size:50;not null;uniqueIndex:ux_task_tags_task_tag,priority:2;index"`
	CreatedAt time.Time
}

// TaskFilter narrows FindAll. Zero values mean "no filter".
type TaskFilter struct {
	Status     constants.TaskStatus
	AssignedTo string
	CreatedBy  string
	Priority   constants.Priority
	Category   string
	Limit      int
	Offset     int
}

type TaskStats struct {
	TotalTasks      int64 `json:"totalTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	AssignedToMe    int64 `json:"assignedToMe"`
	AssignedByMe    int64 `json:"assignedByMe"`
	OverdueTasks    int64 `json:"overdueTasks"`
}
