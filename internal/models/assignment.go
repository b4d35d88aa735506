package model

import "time"

type Assignment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID     string    `gorm:"size:36;not null;index" json:"taskId"`
	AssignedTo string    `gorm:"size:36;not null;index" json:"assignedTo"`
	AssignedBy *string   `gorm:"size:36;index" json:"assignedBy"`
	AssignedAt time.Time `gorm:"not null" json:"assignedAt"`
	IsCurrent  bool      `gorm:"not null;index" json:"isCurrent"`
	CreatedAt  time.Time `json:"createdAt"`

	AssignedToUser *User `gorm:"foreignKey:AssignedTo" json:"-"`
	AssignedByUser *User `gorm:"foreignKey:AssignedBy" json:"-"`
}

func (Assignment) TableName() string {
	return "task_assignments"
}
