package model

import "time"

// TimeSession is one start -> end interval of tracked work. EndTime nil
// means the timer is still running.
type TimeSession struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	TaskID          string     `gorm:"size:36;not null;index:ix_time_sessions_task_user,priority:1" json:"taskId"`
	UserID          string     `gorm:"size:36;not null;index:ix_time_sessions_task_user,priority:2;index" json:"userId"`
	StartTime       time.Time  `gorm:"not null" json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	DurationMinutes *int       `json:"duration"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (s *TimeSession) IsOpen() bool {
	return s.EndTime == nil
}
