package model

import (
	"time"

	"gorm.io/datatypes"
)

type OutboxEvent struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Topic       string         `gorm:"size:50;not null;index" json:"topic"`
	AggregateID string         `gorm:"size:36;not null;index" json:"aggregateId"`
	UserID      *string        `gorm:"size:36" json:"userId,omitempty"`
	Payload     datatypes.JSON `json:"payload"`
	Attempts    int            `gorm:"not null" json:"attempts"`
	LastError   string         `json:"lastError,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	DeliveredAt *time.Time     `gorm:"index" json:"deliveredAt,omitempty"`
}
