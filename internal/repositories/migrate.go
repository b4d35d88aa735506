package repository

import (
	"fmt"

	"gorm.io/gorm"

	model "task-tracker.com/task-tracker/internal/models"
)

// Partial unique indexes carrying the two "at most one" invariants. Both
// SQLite and PostgreSQL accept this syntax.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_time_sessions_open
		ON time_sessions (task_id, user_id) WHERE end_time IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_task_assignments_current
		ON task_assignments (task_id) WHERE is_current`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.TaskTag{},
		&model.TimeSession{},
		&model.Assignment{},
		&model.OutboxEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}

	return nil
}
