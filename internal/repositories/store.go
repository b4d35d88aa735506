package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories over one connection or one transaction.
type Store struct {
	db          *gorm.DB
	Tasks       *TaskRepository
	Users       *UserRepository
	Sessions    *TimeSessionRepository
	Assignments *AssignmentRepository
	Outbox      *OutboxRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Tasks:       NewTaskRepository(db),
		Users:       NewUserRepository(db),
		Sessions:    NewTimeSessionRepository(db),
		Assignments: NewAssignmentRepository(db),
		Outbox:      NewOutboxRepository(db),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single transaction. Calling
// Transaction on a transactional Store opens a savepoint instead.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds a row lock where the dialect supports one. SQLite serialises
// writers at the database level instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
