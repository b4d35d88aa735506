package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-tracker.com/task-tracker/internal/constants"
	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

func setupTestStore(t *testing.T) *repository.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return repository.NewStore(db)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(eventID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, eventID)
	return true
}

func (q *recordingQueue) IDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

func seedUser(t *testing.T, store *repository.Store, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		FullName:  username + " Example",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

func seedTask(t *testing.T, store *repository.Store, createdBy string) *model.Task {
	t.Helper()

	now := time.Now().UTC()
	task := &model.Task{
		ID:             uuid.NewString(),
		Title:          "Seeded task",
		CreatedBy:      &createdBy,
		Priority:       constants.PriorityMedium,
		Category:       constants.DefaultCategory,
		Status:         constants.StatusPending,
		EstimatedHours: constants.DefaultEstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, store.Tasks.Create(context.Background(), task, nil))
	return task
}

func topicsOf(t *testing.T, store *repository.Store, aggregateID string) []string {
	t.Helper()

	events, err := store.Outbox.ListByAggregate(context.Background(), aggregateID)
	require.NoError(t, err)

	topics := make([]string, 0, len(events))
	for _, e := range events {
		topics = append(topics, e.Topic)
	}
	return topics
}

func mustField(t *testing.T, payload []byte, key string) json.RawMessage {
	t.Helper()

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &fields))
	value, ok := fields[key]
	require.True(t, ok, "payload has no %q field", key)
	return value
}
