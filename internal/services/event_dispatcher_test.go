package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"task-tracker.com/task-tracker/internal/constants"
	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, event *model.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event.ID)
	return nil
}

func (p *fakePublisher) Published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published...)
}

func appendTestEvent(t *testing.T, store *repository.Store) *model.OutboxEvent {
	t.Helper()

	event := &model.OutboxEvent{
		ID:          uuid.NewString(),
		Topic:       constants.TopicTaskUpdated,
		AggregateID: uuid.NewString(),
		Payload:     datatypes.JSON(`{"fields":["title"]}`),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Outbox.Append(context.Background(), event))
	return event
}

func TestEventDispatcher_DeliversEnqueuedEvent(t *testing.T) {
	store := setupTestStore(t)
	publisher := &fakePublisher{}
	dispatcher := NewEventDispatcher(store.Outbox, publisher, 2, 10, time.Hour, 10, 3)
	defer dispatcher.Shutdown(context.Background())

	event := appendTestEvent(t, store)
	require.True(t, dispatcher.Enqueue(event.ID))

	require.Eventually(t, func() bool {
		stored, err := store.Outbox.FindByID(context.Background(), event.ID)
		return err == nil && stored.DeliveredAt != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{event.ID}, publisher.Published())

	stored, err := store.Outbox.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
}

func TestEventDispatcher_PollsUndeliveredEvents(t *testing.T) {
	store := setupTestStore(t)
	publisher := &fakePublisher{}

	first := appendTestEvent(t, store)
	second := appendTestEvent(t, store)

	dispatcher := NewEventDispatcher(store.Outbox, publisher, 1, 10, 20*time.Millisecond, 10, 3)
	defer dispatcher.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		return len(publisher.Published()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{first.ID, second.ID}, publisher.Published())
}

func TestEventDispatcher_StopsRetryingAfterMaxAttempts(t *testing.T) {
	store := setupTestStore(t)
	publisher := &fakePublisher{err: errors.New("broker unavailable")}

	event := appendTestEvent(t, store)

	dispatcher := NewEventDispatcher(store.Outbox, publisher, 1, 10, 10*time.Millisecond, 10, 3)

	require.Eventually(t, func() bool {
		stored, err := store.Outbox.FindByID(context.Background(), event.ID)
		return err == nil && stored.Attempts == 3
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	dispatcher.Shutdown(context.Background())

	stored, err := store.Outbox.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
	assert.Nil(t, stored.DeliveredAt)
	assert.Equal(t, "broker unavailable", stored.LastError)
}

func TestEventDispatcher_EnqueueDeduplicatesAndRejectsAfterShutdown(t *testing.T) {
	store := setupTestStore(t)
	dispatcher := NewEventDispatcher(store.Outbox, &fakePublisher{}, 0, 1, time.Hour, 10, 3)

	assert.True(t, dispatcher.Enqueue("a"))
	assert.False(t, dispatcher.Enqueue("a"))
	assert.False(t, dispatcher.Enqueue("b"))

	dispatcher.Shutdown(context.Background())
	assert.False(t, dispatcher.Enqueue("c"))
}

func TestEventDispatcher_DeliversServiceEvents(t *testing.T) {
	store := setupTestStore(t)
	publisher := &fakePublisher{}
	dispatcher := NewEventDispatcher(store.Outbox, publisher, 1, 10, time.Hour, 10, 3)
	defer dispatcher.Shutdown(context.Background())

	alice := seedUser(t, store, "alice")
	task := seedTask(t, store, alice.ID)
	tracker := NewTimeTracker(store, WithEventQueue(dispatcher))

	_, err := tracker.Start(context.Background(), task.ID, alice.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(publisher.Published()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
