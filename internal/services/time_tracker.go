package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-tracker.com/task-tracker/internal/constants"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

// TimeTracker runs the per-task, per-user timer. At most one session per
// (task, user) is open at any time.
type TimeTracker struct {
	store *repository.Store
	options
}

// TimerHistory is every session of a (task, user) pair, newest first, and the
// time tracked across them.
type TimerHistory struct {
	Sessions []model.TimeSession
	Tracked  time.Duration
}

func NewTimeTracker(store *repository.Store, opts ...Option) *TimeTracker {
	return &TimeTracker{
		store:   store,
		options: buildOptions(opts),
	}
}

// Start closes any running session of the pair and opens a new one that
// begins where the closed one ended.
func (t *TimeTracker) Start(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	if err := requireIDs(taskID, userID); err != nil {
		return nil, err
	}

	session, eventIDs, err := t.start(ctx, taskID, userID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent start on the same pair committed first.
		zap.L().Info("retrying timer start after concurrent start",
			zap.String("task_id", taskID),
			zap.String("user_id", userID),
		)
		session, eventIDs, err = t.start(ctx, taskID, userID)
	}
	if err != nil {
		return nil, apperrors.Persistence("start timer", err)
	}

	t.dispatch(eventIDs)
	return session, nil
}

func (t *TimeTracker) start(ctx context.Context, taskID, userID string) (*model.TimeSession, []string, error) {
	var (
		session  *model.TimeSession
		eventIDs []string
	)

	err := t.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Tasks.LockByID(ctx, taskID); err != nil {
			return err
		}

		now := t.now()
		closed, err := t.closeOpen(ctx, tx, taskID, userID, now)
		if err != nil {
			return err
		}

		startAt := now
		for i := range closed {
			if closed[i].EndTime.After(startAt) {
				startAt = *closed[i].EndTime
			}
			eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTimerPaused, taskID, &userID, closed[i]))
		}

		session = &model.TimeSession{
			ID:        uuid.NewString(),
			TaskID:    taskID,
			UserID:    userID,
			StartTime: startAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Sessions.Create(ctx, session); err != nil {
			return err
		}

		eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, constants.TopicTimerStarted, taskID, &userID, session))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return session, eventIDs, nil
}

// Pause closes the running session. It returns nil, nil when no session is
// running.
func (t *TimeTracker) Pause(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	return t.closeWith(ctx, taskID, userID, constants.TopicTimerPaused, "pause timer")
}

// Stop leaves the pair with no running session. No separate stopped state is
// stored, so it behaves like Pause.
func (t *TimeTracker) Stop(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	return t.closeWith(ctx, taskID, userID, constants.TopicTimerStopped, "stop timer")
}

func (t *TimeTracker) closeWith(ctx context.Context, taskID, userID, topic, op string) (*model.TimeSession, error) {
	if err := requireIDs(taskID, userID); err != nil {
		return nil, err
	}

	var (
		result   *model.TimeSession
		eventIDs []string
	)

	err := t.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Tasks.LockByID(ctx, taskID); err != nil {
			return err
		}

		now := t.now()
		closed, err := t.closeOpen(ctx, tx, taskID, userID, now)
		if err != nil {
			return err
		}
		if len(closed) == 0 {
			return nil
		}

		result = &closed[0]
		for i := range closed {
			eventIDs = collect(eventIDs, appendEvent(ctx, tx, now, topic, taskID, &userID, closed[i]))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence(op, err)
	}

	t.dispatch(eventIDs)
	return result, nil
}

// closeOpen ends every running session of the pair at now. Sessions a
// concurrent writer already closed are skipped.
func (t *TimeTracker) closeOpen(
	ctx context.Context,
	tx *repository.Store,
	taskID string,
	userID string,
	now time.Time,
) ([]model.TimeSession, error) {
	open, err := tx.Sessions.ListOpen(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	closed := make([]model.TimeSession, 0, len(open))
	for _, session := range open {
		if !session.IsOpen() {
			continue
		}
		end := now
		if !end.After(session.StartTime) {
			end = session.StartTime.Add(time.Microsecond)
		}
		minutes := wholeMinutes(end.Sub(session.StartTime))

		session.EndTime = &end
		session.DurationMinutes = &minutes
		session.UpdatedAt = now

		ok, err := tx.Sessions.Close(ctx, &session)
		if err != nil {
			return nil, err
		}
		if ok {
			closed = append(closed, session)
		}
	}

	return closed, nil
}

// GetActive returns the running session of the pair, or nil.
func (t *TimeTracker) GetActive(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	if err := requireIDs(taskID, userID); err != nil {
		return nil, err
	}

	if err := ensureTask(ctx, t.store, taskID); err != nil {
		return nil, apperrors.Persistence("query timer", err)
	}

	session, err := t.store.Sessions.FindOpen(ctx, taskID, userID)
	if err != nil {
		return nil, apperrors.Persistence("query timer", err)
	}
	return session, nil
}

func (t *TimeTracker) GetHistory(ctx context.Context, taskID, userID string) (*TimerHistory, error) {
	if err := requireIDs(taskID, userID); err != nil {
		return nil, err
	}

	if err := ensureTask(ctx, t.store, taskID); err != nil {
		return nil, apperrors.Persistence("query timer", err)
	}

	sessions, err := t.store.Sessions.History(ctx, taskID, userID)
	if err != nil {
		return nil, apperrors.Persistence("query timer", err)
	}

	return &TimerHistory{
		Sessions: sessions,
		Tracked:  TotalTracked(sessions, t.now()),
	}, nil
}

// TotalTracked sums stored durations of closed sessions and the elapsed time
// of open ones.
func TotalTracked(sessions []model.TimeSession, now time.Time) time.Duration {
	var total time.Duration
	for _, s := range sessions {
		switch {
		case s.DurationMinutes != nil:
			total += time.Duration(*s.DurationMinutes) * time.Minute
		case s.IsOpen() && now.After(s.StartTime):
			total += now.Sub(s.StartTime)
		}
	}
	return total
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func ensureTask(ctx context.Context, store *repository.Store, taskID string) error {
	ok, err := store.Tasks.Exists(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

func requireIDs(taskID, userID string) error {
	if taskID == "" {
		return apperrors.ErrTaskIDRequired
	}
	if userID == "" {
		return apperrors.ErrIdentityRequired
	}
	return nil
}
