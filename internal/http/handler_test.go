package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"task-tracker.com/task-tracker/internal/constants"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	middleware "task-tracker.com/task-tracker/internal/http/middlewares"
	model "task-tracker.com/task-tracker/internal/models"
	"task-tracker.com/task-tracker/internal/services"
)

type taskServiceMock struct {
	mock.Mock
}

func (m *taskServiceMock) CreateTask(ctx context.Context, in services.CreateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, in)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *taskServiceMock) UpdateTask(
	ctx context.Context,
	taskID, requesterID string,
	in services.UpdateTaskInput,
) (*model.Task, error) {
	args := m.Called(ctx, taskID, requesterID, in)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) DeleteTask(ctx context.Context, taskID, requesterID string) (bool, error) {
	args := m.Called(ctx, taskID, requesterID)
	return args.Bool(0), args.Error(1)
}

func (m *taskServiceMock) GetTaskStats(ctx context.Context, userID string) (*model.TaskStats, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*model.TaskStats)
	return stats, args.Error(1)
}

func (m *taskServiceMock) AssignmentHistory(ctx context.Context, taskID string) ([]model.Assignment, error) {
	args := m.Called(ctx, taskID)
	history, _ := args.Get(0).([]model.Assignment)
	return history, args.Error(1)
}

type timeTrackerMock struct {
	mock.Mock
}

func (m *timeTrackerMock) session(args mock.Arguments) (*model.TimeSession, error) {
	session, _ := args.Get(0).(*model.TimeSession)
	return session, args.Error(1)
}

func (m *timeTrackerMock) Start(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	return m.session(m.Called(ctx, taskID, userID))
}

func (m *timeTrackerMock) Pause(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	return m.session(m.Called(ctx, taskID, userID))
}

func (m *timeTrackerMock) Stop(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	return m.session(m.Called(ctx, taskID, userID))
}

func (m *timeTrackerMock) GetActive(ctx context.Context, taskID, userID string) (*model.TimeSession, error) {
	return m.session(m.Called(ctx, taskID, userID))
}

func (m *timeTrackerMock) GetHistory(ctx context.Context, taskID, userID string) (*services.TimerHistory, error) {
	args := m.Called(ctx, taskID, userID)
	history, _ := args.Get(0).(*services.TimerHistory)
	return history, args.Error(1)
}

func newTestAPI(t *testing.T) (*echo.Echo, *taskServiceMock, *timeTrackerMock) {
	t.Helper()

	tasks := &taskServiceMock{}
	tracker := &timeTrackerMock{}
	t.Cleanup(func() {
		tasks.AssertExpectations(t)
		tracker.AssertExpectations(t)
	})

	e := echo.New()
	Register(e, NewTaskHandler(tasks), NewTimerHandler(tracker), NewHealthHandler(nil), 100)
	return e, tasks, tracker
}

func serve(e *echo.Echo, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleTask() *model.Task {
	created := time.Date(2026, 2, 13, 10, 20, 30, 0, time.UTC)
	creator := "user-1"
	assignee := "user-2"
	by := "user-1"

	return &model.Task{
		ID:             "task-1",
		Title:          "Ship endpoint",
		AssignedTo:     &assignee,
		CreatedBy:      &creator,
		Priority:       constants.PriorityHigh,
		Category:       "backend",
		Status:         constants.StatusPending,
		EstimatedHours: 3,
		CreatedAt:      created,
		UpdatedAt:      created,
		Tags:           []model.TaskTag{{Tag: "api"}, {Tag: "go"}},
		Assignee:       &model.User{ID: assignee, FullName: "Bob Builder"},
		Creator:        &model.User{ID: creator, FullName: "Alice Admin"},
		CurrentAssignment: &model.Assignment{
			AssignedTo:     assignee,
			AssignedBy:     &by,
			AssignedAt:     created,
			IsCurrent:      true,
			AssignedByUser: &model.User{ID: by, FullName: "Alice Admin"},
		},
	}
}

func TestRoutesRequireIdentity(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := serve(e, http.MethodGet, "/api/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := serve(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode(t, rec)["database"])
}

func TestCreateTask(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	tasks.On("CreateTask", mock.Anything, mock.MatchedBy(func(in services.CreateTaskInput) bool {
		return in.Title == "Ship endpoint" &&
			in.CreatedBy == "user-1" &&
			in.Priority == constants.PriorityHigh &&
			in.DueDate != nil && in.DueDate.Equal(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)) &&
			len(in.Tags) == 2
	})).Return(sampleTask(), nil).Once()

	rec := serve(e, http.MethodPost, "/api/tasks", "user-1",
		`{"title":"Ship endpoint","priority":"high","dueDate":"2026-02-20","tags":["api","go"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "task-1", body["id"])
	assert.Equal(t, "Bob Builder", body["assignedToName"])
	assert.Equal(t, "Alice Admin", body["createdByName"])
	assert.Equal(t, "Alice Admin", body["assignedByName"])
	assert.Equal(t, []interface{}{"api", "go"}, body["tags"])
}

func TestCreateTaskRejectsBadPayload(t *testing.T) {
	e, _, _ := newTestAPI(t)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"not json", `{"title":`, ""},
		{"bad priority", `{"title":"t","priority":"urgent"}`, "priority"},
		{"null status", `{"title":"t","status":null}`, "status"},
		{"bad date", `{"title":"t","dueDate":"20/02/2026"}`, "dueDate"},
		{"wrong type", `{"title":"t","estimatedHours":"three"}`, "estimatedHours"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, http.MethodPost, "/api/tasks", "user-1", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode(t, rec)
			assert.NotEmpty(t, body["error"])
			if tc.field != "" {
				assert.Equal(t, tc.field, body["field"])
			}
		})
	}
}

func TestCreateTaskMapsServiceValidation(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	tasks.On("CreateTask", mock.Anything, mock.Anything).
		Return(nil, apperrors.Validation("title", "task title is required")).Once()

	rec := serve(e, http.MethodPost, "/api/tasks", "user-1", `{"title":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "task title is required", "field": "title"}, decode(t, rec))
}

func TestUpdateTaskTriState(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	tasks.On("UpdateTask", mock.Anything, "task-1", "user-2", mock.MatchedBy(func(in services.UpdateTaskInput) bool {
		return in.Status != nil && *in.Status == constants.StatusCompleted &&
			in.DescriptionSet && in.Description == nil &&
			!in.AssignedToSet &&
			!in.DueDateSet &&
			in.TagsSet && len(in.Tags) == 0
	})).Return(sampleTask(), nil).Once()

	rec := serve(e, http.MethodPatch, "/api/tasks/task-1", "user-2",
		`{"status":"completed","description":null,"tags":[],"unknown":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateTaskRejections(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	rec := serve(e, http.MethodPut, "/api/tasks/task-1", "user-2", `{"unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPut, "/api/tasks/task-1", "user-2", `{"title":null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title", decode(t, rec)["field"])

	tasks.On("UpdateTask", mock.Anything, "task-1", "user-3", mock.Anything).
		Return(nil, apperrors.Permission("only the creator or assignee can update this task")).Once()

	rec = serve(e, http.MethodPut, "/api/tasks/task-1", "user-3", `{"title":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetTaskNotFound(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	tasks.On("GetTask", mock.Anything, "missing").Return(nil, apperrors.ErrTaskNotFound).Once()

	rec := serve(e, http.MethodGet, "/api/tasks/missing", "user-1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", decode(t, rec)["error"])
}

func TestListTasksParsesFilters(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	expected := model.TaskFilter{
		Status:     constants.StatusInProgress,
		AssignedTo: "user-2",
		Priority:   constants.PriorityLow,
		Limit:      10,
		Offset:     20,
	}
	tasks.On("ListTasks", mock.Anything, expected).Return([]model.Task{*sampleTask()}, nil).Once()

	rec := serve(e, http.MethodGet,
		"/api/tasks?status=in-progress&assignedTo=user-2&priority=low&limit=10&offset=20", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = serve(e, http.MethodGet, "/api/tasks?limit=abc", "user-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	tasks.On("DeleteTask", mock.Anything, "task-1", "user-1").Return(true, nil).Once()
	tasks.On("DeleteTask", mock.Anything, "task-1", "user-2").
		Return(false, apperrors.Permission("only the task creator can delete this task")).Once()

	rec := serve(e, http.MethodDelete, "/api/tasks/task-1", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["deleted"])

	rec = serve(e, http.MethodDelete, "/api/tasks/task-1", "user-2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetStatsUsesIdentity(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	tasks.On("GetTaskStats", mock.Anything, "user-1").
		Return(&model.TaskStats{TotalTasks: 4, OverdueTasks: 1}, nil).Once()

	rec := serve(e, http.MethodGet, "/api/tasks/stats", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 4, body["totalTasks"])
	assert.EqualValues(t, 1, body["overdueTasks"])
}

func TestAssignmentHistory(t *testing.T) {
	e, tasks, _ := newTestAPI(t)

	by := "user-1"
	tasks.On("AssignmentHistory", mock.Anything, "task-1").Return([]model.Assignment{{
		ID:             "a-1",
		AssignedTo:     "user-2",
		AssignedBy:     &by,
		IsCurrent:      true,
		AssignedToUser: &model.User{FullName: "Bob Builder"},
	}}, nil).Once()

	rec := serve(e, http.MethodGet, "/api/tasks/task-1/assignments", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assignments := decode(t, rec)["assignments"].([]interface{})
	require.Len(t, assignments, 1)
	first := assignments[0].(map[string]interface{})
	assert.Equal(t, "Bob Builder", first["assignedToName"])
	assert.Nil(t, first["assignedByName"])
}

func TestTimerStartAndPause(t *testing.T) {
	e, _, tracker := newTestAPI(t)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &model.TimeSession{ID: "s-1", TaskID: "task-1", UserID: "user-1", StartTime: start}

	tracker.On("Start", mock.Anything, "task-1", "user-1").Return(session, nil).Once()
	tracker.On("Pause", mock.Anything, "task-1", "user-1").Return(nil, nil).Once()

	rec := serve(e, http.MethodPost, "/api/tasks/task-1/time/start", "user-1", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	started := decode(t, rec)["session"].(map[string]interface{})
	assert.Equal(t, "s-1", started["id"])
	assert.Nil(t, started["endTime"])

	rec = serve(e, http.MethodPost, "/api/tasks/task-1/time/pause", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "session")
	assert.Nil(t, body["session"])
}

func TestTimerStopAndActive(t *testing.T) {
	e, _, tracker := newTestAPI(t)

	end := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
	minutes := 5
	closed := &model.TimeSession{ID: "s-1", EndTime: &end, DurationMinutes: &minutes}

	tracker.On("Stop", mock.Anything, "task-1", "user-1").Return(closed, nil).Once()
	tracker.On("GetActive", mock.Anything, "task-1", "user-1").Return(nil, nil).Once()

	rec := serve(e, http.MethodPost, "/api/tasks/task-1/time/stop", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stopped := decode(t, rec)["session"].(map[string]interface{})
	assert.EqualValues(t, 5, stopped["duration"])

	rec = serve(e, http.MethodGet, "/api/tasks/task-1/time/active", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["session"])
}

func TestTimerHistory(t *testing.T) {
	e, _, tracker := newTestAPI(t)

	tracker.On("GetHistory", mock.Anything, "task-1", "user-1").Return(&services.TimerHistory{
		Sessions: []model.TimeSession{{ID: "s-2"}, {ID: "s-1"}},
		Tracked:  90 * time.Second,
	}, nil).Once()

	rec := serve(e, http.MethodGet, "/api/tasks/task-1/time/history", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body["sessions"], 2)
	assert.EqualValues(t, 1, body["totalMinutes"])
	assert.EqualValues(t, 90, body["totalSeconds"])
}

func TestTimerPersistenceFailure(t *testing.T) {
	e, _, tracker := newTestAPI(t)

	tracker.On("Start", mock.Anything, "task-1", "user-1").
		Return(nil, apperrors.Persistence("start timer", errors.New("disk full"))).Once()

	rec := serve(e, http.MethodPost, "/api/tasks/task-1/time/start", "user-1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to start timer", decode(t, rec)["error"])
}
