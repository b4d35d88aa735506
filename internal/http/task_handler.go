package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "task-tracker.com/task-tracker/internal/data_models"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	middleware "task-tracker.com/task-tracker/internal/http/middlewares"
	"task-tracker.com/task-tracker/internal/http/validators"
	model "task-tracker.com/task-tracker/internal/models"
	"task-tracker.com/task-tracker/internal/services"
)

type TaskService interface {
	CreateTask(ctx context.Context, in services.CreateTaskInput) (*model.Task, error)
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	UpdateTask(ctx context.Context, taskID, requesterID string, in services.UpdateTaskInput) (*model.Task, error)
	DeleteTask(ctx context.Context, taskID, requesterID string) (bool, error)
	GetTaskStats(ctx context.Context, userID string) (*model.TaskStats, error)
	AssignmentHistory(ctx context.Context, taskID string) ([]model.Assignment, error)
}

type TaskHandler struct {
	taskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	raw, err := decodeBody(c, &req)
	if err != nil {
		return toHTTPError(c, err)
	}

	in, err := validators.BuildCreateTaskInput(req, raw, middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), in)
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.NewTaskResponse(task))
}

func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := validators.BuildTaskFilter(c.QueryParam)
	if err != nil {
		return toHTTPError(c, err)
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskListResponse(tasks))
}

func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req dto.UpdateTaskRequest
	raw, err := decodeBody(c, &req)
	if err != nil {
		return toHTTPError(c, err)
	}

	in, err := validators.BuildUpdateTaskInput(req, raw)
	if err != nil {
		return toHTTPError(c, err)
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), c.Param("id"), middleware.UserID(c), in)
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	deleted, err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}
	if !deleted {
		return toHTTPError(c, apperrors.ErrTaskNotFound)
	}

	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

func (h *TaskHandler) GetStats(c echo.Context) error {
	stats, err := h.taskService.GetTaskStats(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *TaskHandler) AssignmentHistory(c echo.Context) error {
	history, err := h.taskService.AssignmentHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"assignments": dto.NewAssignmentResponses(history),
	})
}

func decodeBody(c echo.Context, req interface{}) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, apperrors.Validation("", "invalid JSON payload")
	}
	return validators.DecodeTaskPayload(body, req)
}
