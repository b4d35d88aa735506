package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "task-tracker.com/task-tracker/internal/data_models"
	middleware "task-tracker.com/task-tracker/internal/http/middlewares"
	model "task-tracker.com/task-tracker/internal/models"
	"task-tracker.com/task-tracker/internal/services"
)

type TimeTracker interface {
	Start(ctx context.Context, taskID, userID string) (*model.TimeSession, error)
	Pause(ctx context.Context, taskID, userID string) (*model.TimeSession, error)
	Stop(ctx context.Context, taskID, userID string) (*model.TimeSession, error)
	GetActive(ctx context.Context, taskID, userID string) (*model.TimeSession, error)
	GetHistory(ctx context.Context, taskID, userID string) (*services.TimerHistory, error)
}

// TimerHandler serves the current user's timer on a task. Pause, stop and
// active answer {"session": null} when no timer is running.
type TimerHandler struct {
	tracker TimeTracker
}

func NewTimerHandler(tracker TimeTracker) *TimerHandler {
	return &TimerHandler{tracker: tracker}
}

func (h *TimerHandler) Start(c echo.Context) error {
	session, err := h.tracker.Start(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"session": session})
}

func (h *TimerHandler) Pause(c echo.Context) error {
	return h.closeSession(c, h.tracker.Pause)
}

func (h *TimerHandler) Stop(c echo.Context) error {
	return h.closeSession(c, h.tracker.Stop)
}

func (h *TimerHandler) closeSession(
	c echo.Context,
	closeFn func(ctx context.Context, taskID, userID string) (*model.TimeSession, error),
) error {
	session, err := closeFn(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"session": session})
}

func (h *TimerHandler) Active(c echo.Context) error {
	session, err := h.tracker.GetActive(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"session": session})
}

func (h *TimerHandler) History(c echo.Context) error {
	history, err := h.tracker.GetHistory(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewTimerHistoryResponse(history.Sessions, history.Tracked))
}
