package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "task-tracker.com/task-tracker/internal/errors"
)

// toHTTPError maps a service error to its status and a JSON body of the form
// {"error": message, "field": field}.
func toHTTPError(c echo.Context, err error) error {
	status := apperrors.StatusCode(err)
	body := echo.Map{"error": http.StatusText(status)}

	var appErr *apperrors.Exception
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return echo.NewHTTPError(status, body)
}
