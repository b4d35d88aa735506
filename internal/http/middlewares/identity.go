package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UserIDHeader carries the authenticated user id set by the identity
// provider in front of this service.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the identity stored by Identity, or "".
func UserID(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}
