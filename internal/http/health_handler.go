package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const healthDBTimeout = 2 * time.Second

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c echo.Context) error {
	status, database := http.StatusOK, "ok"
	if !h.databaseReachable(c.Request().Context()) {
		status, database = http.StatusServiceUnavailable, "down"
	}

	return c.JSON(status, echo.Map{
		"database": database,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) databaseReachable(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, healthDBTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}
