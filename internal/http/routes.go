package http

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "task-tracker.com/task-tracker/internal/http/middlewares"
)

func Register(
	e *echo.Echo,
	tasks *TaskHandler,
	timers *TimerHandler,
	health *HealthHandler,
	rateLimitPerMinute int,
) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())

	e.GET("/health", health.Check)

	api := e.Group("/api",
		middleware.Identity(),
		middleware.RateLimiter(rateLimitPerMinute, time.Minute),
	)

	api.GET("/tasks", tasks.ListTasks)
	api.POST("/tasks", tasks.CreateTask)
	api.GET("/tasks/stats", tasks.GetStats)
	api.GET("/tasks/:id", tasks.GetTask)
	api.PUT("/tasks/:id", tasks.UpdateTask)
	api.PATCH("/tasks/:id", tasks.UpdateTask)
	api.DELETE("/tasks/:id", tasks.DeleteTask)
	api.GET("/tasks/:id/assignments", tasks.AssignmentHistory)

	api.POST("/tasks/:id/time/start", timers.Start)
	api.POST("/tasks/:id/time/pause", timers.Pause)
	api.POST("/tasks/:id/time/stop", timers.Stop)
	api.GET("/tasks/:id/time/active", timers.Active)
	api.GET("/tasks/:id/time/history", timers.History)
}
