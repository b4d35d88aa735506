package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "task-tracker.com/task-tracker/internal/configs"
	"task-tracker.com/task-tracker/internal/events"
	httpapi "task-tracker.com/task-tracker/internal/http"
	repository "task-tracker.com/task-tracker/internal/repositories"
	"task-tracker.com/task-tracker/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task tracking HTTP API and the event dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDatabase(db)
		defer func() { _ = zap.L().Sync() }()

		publisher, closePublisher, err := newPublisher(cfg)
		if err != nil {
			return err
		}
		defer closePublisher()

		store := repository.NewStore(db)

		dispatcher := services.NewEventDispatcher(
			store.Outbox,
			publisher,
			cfg.EventWorkers,
			cfg.EventQueueSize,
			cfg.EventPollInterval,
			cfg.EventPollBatchSize,
			cfg.EventMaxAttempts,
		)

		queue := services.WithEventQueue(dispatcher)
		assignments := services.NewAssignmentTracker(store, queue)
		taskService := services.NewTaskService(store, assignments, queue)
		timeTracker := services.NewTimeTracker(store, queue)

		e := echo.New()
		e.HideBanner = true

		httpapi.Register(
			e,
			httpapi.NewTaskHandler(taskService),
			httpapi.NewTimerHandler(timeTracker),
			httpapi.NewHealthHandler(db),
			cfg.RateLimit,
		)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			zap.L().Info("HTTP server listening", zap.String("addr", cfg.AppURL))
			if err := e.Start(cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Error("server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("HTTP server shutdown failed", zap.Error(err))
		}
		dispatcher.Shutdown(shutdownCtx)

		zap.L().Info("HTTP server and event dispatcher shut down gracefully")
		return nil
	},
}

func newPublisher(cfg config.Config) (events.Publisher, func(), error) {
	if !cfg.RedisEnabled {
		zap.L().Info("redis disabled, events are logged only")
		return events.LogPublisher{}, func() {}, nil
	}

	redisClient, err := config.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}

	return events.NewRedisPublisher(redisClient, cfg.RedisChannelPrefix), redisClient.Close, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
