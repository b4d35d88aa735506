package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	config "task-tracker.com/task-tracker/internal/configs"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "task-tracker",
	Short:         "Task tracking and time tracking service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")
}

// bootstrap loads configuration, installs the global logger and opens a
// migrated database. Callers own the returned database.
func bootstrap() (config.Config, *gorm.DB, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return config.Config{}, nil, err
	}
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		zap.L().Info(".env file not found, using environment variables")
	}

	db, err := config.NewDatabaseClient(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return config.Config{}, nil, err
	}

	if err := repository.Migrate(db); err != nil {
		closeDatabase(db)
		return config.Config{}, nil, err
	}

	return cfg, db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		zap.L().Warn("failed to close database", zap.Error(err))
	}
}
