package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppURL                 string
	DatabaseDriver         string
	DatabaseDSN            string
	RedisEnabled           bool
	RedisAddr              string
	RedisChannelPrefix     string
	EventWorkers           int
	EventQueueSize         int
	EventPollInterval      time.Duration
	EventPollBatchSize     int
	EventMaxAttempts       int
	RateLimit              int
	ShutdownTimeoutSeconds int
	LogLevel               string
	LogDevelopment         bool
}

var defaults = map[string]interface{}{
	"APP_HOST":                    "127.0.0.1",
	"APP_PORT":                    "8080",
	"DATABASE_DRIVER":             DriverSQLite,
	"DATABASE_DSN":                "tasks.db",
	"REDIS_ENABLED":               false,
	"REDIS_HOST":                  "127.0.0.1",
	"REDIS_PORT":                  "6379",
	"REDIS_CHANNEL_PREFIX":        "task-tracker",
	"EVENT_WORKERS":               4,
	"EVENT_QUEUE_SIZE":            100,
	"EVENT_POLL_INTERVAL_SECONDS": 5,
	"EVENT_POLL_BATCH_SIZE":       50,
	"EVENT_MAX_ATTEMPTS":          5,
	"RATE_LIMIT_PER_MINUTE":       60,
	"SHUTDOWN_TIMEOUT_SECONDS":    20,
	"LOG_LEVEL":                   "info",
	"LOG_DEVELOPMENT":             false,
}

// Load resolves configuration from defaults, the optional config file and
// the environment, in increasing order of precedence.
func Load(configFile string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := Config{
		AppURL:                 net.JoinHostPort(v.GetString("APP_HOST"), v.GetString("APP_PORT")),
		DatabaseDriver:         v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:            v.GetString("DATABASE_DSN"),
		RedisEnabled:           v.GetBool("REDIS_ENABLED"),
		RedisAddr:              net.JoinHostPort(v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT")),
		RedisChannelPrefix:     v.GetString("REDIS_CHANNEL_PREFIX"),
		EventWorkers:           v.GetInt("EVENT_WORKERS"),
		EventQueueSize:         v.GetInt("EVENT_QUEUE_SIZE"),
		EventPollInterval:      time.Duration(v.GetInt("EVENT_POLL_INTERVAL_SECONDS")) * time.Second,
		EventPollBatchSize:     v.GetInt("EVENT_POLL_BATCH_SIZE"),
		EventMaxAttempts:       v.GetInt("EVENT_MAX_ATTEMPTS"),
		RateLimit:              v.GetInt("RATE_LIMIT_PER_MINUTE"),
		ShutdownTimeoutSeconds: v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		LogDevelopment:         v.GetBool("LOG_DEVELOPMENT"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	switch {
	case cfg.DatabaseDriver != DriverSQLite && cfg.DatabaseDriver != DriverPostgres:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverSQLite, DriverPostgres)
	case cfg.DatabaseDSN == "":
		return errors.New("DATABASE_DSN must not be empty")
	case cfg.EventWorkers <= 0:
		return errors.New("EVENT_WORKERS must be greater than 0")
	case cfg.EventQueueSize <= 0:
		return errors.New("EVENT_QUEUE_SIZE must be greater than 0")
	case cfg.EventPollInterval <= 0:
		return errors.New("EVENT_POLL_INTERVAL_SECONDS must be greater than 0")
	case cfg.EventPollBatchSize <= 0:
		return errors.New("EVENT_POLL_BATCH_SIZE must be greater than 0")
	case cfg.EventMaxAttempts <= 0:
		return errors.New("EVENT_MAX_ATTEMPTS must be greater than 0")
	case cfg.RateLimit <= 0:
		return errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0")
	case cfg.ShutdownTimeoutSeconds <= 0:
		return errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	case cfg.RedisEnabled && cfg.RedisChannelPrefix == "":
		return errors.New("REDIS_CHANNEL_PREFIX must not be empty when REDIS_ENABLED is set")
	}
	return nil
}
