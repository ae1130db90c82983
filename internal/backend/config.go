package backend

import (
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	transport := FeedTransport(appConfig.FeedTransport)
	if transport == "" {
		transport = LocalFeed
	}

	return Config{
		Type: backendType,
		Feed: transport,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		DefaultUserID: appConfig.DefaultUserID,
		SeedDemo:      appConfig.SeedDemo,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.Feed.IsValid() {
		return fmt.Errorf("invalid feed transport: %s", c.Feed)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres backend")
		}
	case MemoryBackend:
		if c.SeedDemo && c.DefaultUserID == "" {
			return fmt.Errorf("default user is required to seed demo data")
		}
	}

	switch c.Feed {
	case AMQPFeed:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP URL is required for amqp feed")
		}
	case PostgresFeed:
		if c.Type != PostgresBackend {
			return fmt.Errorf("postgres feed requires the postgres backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}
