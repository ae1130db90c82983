package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/feed"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
	"fintrack/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		now:    time.Now,
	}
}

type closer interface {
	Close() error
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: st}
	closers := []closer{}
	if c, ok := st.(closer); ok {
		closers = append(closers, c)
	}

	switch config.Feed {
	case AMQPFeed:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, falling back to local feed", "error", err)
			hub := feed.NewHub(0)
			result.Publisher, result.Stream = hub, hub
			closers = append(closers, hub)
			break
		}
		f.logger.Info("Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		result.Publisher, result.Stream = client, client
		closers = append(closers, client)
	case PostgresFeed:
		// Triggers publish every committed change
		result.Stream = postgres.NewListener(config.DatabaseURL)
		f.logger.Info("Using Postgres LISTEN/NOTIFY change feed", "channel", postgres.ChannelName)
	default:
		hub := feed.NewHub(0)
		result.Publisher, result.Stream = hub, hub
		closers = append(closers, hub)
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend", "type", config.Type, "feed", config.Feed)
	return result, nil
}

func (f *DefaultFactory) createStore(config Config) (store.ReadWriter, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := postgres.NewRepository(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return repo, nil
	case MemoryBackend:
		if config.SeedDemo {
			f.logger.Info("Initialized memory backend with demo data", "user_id", config.DefaultUserID)
			return memory.NewWithDemo(config.DefaultUserID, f.now()), nil
		}
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
