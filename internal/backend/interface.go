package backend

import (
	"context"

	"fintrack/internal/feed"
	"fintrack/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles the store with the change feed wired for it.
// Publisher is nil when the store announces its own changes.
type BackendResult struct {
	Store     store.ReadWriter
	Publisher feed.Publisher
	Stream    feed.Stream
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType
	Feed FeedTransport

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// AMQP feed specific
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend specific
	DefaultUserID string
	SeedDemo      bool
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// FeedTransport selects how change events travel from writers to the feed worker
type FeedTransport string

const (
	LocalFeed    FeedTransport = "local"
	AMQPFeed     FeedTransport = "amqp"
	PostgresFeed FeedTransport = "postgres"
)

func (ft FeedTransport) IsValid() bool {
	switch ft {
	case LocalFeed, AMQPFeed, PostgresFeed:
		return true
	default:
		return false
	}
}
