package backend

import (
	"context"
	"time"

	"forecast/internal/preferences"
	"forecast/internal/services"
	"forecast/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is everything the services need to run against one backend.
type BackendResult struct {
	Store       storage.Store
	Preferences preferences.Store
	// Publisher is nil when no broker is configured.
	Publisher services.Publisher
	// Ping reports whether the backend can serve requests.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	SeedFile string

	// Optional Redis preference store
	RedisAddr     string
	RedisPrefsTTL time.Duration

	// Optional forecast saved publisher
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
