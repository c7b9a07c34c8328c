package backend

import (
	"context"
	"errors"
	"fmt"

	"forecast/internal/amqp"
	applog "forecast/internal/log"
	"forecast/internal/preferences"
	"forecast/internal/storage"
	"forecast/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentStorage)}
}

// CreateBackend builds the store for config.Type, then layers the optional
// Redis preference store and AMQP publisher on top. A broker that cannot be
// reached is logged and skipped; a Redis that cannot be reached is an error
// since preferences would otherwise silently stop persisting.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.RedisAddr != "" {
		client, err := preferences.ConnectRedis(ctx, config.RedisAddr)
		if err != nil {
			_ = res.Cleanup()
			return nil, fmt.Errorf("failed to initialize Redis preferences: %w", err)
		}
		res.Preferences = preferences.NewRedisStore(client, config.RedisPrefsTTL)
		res.Cleanup = chain(res.Cleanup, client.Close)
		f.logger.InfoContext(ctx, "Using Redis preference store", "addr", config.RedisAddr)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			res.Publisher = client
			res.Cleanup = chain(res.Cleanup, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:       repo,
		Preferences: preferences.NewSQLStore(repo.DB()),
		Ping:        repo.Ping,
		Cleanup:     repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := memory.New()
	if config.SeedFile != "" {
		if err := memory.LoadSeed(ctx, config.SeedFile, store); err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Store:       store,
		Preferences: preferences.NewMemoryStore(),
		Ping:        func(context.Context) error { return nil },
		Cleanup:     func() error { return nil },
	}, nil
}

// chain runs both cleanups, newest first, and joins their errors.
func chain(prev, next CleanupFunc) CleanupFunc {
	return func() error {
		return errors.Join(next(), prev())
	}
}
