package backend

import (
	"context"
	"fmt"

	"dineadmin/internal/adapters"
	"dineadmin/internal/log"
	"dineadmin/internal/realtime"
	"dineadmin/internal/storage"
	"dineadmin/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	hub    *realtime.Hub
	logger *log.Logger
}

// NewFactory creates a backend factory. Writes made through a memory or
// sqlite store are published to hub; hub may be nil for one-shot tools.
func NewFactory(hub *realtime.Hub, logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{
		hub:    hub,
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	st := memory.New(config.Location)

	f.logger.Info("Initialized memory backend", "notify", f.hub != nil)

	return &BackendResult{
		Store:   adapters.WithNotify(st, f.hub),
		Cleanup: st.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.Open(ctx, storage.Options{
		Dialect:  storage.SQLite,
		DSN:      config.SQLiteDBPath,
		Location: config.Location,
		Logger:   f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   adapters.WithNotify(repo, f.hub),
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.Open(ctx, storage.Options{
		Dialect:  storage.Postgres,
		DSN:      config.DatabaseURL,
		Location: config.Location,
		Logger:   f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	result := &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}
	if f.hub != nil {
		result.Feed = realtime.NewPQListener(config.DatabaseURL, f.hub, f.logger)
	}

	f.logger.Info("Initialized postgres backend", "change_feed", result.Feed != nil)
	return result, nil
}
