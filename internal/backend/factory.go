package backend

import (
	"context"
	"fmt"

	"budget/internal/log"
	"budget/internal/store/memory"
	"budget/internal/store/postgres"
	"budget/internal/store/sqlite"
	"budget/internal/store/supabase"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
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
		return f.createMemoryBackend(ctx)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case SupabaseBackend:
		return f.createSupabaseBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	s := memory.New()
	f.logger.InfoContext(ctx, "Initialized memory backend")
	return &BackendResult{Store: s, Cleanup: s.Close}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.NewRepository(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Postgres backend")
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSupabaseBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := supabase.NewRepository(config.SupabaseURL, config.SupabaseKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Supabase backend", "url", config.SupabaseURL)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}
