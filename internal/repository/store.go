package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

// DocumentStore reads and writes whole JSON documents by key. A Save either replaces the
// previous document completely or leaves it untouched.
type DocumentStore interface {
	// Load returns common.ErrNotFound when no document is stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, doc []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	Close() error
}

// OpenStore opens the backend selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (DocumentStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case common.StoreDriverFile, "":
		return NewFileStore(cfg.DataDir, logger)
	case common.StoreDriverSQLite:
		return OpenSQLiteStore(ctx, cfg.SQLitePath, logger)
	case common.StoreDriverPostgres:
		return OpenPostgresStore(ctx, Config{
			DSN:         cfg.DSN,
			MaxConns:    cfg.MaxConns,
			DialTimeout: cfg.DialTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", common.ErrInvalidInput, cfg.Driver)
	}
}

func persistenceError(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", common.ErrPersistence, op, key, err)
}
