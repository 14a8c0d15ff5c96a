package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS smeta_documents (
	key        TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Open creates a pgx pool for the given config.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "smeta"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

// HealthCheck pings the pool to catch DSN issues early.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// PostgresStore keeps documents in a jsonb table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func OpenPostgresStore(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, persistenceError("open", "postgres", err)
	}
	if err := HealthCheck(ctx, pool, cfg.DialTimeout, logger); err != nil {
		pool.Close()
		return nil, persistenceError("ping", "postgres", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, persistenceError("migrate", "postgres", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM smeta_documents WHERE key = $1`, key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, persistenceError("load", key, err)
	}
	return body, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, doc []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO smeta_documents (key, body, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		key, doc)
	if err != nil {
		return persistenceError("save", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM smeta_documents WHERE key = $1`, key); err != nil {
		return persistenceError("delete", key, err)
	}
	return nil
}

// Close closes the pool gracefully.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing database connections")
	s.pool.Close()
	return nil
}
