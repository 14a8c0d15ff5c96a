package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps documents as rows of a single table in an embedded database file.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func OpenSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, persistenceError("mkdir", dir, err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		logger.Error("store.sqlite.open_failed", "path", path, "error", err)
		return nil, persistenceError("open", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, persistenceError("migrate", path, err)
	}
	logger.Info("store.sqlite.open", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, persistenceError("load", key, err)
	}
	return body, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string, doc []byte) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistenceError("save", key, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, doc, time.Now().UTC())
	if err != nil {
		_ = tx.Rollback()
		return persistenceError("save", key, err)
	}
	if err := tx.Commit(); err != nil {
		return persistenceError("save", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return persistenceError("delete", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
