package repository

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

// FileStore keeps each document in DIR/{key}.json and replaces it with a synced temp file
// and a rename.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, persistenceError("mkdir", dir, err)
	}
	logger.Info("store.file.open", "dir", dir)
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, persistenceError("load", key, err)
	}
	return b, nil
}

func (s *FileStore) Save(ctx context.Context, key string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return persistenceError("save", key, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("store.file.tmp_cleanup_failed", "path", tmpName, "error", err)
		}
	}

	if _, err := tmp.Write(doc); err != nil {
		cleanup()
		return persistenceError("save", key, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return persistenceError("save", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return persistenceError("save", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		cleanup()
		return persistenceError("save", key, err)
	}
	s.logger.Debug("store.file.saved", "key", key, "bytes", len(doc))
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return persistenceError("delete", key, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
