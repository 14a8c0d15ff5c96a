package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

func testStores(t *testing.T) map[string]DocumentStore {
	t.Helper()
	ctx := context.Background()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "data"), slog.Default())
	require.NoError(t, err)

	sq, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "db", "smeta.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]DocumentStore{"file": fs, "sqlite": sq}
}

func TestDocumentStores(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx, "catalog")
			require.ErrorIs(t, err, common.ErrNotFound)

			require.NoError(t, store.Save(ctx, "catalog", []byte(`[1]`)))
			require.NoError(t, store.Save(ctx, "catalog", []byte(`[1,2]`)))

			got, err := store.Load(ctx, "catalog")
			require.NoError(t, err)
			assert.JSONEq(t, `[1,2]`, string(got))

			require.NoError(t, store.Delete(ctx, "catalog"))
			require.NoError(t, store.Delete(ctx, "catalog"))
			_, err = store.Load(ctx, "catalog")
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "raw_data", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "raw_data.json", entries[0].Name())
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Save(ctx, "catalog", []byte(`[]`)), context.Canceled)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), common.StoreConfig{Driver: "mongo"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
