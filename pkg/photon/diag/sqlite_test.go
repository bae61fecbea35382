package diag_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/randalmurphal/photon/pkg/photon/diag"
	perrors "github.com/randalmurphal/photon/pkg/photon/errors"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "incidents.db")

	store1, err := diag.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Record(ctx, unmatched(4, 9)))
	require.NoError(t, store1.Close())

	// Reopen the database
	store2, err := diag.NewSQLiteStore(dbPath, diag.WithRetry(perrors.NoRetry))
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.List(ctx, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(9), got[0].Sequence)
}

func TestSQLiteStore_BadTimestamp(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "incidents.db")

	store, err := diag.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, unmatched(4, 9)))
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE incidents SET occurred_at = 'yesterday'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err = diag.NewSQLiteStore(dbPath, diag.WithRetry(perrors.NoRetry))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.List(ctx, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "occurred_at")
	assert.Contains(t, err.Error(), "yesterday")
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := diag.NewSQLiteStore("/nonexistent/path/incidents.db")
	assert.Error(t, err)
}

func TestSQLiteStore_CancelledContext(t *testing.T) {
	store, err := diag.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.Record(ctx, unmatched(1, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, perrors.IsRetryable(err))
}

func TestOpen(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := diag.Open("", perrors.DefaultRetry)
		assert.ErrorIs(t, err, diag.ErrNoPath)
	})

	t.Run("memory", func(t *testing.T) {
		store, err := diag.Open(diag.MemoryPath, perrors.DefaultRetry)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &diag.MemoryStore{}, store)
	})

	t.Run("file", func(t *testing.T) {
		store, err := diag.Open(filepath.Join(t.TempDir(), "d.db"), perrors.DefaultRetry)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &diag.SQLiteStore{}, store)
	})
}
