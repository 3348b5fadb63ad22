package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryGetSet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Get(ctx, "budget_manager_data_v1")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "budget_manager_data_v1", []byte(`[]`)))
	require.NoError(t, repo.Set(ctx, "budget_manager_data_v1", []byte(`[{"id":2}]`)))

	got, err := repo.Get(ctx, "budget_manager_data_v1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, string(got))

	ts, err := repo.UpdatedAt(ctx, "budget_manager_data_v1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, "k", []byte("v")))
	require.NoError(t, repo.Close())

	// migrations are idempotent on an existing database
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
