package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budget/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.Get(ctx, "budget_manager_data_v1")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "budget_manager_data_v1", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "budget_manager_data_v1", []byte(`[{"id":1}]`)))

	got, err := s.Get(ctx, "budget_manager_data_v1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "budget_manager_data_v1.json", entries[0].Name())
}

func TestFileStoreEscapesKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "..%2Fescape.json", filepath.Base(s.path("../escape")))
}
