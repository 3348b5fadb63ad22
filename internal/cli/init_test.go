package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"budget/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BUDGET_CLI_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("BUDGET_CLI_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("BUDGET_CLI_TEST_VALUE"))

	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("BUDGET_CLI_TEST_VALUE"))

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := LoadConfig((*config.Config).Validate)
	require.NoError(t, err)
	assert.Equal(t, config.BackendFile, cfg.DataBackend)

	_, err = LoadConfig((*config.Config).ValidateSync)
	assert.Error(t, err, "sync needs a broker and a spreadsheet")
}

func TestOpenBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", t.TempDir())
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	res, err := OpenBackend(context.Background(), SetupLogger(cfg.SlogLevel()), cfg)
	require.NoError(t, err)
	defer res.Close()

	ctx := context.Background()
	require.NoError(t, res.Store.Set(ctx, "k", []byte("v")))
	got, err := res.Store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, IgnoreCanceled(nil))
	assert.NoError(t, IgnoreCanceled(fmt.Errorf("consume: %w", context.Canceled)))

	boom := errors.New("boom")
	assert.Equal(t, boom, IgnoreCanceled(boom))
}

func TestSignalContextCancel(t *testing.T) {
	ctx, stop := SignalContext(context.Background())
	stop()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
