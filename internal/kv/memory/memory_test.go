package memory

import (
	"context"
	"errors"
	"testing"

	"budget/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	value := []byte("[1]")
	require.NoError(t, s.Set(ctx, "k", value))
	value[1] = '2' // caller mutation must not leak into the store

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
}

func TestMemoryStoreFailWrites(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := NewWith("k", []byte("old"))
	s.FailWrites = boom

	assert.ErrorIs(t, s.Set(context.Background(), "k", []byte("new")), boom)
	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

func TestMemoryStoreFailReads(t *testing.T) {
	boom := errors.New("database is locked")
	s := NewWith("k", []byte("v"))
	s.FailReads = boom

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
}
