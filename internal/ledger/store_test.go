package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/kv/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var clock = fixedClock(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))

func newStore(t *testing.T, backend *memory.Store) *Store {
	t.Helper()
	s := New(backend, WithClock(clock))
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return s
}

func persisted(t *testing.T, backend *memory.Store) []core.Transaction {
	t.Helper()
	data, err := backend.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	var txs []core.Transaction
	require.NoError(t, json.Unmarshal(data, &txs))
	return txs
}

func TestLoadMissingKeyIsEmpty(t *testing.T) {
	s := New(memory.New())
	txs, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 0, s.Len())
}

func TestLoadMalformedIsSoft(t *testing.T) {
	backend := memory.NewWith(StorageKey, []byte(`{not json`))
	s := New(backend)
	txs, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrStateUnreadable)
	assert.Empty(t, txs)

	// the store is usable afterwards
	_, err = s.Add(context.Background(), core.Draft{Amount: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestLoadBackendFailureIsNotUnreadable(t *testing.T) {
	seed := []byte(`[
		{"id":2,"type":"expense","amount":30,"category":"Food","note":"","date":"2024-01-10"},
		{"id":1,"type":"income","amount":100,"category":"Salary","note":"","date":"2024-01-05"}
	]`)
	backend := memory.NewWith(StorageKey, seed)
	locked := errors.New("database is locked")
	backend.FailReads = locked

	s := New(backend)
	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, locked)
	assert.NotErrorIs(t, err, ErrStateUnreadable)

	backend.FailReads = nil
	data, err := backend.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	assert.Equal(t, seed, data, "stored payload untouched")
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	backend := memory.NewWith(StorageKey, []byte(`[
		{"id":3,"type":"income","amount":100,"category":"Salary","note":"","date":"2024-01-05"},
		{"id":4,"type":"gift","amount":1,"category":"Other","note":"","date":"2024-01-05"},
		{"id":5,"type":"expense","amount":0,"category":"Food","note":"","date":"2024-01-05"},
		{"id":6,"type":"expense","amount":5,"category":"Food","note":"","date":"someday"},
		{"id":3,"type":"expense","amount":5,"category":"Food","note":"dup","date":"2024-01-06"},
		{"id":7,"type":"expense","amount":30,"category":"Food","date":"2024-01-10"}
	]`))
	s := New(backend)
	txs, err := s.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, txs, 2)
	assert.Equal(t, int64(3), txs[0].ID)
	assert.Equal(t, int64(7), txs[1].ID)
	assert.Equal(t, "", txs[1].Note, "missing note decodes as empty")
}

func TestAddPrependsAndPersists(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend)
	ctx := context.Background()

	first, err := s.Add(ctx, core.Draft{Type: "income", Amount: "100", Category: "Salary", Date: "2024-01-05"})
	require.NoError(t, err)
	second, err := s.Add(ctx, core.Draft{Type: "expense", Amount: "30", Category: "Food", Date: "2024-01-10"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, clock().UnixMilli(), first.ID)

	txs := s.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, second.ID, txs[0].ID, "newest first")
	assert.Equal(t, txs, persisted(t, backend))
}

func TestAddDefaultsDateToToday(t *testing.T) {
	s := newStore(t, memory.New())
	tx, err := s.Add(context.Background(), core.Draft{Amount: "3.20"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", tx.Date.String())
}

func TestAddInvalidAmountLeavesStoreUnchanged(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend)
	rev := s.Revision()

	_, err := s.Add(context.Background(), core.Draft{Amount: "abc"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, s.Transactions())
	assert.Equal(t, rev, s.Revision())

	_, err = backend.Get(context.Background(), StorageKey)
	assert.Error(t, err, "nothing persisted")
}

func TestAddThenTotals(t *testing.T) {
	s := newStore(t, memory.New())
	_, err := s.Add(context.Background(), core.Draft{Type: "expense", Amount: "42.50", Category: "Food", Date: "2024-03-01"})
	require.NoError(t, err)

	totals := core.ComputeTotals(s.Transactions())
	assert.Equal(t, core.Totals{
		Income:  core.Money{Cents: 0},
		Expense: core.Money{Cents: 4250},
		Balance: core.Money{Cents: -4250},
	}, totals)
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend)
	backend.FailWrites = errors.New("quota exceeded")

	tx, err := s.Add(context.Background(), core.Draft{Amount: "5"})
	assert.ErrorIs(t, err, ErrPersistWrite)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, 1, s.Len())

	removed, err := s.Remove(context.Background(), tx.ID)
	assert.True(t, removed)
	assert.ErrorIs(t, err, ErrPersistWrite)
	assert.Equal(t, 0, s.Len())
}

func TestRemove(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend)
	ctx := context.Background()

	a, err := s.Add(ctx, core.Draft{Amount: "1"})
	require.NoError(t, err)
	b, err := s.Add(ctx, core.Draft{Amount: "2"})
	require.NoError(t, err)
	c, err := s.Add(ctx, core.Draft{Amount: "3"})
	require.NoError(t, err)

	removed, err := s.Remove(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	txs := s.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, []int64{c.ID, a.ID}, []int64{txs[0].ID, txs[1].ID})
	assert.Equal(t, txs, persisted(t, backend))
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend)
	ctx := context.Background()
	_, err := s.Add(ctx, core.Draft{Amount: "1"})
	require.NoError(t, err)

	before := s.Transactions()
	beforeData, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	rev := s.Revision()

	removed, err := s.Remove(ctx, 42)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, before, s.Transactions())
	assert.Equal(t, rev, s.Revision())

	afterData, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, beforeData, afterData)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend)
	ctx := context.Background()
	for _, d := range []core.Draft{
		{Type: "income", Amount: "100", Category: "Salary", Date: "2024-01-05"},
		{Type: "expense", Amount: "30", Category: "Food", Note: "groceries", Date: "2024-01-10"},
		{Type: "expense", Amount: "20.05", Category: "Transport", Date: "2024-02-01"},
	} {
		_, err := s.Add(ctx, d)
		require.NoError(t, err)
	}

	reloaded := New(backend, WithClock(clock))
	txs, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, s.Transactions(), txs)

	// ids keep increasing after a reload
	next, err := reloaded.Add(ctx, core.Draft{Amount: "1"})
	require.NoError(t, err)
	for _, tx := range txs {
		assert.Greater(t, next.ID, tx.ID)
	}
}

func TestExport(t *testing.T) {
	s := newStore(t, memory.New())
	data, err := s.Export()
	require.NoError(t, err)
	assert.JSONEq(t, `{"transactions":[]}`, string(data))

	_, err = s.Add(context.Background(), core.Draft{Type: "income", Amount: "7", Category: "Salary", Date: "2024-01-01"})
	require.NoError(t, err)
	data, err = s.Export()
	require.NoError(t, err)

	var doc struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, s.Transactions(), doc.Transactions)
}
