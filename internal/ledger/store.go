// Package ledger holds the transaction store: the ordered, newest-first list
// of transactions, hydrated from and persisted to a kv.Store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
	"budget/internal/kv"
)

var (
	// ErrStateUnreadable means the persisted payload was not valid JSON.
	// The store starts empty; the process carries on.
	ErrStateUnreadable = errors.New("persisted state unreadable")

	// ErrPersistWrite means the backend rejected a write. The in-memory
	// mutation is kept and remains authoritative for the session.
	ErrPersistWrite = errors.New("persist write failed")
)

// Store is not safe for concurrent use; callers serialize intents.
type Store struct {
	backend  kv.Store
	key      string
	now      func() time.Time
	logger   *slog.Logger
	txs      []core.Transaction
	lastID   int64
	revision uint64
}

type Option func(*Store)

// WithClock overrides time.Now for date defaults and id assignment.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New creates an empty store. Call Load to hydrate it.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     StorageKey,
		now:     time.Now,
		logger:  slog.Default(),
		txs:     []core.Transaction{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A missing key
// yields an empty store. Malformed JSON also yields an empty store and an
// error wrapping ErrStateUnreadable, which callers should log, not abort on.
// Any other backend failure is returned as is and must not be treated as an
// empty ledger, or the next write would replace the stored data.
func (s *Store) Load(ctx context.Context) ([]core.Transaction, error) {
	s.txs = []core.Transaction{}
	s.lastID = 0
	s.revision++

	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return s.Transactions(), nil
	}
	if err != nil {
		return s.Transactions(), fmt.Errorf("read %s: %w", s.key, err)
	}

	txs, skipped, err := Decode(data)
	if err != nil {
		return s.Transactions(), fmt.Errorf("%w: %w", ErrStateUnreadable, err)
	}
	for _, reason := range skipped {
		s.logger.WarnContext(ctx, "Skipping persisted transaction", "key", s.key, "error", reason)
	}

	s.txs = txs
	for _, tx := range txs {
		s.lastID = max(s.lastID, tx.ID)
	}
	s.logger.InfoContext(ctx, "Transactions loaded", "key", s.key, "count", len(txs), "skipped", len(skipped))
	return s.Transactions(), nil
}

// Add validates the draft, stores the transaction first in the list and
// persists. On a validation error the store is unchanged. On a persist error
// the returned transaction is still stored and err wraps ErrPersistWrite.
func (s *Store) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	now := s.now()
	tx, err := core.NewTransaction(d, now)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = s.nextID(now)

	s.txs = append([]core.Transaction{tx}, s.txs...)
	s.revision++

	return tx, s.persist(ctx)
}

// Remove deletes the transaction with id. An unknown id is a no-op and
// reports false without touching storage.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	idx := -1
	for i, tx := range s.txs {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	txs := make([]core.Transaction, 0, len(s.txs)-1)
	txs = append(txs, s.txs[:idx]...)
	s.txs = append(txs, s.txs[idx+1:]...)
	s.revision++

	return true, s.persist(ctx)
}

// Transactions returns a copy of the list, newest first.
func (s *Store) Transactions() []core.Transaction {
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	return len(s.txs)
}

// Revision changes on every load and mutation.
func (s *Store) Revision() uint64 {
	return s.revision
}

// Export renders the current list as the downloadable document.
func (s *Store) Export() ([]byte, error) {
	return EncodeExport(s.txs)
}

// nextID is the current unix millisecond, bumped past the last assigned id.
func (s *Store) nextID(now time.Time) int64 {
	id := max(now.UnixMilli(), s.lastID+1)
	s.lastID = id
	return id
}

func (s *Store) persist(ctx context.Context) error {
	data, err := Encode(s.txs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistWrite, err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistWrite, err)
	}
	return nil
}
