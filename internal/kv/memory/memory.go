package memory

import (
	"context"
	"sync"

	"budget/internal/kv"
)

// Store keeps values in process memory. It is the default backend for local
// runs and the fake used in tests.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte

	// FailWrites makes Set return this error, for exercising persistence failures.
	FailWrites error
	// FailReads makes Get return this error.
	FailReads error
}

var _ kv.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewWith seeds the store with one key.
func NewWith(key string, value []byte) *Store {
	s := New()
	s.items[key] = append([]byte(nil), value...)
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	v, ok := s.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}
