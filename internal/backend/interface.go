// Package backend builds the kv.Store selected by configuration.
package backend

import (
	"context"

	"budget/internal/kv"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is a ready store plus its optional cleanup.
type Result struct {
	Store   kv.Store
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates stores from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds what each backend type needs.
type Config struct {
	Type Type

	// File
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresDSN string
}

type Type string

const (
	MemoryBackend   Type = "memory"
	FileBackend     Type = "file"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
