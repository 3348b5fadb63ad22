// Package services turns user intents into store mutations and recomputed views.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ledger"
	applog "budget/internal/log"
)

// Notifier receives an event after each persisted mutation.
type Notifier interface {
	Notify(ctx context.Context, event amqp.TransactionEvent) error
}

const defaultViewCacheSize = 64

// Tracker serializes intents against a single ledger.Store and keeps the
// current filter.
type Tracker struct {
	mu         sync.Mutex
	store      *ledger.Store
	filter     core.Filter
	notifier   Notifier
	views      cache.Cache[core.View]
	logger     *slog.Logger
	persistErr string
}

type Option func(*Tracker)

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithViewCache replaces the default view memo.
func WithViewCache(c cache.Cache[core.View]) Option {
	return func(t *Tracker) { t.views = c }
}

func NewTracker(store *ledger.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		filter: core.AllFilter(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.views == nil {
		t.views = cache.NewLRUCache[core.View](defaultViewCacheSize, 0)
	}
	return t
}

// Load hydrates the store. Unreadable state is logged and the tracker starts
// empty; only backend failures other than that are returned.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	txs, err := t.store.Load(ctx)
	t.views.Purge()
	if errors.Is(err, ledger.ErrStateUnreadable) {
		t.logger.WarnContext(ctx, "Persisted state unreadable, starting empty", applog.FieldOperation, applog.OpLoad, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	t.logger.InfoContext(ctx, "Tracker ready", applog.FieldOperation, applog.OpLoad, "transactions", len(txs))
	return nil
}

// AddTransaction validates and stores a draft. Validation errors leave the
// store unchanged and are returned alongside the current view.
func (t *Tracker) AddTransaction(ctx context.Context, d core.Draft) (core.Transaction, core.View, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx, err := t.store.Add(ctx, d)
	if err != nil && !errors.Is(err, ledger.ErrPersistWrite) {
		t.logger.InfoContext(ctx, "Rejected transaction", "error", err)
		return core.Transaction{}, t.viewLocked(), err
	}
	t.afterMutation(ctx, amqp.ActionAdded, tx.ID, err)

	fields := applog.NewFields().
		WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents).
		WithOperation(applog.OpCreate)
	t.logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)
	return tx, t.viewLocked(), nil
}

// RemoveTransaction deletes by id. An unknown id is not an error.
func (t *Tracker) RemoveTransaction(ctx context.Context, id int64) (core.View, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed, err := t.store.Remove(ctx, id)
	if !removed {
		t.logger.DebugContext(ctx, "Remove ignored, unknown id", "id", id)
		return t.viewLocked(), nil
	}
	t.afterMutation(ctx, amqp.ActionRemoved, id, err)

	t.logger.InfoContext(ctx, "Transaction removed", "id", id)
	return t.viewLocked(), nil
}

// SetFilter validates and replaces the current filter.
func (t *Tracker) SetFilter(ctx context.Context, f core.Filter) (core.View, error) {
	parsed, err := core.ParseFilter(f.Type, f.Category, f.Month)
	if err != nil {
		return t.View(ctx), err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = parsed
	t.logger.DebugContext(ctx, "Filter set", "filter", parsed.Key())
	return t.viewLocked(), nil
}

func (t *Tracker) View(ctx context.Context) core.View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Tracker) Filter() core.Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// ExportAll renders every transaction regardless of the filter.
func (t *Tracker) ExportAll(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.store.Export()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	t.logger.InfoContext(ctx, "Exported transactions", "count", t.store.Len(), "bytes", len(data))
	return data, nil
}

// Categories returns the default labels followed by any other labels in use,
// sorted.
func (t *Tracker) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := slices.Clone(core.DefaultCategories)
	var extra []string
	for _, tx := range t.store.Transactions() {
		if !slices.Contains(out, tx.Category) && !slices.Contains(extra, tx.Category) {
			extra = append(extra, tx.Category)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// afterMutation records the persist outcome and notifies on success.
func (t *Tracker) afterMutation(ctx context.Context, action amqp.EventAction, id int64, persistErr error) {
	if persistErr != nil {
		t.persistErr = persistErr.Error()
		t.logger.ErrorContext(ctx, "Failed to persist transactions", "action", action, "id", id, "error", persistErr)
		return
	}
	t.persistErr = ""

	if t.notifier == nil {
		return
	}
	event := amqp.NewTransactionEvent(action, id, t.store.Revision())
	if err := t.notifier.Notify(ctx, event); err != nil {
		t.logger.WarnContext(ctx, "Failed to publish transaction event",
			"action", action,
			applog.FieldTransactionID, id,
			applog.FieldRevision, event.Revision,
			"error", err)
	}
}

func (t *Tracker) viewLocked() core.View {
	key := fmt.Sprintf("%d|%s", t.store.Revision(), t.filter.Key())
	v, ok := t.views.Get(key)
	if !ok {
		v = core.BuildView(t.store.Transactions(), t.filter)
		t.views.Set(key, v)
	}
	v.PersistError = t.persistErr
	return v
}
