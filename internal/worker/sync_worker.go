// Package worker mirrors the persisted ledger to a spreadsheet.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/kv"
	"budget/internal/ledger"
	applog "budget/internal/log"
	"budget/internal/sheets"
)

// SyncWorker reloads the ledger from the shared backend and replaces the
// mirror whenever the persisted snapshot changed since the last sync.
type SyncWorker struct {
	backend kv.Store
	mirror  sheets.TransactionMirror
	logger  *slog.Logger

	mu       sync.Mutex
	lastSent []byte
}

func NewSyncWorker(backend kv.Store, mirror sheets.TransactionMirror, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default().With(applog.FieldComponent, applog.ComponentWorker)
	}
	return &SyncWorker{
		backend: backend,
		mirror:  mirror,
		logger:  logger,
	}
}

// HandleEvent processes one transaction event. Events only signal that the
// snapshot changed; the mirror is always rebuilt from storage.
func (w *SyncWorker) HandleEvent(ctx context.Context, event amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		"action", event.Action,
		applog.FieldTransactionID, event.ID,
		applog.FieldRevision, event.Revision)

	if _, err := w.Sync(ctx); err != nil {
		return fmt.Errorf("sync after %s %d: %w", event.Action, event.ID, err)
	}
	return nil
}

// StartupSync mirrors once, recovering from events missed while the worker was down.
// When the mirror can be read back, a sheet that already matches the snapshot
// is left alone.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	w.primeFromMirror(ctx)

	synced, err := w.Sync(ctx)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", applog.FieldOperation, applog.OpStartup, "written", synced)
	return nil
}

// Run resyncs every interval until ctx is done. Failures are logged and
// retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

// Sync loads the snapshot and writes it to the mirror if it differs from the
// last snapshot written. It reports whether a write happened.
func (w *SyncWorker) Sync(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	store := ledger.New(w.backend, ledger.WithLogger(w.logger))
	txs, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ledger.ErrStateUnreadable) {
			return false, err
		}
		// Never wipe the mirror because of a corrupt snapshot.
		w.logger.WarnContext(ctx, "Snapshot unreadable, skipping sync", "error", err)
		return false, nil
	}

	snapshot, err := ledger.Encode(txs)
	if err != nil {
		return false, err
	}
	if w.lastSent != nil && bytes.Equal(snapshot, w.lastSent) {
		w.logger.DebugContext(ctx, "Mirror up to date", "transactions", len(txs))
		return false, nil
	}

	if err := w.mirror.ReplaceTransactions(ctx, txs); err != nil {
		return false, fmt.Errorf("replace transactions: %w", err)
	}
	w.lastSent = snapshot

	w.logger.InfoContext(ctx, "Mirror updated", applog.FieldOperation, applog.OpSync, "transactions", len(txs))
	return true, nil
}

// primeFromMirror seeds lastSent with what the mirror currently holds. An
// empty or unreadable mirror leaves lastSent unset so the next Sync writes.
func (w *SyncWorker) primeFromMirror(ctx context.Context) {
	lister, ok := w.mirror.(sheets.TransactionLister)
	if !ok {
		return
	}

	txs, err := lister.ListTransactions(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Could not read mirror, rewriting it", "error", err)
		return
	}
	if len(txs) == 0 {
		return
	}

	snapshot, err := ledger.Encode(txs)
	if err != nil {
		return
	}

	w.mu.Lock()
	w.lastSent = snapshot
	w.mu.Unlock()
	w.logger.DebugContext(ctx, "Primed from mirror", "transactions", len(txs))
}
