// Package sheets defines the outbound ports for mirroring the ledger to a
// spreadsheet.
package sheets

import (
	"context"

	"budget/internal/core"
)

type (
	// TransactionMirror overwrites the remote copy with the given list.
	TransactionMirror interface {
		ReplaceTransactions(ctx context.Context, txs []core.Transaction) error
	}

	// TransactionLister reads the remote copy back.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}
)
