package ledger

import (
	"encoding/json"
	"fmt"

	"budget/internal/core"
)

// StorageKey is the single key the store is persisted under. The payload
// carries no version field: any layout change is a breaking change.
const StorageKey = "budget_manager_data_v1"

// ExportFilename is the suggested name for the exported document.
const ExportFilename = "budget-data.json"

// exportDocument wraps the transactions, unlike the persisted layout.
type exportDocument struct {
	Transactions []core.Transaction `json:"transactions"`
}

// Encode renders the persisted layout: a bare JSON array.
func Encode(txs []core.Transaction) ([]byte, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return nil, fmt.Errorf("encode transactions: %w", err)
	}
	return data, nil
}

// EncodeExport renders the downloadable {"transactions": [...]} document.
func EncodeExport(txs []core.Transaction) ([]byte, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	data, err := json.MarshalIndent(exportDocument{Transactions: txs}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// Decode parses the persisted array. It fails only when the payload as a whole
// is not a JSON array; records that do not decode or validate are returned in
// skipped with the reason.
func Decode(data []byte) (txs []core.Transaction, skipped []error, err error) {
	// Decode records one at a time so a bad record does not poison the array.
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	seen := make(map[int64]struct{}, len(raw))
	txs = make([]core.Transaction, 0, len(raw))
	for i, r := range raw {
		var tx core.Transaction
		if err := json.Unmarshal(r, &tx); err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if err := tx.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("record %d (id %d): %w", i, tx.ID, err))
			continue
		}
		if _, dup := seen[tx.ID]; dup {
			skipped = append(skipped, fmt.Errorf("record %d: duplicate id %d", i, tx.ID))
			continue
		}
		seen[tx.ID] = struct{}{}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}
