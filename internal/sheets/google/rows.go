package google

import (
	"fmt"
	"strconv"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Header is the first row written to the mirror sheet.
var Header = []any{"ID", "Date", "Type", "Category", "Note", "Amount"}

// transactionRows renders the header followed by one row per transaction.
// IDs are written as text so spreadsheets do not reformat them.
func transactionRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, Header)
	for _, tx := range txs {
		rows = append(rows, []any{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			tx.Type.String(),
			tx.Category,
			tx.Note,
			tx.Amount.Float64(),
		})
	}
	return rows
}

// parseRows converts a values matrix back into transactions. A leading header
// row is skipped; rows that do not parse are reported and skipped.
func parseRows(values [][]any) ([]core.Transaction, []error) {
	var (
		out  []core.Transaction
		errs []error
	)
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && len(cols) > 0 && strings.EqualFold(cols[0], "ID") {
			continue
		}
		if len(cols) == 0 || strings.Join(cols, "") == "" {
			continue
		}
		tx, err := parseRow(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		out = append(out, tx)
	}
	return out, errs
}

func parseRow(row []any) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < len(Header) {
		return core.Transaction{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(cols))
	}

	id, err := parseID(row[0])
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseType(cols[2])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseAmount(row[5])
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		ID:       id,
		Type:     typ,
		Amount:   amount,
		Category: cols[3],
		Note:     cols[4],
		Date:     date,
	}
	return tx, tx.Validate()
}

func parseID(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	default:
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(v)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %v", v)
		}
		return id, nil
	}
}

// parseAmount accepts numbers (unformatted values) and decimal strings,
// including a decimal comma.
func parseAmount(v any) (core.Money, error) {
	if f, ok := v.(float64); ok {
		return core.ParseAmount(decimal.NewFromFloat(f).String())
	}
	return core.ParseAmount(fmt.Sprint(v))
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
