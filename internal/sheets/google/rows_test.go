package google

import (
	"testing"

	"budget/internal/core"
)

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"ID", "Date", "Type", "Category", "Note", "Amount"},
		{"17", "2024-01-05", "income", "Salary", "", 100.0},
		{17.0 + 1, "2024-01-06", "expense", "Food", "lunch", "12,50"},
		{},
		{"", "", "", "", "", ""},
		{"19", "not-a-date", "expense", "Food", "", 1.0},
		{"20", "2024-01-06", "expense", "Food", "", -3.0},
		{"21", "2024-01-06", "expense"},
	}

	txs, errs := parseRows(values)
	if len(txs) != 2 {
		t.Fatalf("parsed %d transactions, want 2: %+v", len(txs), txs)
	}
	if len(errs) != 3 {
		t.Errorf("got %d row errors, want 3: %v", len(errs), errs)
	}

	if txs[0].ID != 17 || txs[0].Type != core.Income || txs[0].Amount.Cents != 10000 {
		t.Errorf("first row = %+v", txs[0])
	}
	if txs[1].ID != 18 || txs[1].Amount.Cents != 1250 || txs[1].Note != "lunch" {
		t.Errorf("second row = %+v", txs[1])
	}
}

func TestTransactionRowsLayout(t *testing.T) {
	rows := transactionRows([]core.Transaction{{
		ID: 1704067200000, Type: core.Expense, Amount: core.Money{Cents: 4250},
		Category: "Food", Note: "lunch", Date: core.NewDate(2024, 1, 1),
	}})
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	want := []any{"1704067200000", "2024-01-01", "expense", "Food", "lunch", 42.5}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("col %d = %#v, want %#v", i, rows[1][i], v)
		}
	}
}
