package core

import "sort"

// Totals summarizes a transaction set.
type Totals struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// IsNegative reports a strictly negative balance. A zero balance is not negative.
func (t Totals) IsNegative() bool {
	return t.Balance.Cents < 0
}

// CategoryTotal is the expense sum for one category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
}

// MonthPoint is one bucket of the monthly trend series.
type MonthPoint struct {
	Month   string `json:"month"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// View is the full derived state handed to the presentation layer after
// every intent.
type View struct {
	Filter               Filter          `json:"filter"`
	Transactions         []Transaction   `json:"transactions"`
	FilteredTransactions []Transaction   `json:"filteredTransactions"`
	Totals               Totals          `json:"totals"`
	CategoryBreakdown    []CategoryTotal `json:"categoryBreakdown"`
	MonthlySeries        []MonthPoint    `json:"monthlySeries"`
	DistinctMonths       []string        `json:"distinctMonths"`

	// PersistError is set when the last mutation could not be written to storage.
	PersistError string `json:"persistError,omitempty"`
}

// DistinctMonths returns every month prefix present in txs, newest first.
func DistinctMonths(txs []Transaction) []string {
	seen := make(map[string]struct{}, len(txs))
	months := make([]string, 0)
	for _, tx := range txs {
		m := tx.Date.MonthKey()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	// YYYY-MM is zero padded, so lexicographic order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// ApplyFilter returns the transactions matching f in their original order.
func ApplyFilter(txs []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// ComputeTotals sums income and expense amounts. Balance is income minus expense.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// CategoryBreakdown sums expenses per category in first-seen order.
// Income transactions are ignored.
func CategoryBreakdown(txs []Transaction) []CategoryTotal {
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryTotal{Category: tx.Category})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	return out
}

// MonthlySeries buckets income and expense per month, oldest first.
// Callers pass the whole store: the trend ignores the active filter.
func MonthlySeries(txs []Transaction) []MonthPoint {
	index := make(map[string]int)
	out := make([]MonthPoint, 0)
	for _, tx := range txs {
		m := tx.Date.MonthKey()
		i, ok := index[m]
		if !ok {
			i = len(out)
			index[m] = i
			out = append(out, MonthPoint{Month: m})
		}
		switch tx.Type {
		case Income:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case Expense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Month < out[b].Month })
	return out
}

// BuildView derives every view from the full store and the active filter.
func BuildView(all []Transaction, f Filter) View {
	f = f.Normalize()
	filtered := ApplyFilter(all, f)

	txs := make([]Transaction, len(all))
	copy(txs, all)

	return View{
		Filter:               f,
		Transactions:         txs,
		FilteredTransactions: filtered,
		Totals:               ComputeTotals(filtered),
		CategoryBreakdown:    CategoryBreakdown(filtered),
		MonthlySeries:        MonthlySeries(all),
		DistinctMonths:       DistinctMonths(all),
	}
}
