package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id int64, typ TxType, cents int64, category, date string) Transaction {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return Transaction{ID: id, Type: typ, Amount: Money{Cents: cents}, Category: category, Date: d}
}

func TestFilterMatches(t *testing.T) {
	food := tx(1, Expense, 3000, "Food", "2024-01-10")

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero value matches all", Filter{}, true},
		{"all", AllFilter(), true},
		{"type match", Filter{Type: "expense"}, true},
		{"type mismatch", Filter{Type: "income"}, false},
		{"category match", Filter{Category: "Food"}, true},
		{"category is case sensitive", Filter{Category: "food"}, false},
		{"month match", Filter{Month: "2024-01"}, true},
		{"month mismatch", Filter{Month: "2024-02"}, false},
		{"conjunction", Filter{Type: "expense", Category: "Food", Month: "2024-01"}, true},
		{"conjunction fails on one", Filter{Type: "expense", Category: "Food", Month: "2023-01"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(food))
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("", " ", "")
	require.NoError(t, err)
	assert.Equal(t, AllFilter(), f)

	f, err = ParseFilter("Income", "Salary", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, Filter{Type: "income", Category: "Salary", Month: "2024-03"}, f)

	for _, bad := range [][3]string{
		{"transfer", "all", "all"},
		{"all", "all", "2024-3"},
		{"all", "all", "March"},
		{"all", "all", "2024-13"},
	} {
		_, err := ParseFilter(bad[0], bad[1], bad[2])
		assert.ErrorIs(t, err, ErrInvalidFilter, bad)
	}
}

func TestFilterKey(t *testing.T) {
	assert.Equal(t, AllFilter().Key(), Filter{}.Key())
	assert.NotEqual(t, Filter{Type: "income"}.Key(), Filter{Category: "income"}.Key())
}
