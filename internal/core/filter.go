package core

import (
	"errors"
	"strings"
	"time"
)

// FilterAll disables a filter dimension.
const FilterAll = "all"

var ErrInvalidFilter = errors.New("invalid filter")

// Filter is the user's current view constraint. Empty fields behave as FilterAll.
type Filter struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Month    string `json:"month"`
}

// AllFilter matches every transaction.
func AllFilter() Filter {
	return Filter{Type: FilterAll, Category: FilterAll, Month: FilterAll}
}

// ParseFilter validates raw filter input. Type must be all, income or
// expense; month must be all or YYYY-MM. Category is free text.
func ParseFilter(typ, category, month string) (Filter, error) {
	f := Filter{
		Type:     strings.ToLower(strings.TrimSpace(typ)),
		Category: strings.TrimSpace(category),
		Month:    strings.TrimSpace(month),
	}.Normalize()

	if f.Type != FilterAll {
		if err := TxType(f.Type).Validate(); err != nil {
			return Filter{}, errors.Join(ErrInvalidFilter, err)
		}
	}
	if f.Month != FilterAll {
		if _, err := time.Parse(MonthLayout, f.Month); err != nil || len(f.Month) != len(MonthLayout) {
			return Filter{}, errors.Join(ErrInvalidFilter, errors.New("month must be YYYY-MM"))
		}
	}
	return f, nil
}

// Normalize replaces empty dimensions with FilterAll.
func (f Filter) Normalize() Filter {
	if f.Type == "" {
		f.Type = FilterAll
	}
	if f.Category == "" {
		f.Category = FilterAll
	}
	if f.Month == "" {
		f.Month = FilterAll
	}
	return f
}

// Matches reports whether tx satisfies every dimension of f.
func (f Filter) Matches(tx Transaction) bool {
	f = f.Normalize()
	if f.Type != FilterAll && TxType(f.Type) != tx.Type {
		return false
	}
	if f.Category != FilterAll && f.Category != tx.Category {
		return false
	}
	if f.Month != FilterAll && f.Month != tx.Date.MonthKey() {
		return false
	}
	return true
}

// Key identifies the filter for memoization.
func (f Filter) Key() string {
	f = f.Normalize()
	return f.Type + "|" + f.Category + "|" + f.Month
}
