package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	// MaxNoteLength bounds the free-text annotation in bytes.
	MaxNoteLength = 200

	DefaultCategory = "Other"
)

// DefaultCategories is the advisory category set offered to the user.
// Transactions may carry any non-empty label.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Health",
	"Salary",
	DefaultCategory,
}

type (
	TxType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       int64  `json:"id"`
		Type     TxType `json:"type"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note"`
		Date     Date   `json:"date"`
	}

	// Draft is the raw user input for a new transaction. Amount and Date are
	// kept as text so that form and JSON clients share one validation path.
	Draft struct {
		Type     string `json:"type"`
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note"`
		Date     string `json:"date"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrNoteTooLong   = errors.New("note too long (max 200 characters)")
	ErrEmptyCategory = errors.New("empty category")
)

// ParseType parses a transaction type. An empty value defaults to Expense.
func ParseType(s string) (TxType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Expense, nil
	}
	t := TxType(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (t TxType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the YYYY-MM month prefix used for bucketing.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return nil, ErrInvalidDate
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD and, for records written by other tools,
// full RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		return ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return ErrInvalidDate
	}
	*d = DateOf(t)
	return nil
}

// NewTransaction validates a draft and builds the record it describes.
// The returned transaction has no ID; the store assigns one.
func NewTransaction(d Draft, today time.Time) (Transaction, error) {
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, err
	}

	typ, err := ParseType(d.Type)
	if err != nil {
		return Transaction{}, err
	}

	date := DateOf(today)
	if strings.TrimSpace(d.Date) != "" {
		if date, err = ParseDate(d.Date); err != nil {
			return Transaction{}, err
		}
	}

	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = DefaultCategory
	}

	tx := Transaction{
		Type:     typ,
		Amount:   amount,
		Category: category,
		Note:     strings.TrimSpace(d.Note),
		Date:     date,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(tx.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// IsValidationError reports whether err is one of the draft validation errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNoteTooLong) ||
		errors.Is(err, ErrEmptyCategory)
}
