package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk and on-wire date form.
const DateLayout = "2006-01-02"

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tells whether an entry adds to or subtracts from the balance.
	Kind string

	Date struct {
		time.Time
	}

	// Entry is one recorded income or expense transaction.
	// Values are never mutated after NewEntry returns them.
	Entry struct {
		Kind     Kind
		Amount   decimal.Decimal
		Category string
		Date     Date
	}
)

var (
	ErrInvalidKind       = errors.New("invalid entry type: must be income or expense")
	ErrInvalidAmount     = errors.New("invalid amount: must be a number")
	ErrNonPositiveAmount = errors.New("invalid amount: must be a positive number")
	ErrInvalidDate       = errors.New("invalid date: use YYYY-MM-DD")
	ErrInvalidMonth      = errors.New("invalid month: must be between 1 and 12")
)

// ParseKind maps the persisted spelling to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Income, Expense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// ParseDate accepts only the zero-padded canonical form; "2024-3-5" is rejected
// even though it names a real day.
func ParseDate(s string) (Date, error) {
	if strings.TrimSpace(s) == "" {
		return Date{}, fmt.Errorf("%w: date is mandatory", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if t.Format(DateLayout) != s {
		return Date{}, fmt.Errorf("%w: %q is not in canonical order", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String returns the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// NewEntry validates raw form input and builds an Entry from it.
// Checks run in the order kind, amount, date; the first failure is returned.
func NewEntry(kind, amount, category, date string) (Entry, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Entry{}, err
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return Entry{}, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Kind: k, Amount: amt, Category: category, Date: d}, nil
}

func (e Entry) Validate() error {
	if _, err := ParseKind(string(e.Kind)); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is mandatory", ErrInvalidDate)
	}
	return nil
}

// Equal compares entries by value; decimal amounts are compared numerically.
func (e Entry) Equal(o Entry) bool {
	return e.Kind == o.Kind &&
		e.Amount.Equal(o.Amount) &&
		e.Category == o.Category &&
		e.Date.Equal(o.Date.Time)
}

// IsValidationError reports whether err came from rejected user input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidMonth)
}
