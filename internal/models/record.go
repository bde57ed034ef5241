package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-date format (ISO-8601, no time).
const DateLayout = "2006-01-02"

// Date is a calendar date with no time component, normalized to UTC
// midnight. It marshals to and from "YYYY-MM-DD" JSON strings.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns the date in "YYYY-MM-DD" form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ExpenseRecord represents one row of financial activity.
//
// A record carries either an income amount, an expense amount, both, or
// neither; a row with all-zero amounts is valid (imports default missing
// amounts to zero rather than rejecting the row).
type ExpenseRecord struct {
	// ID is the unique identifier for the record (UUID format).
	// It is assigned by the store on insert; parsed records that have not
	// been stored yet have an empty ID.
	ID string `json:"id,omitempty"`

	// Date is the calendar date of the activity.
	Date Date `json:"date"`

	// Description is a free-text description. May be empty.
	Description string `json:"description"`

	// Category is the expense category. May be empty.
	Category string `json:"category"`

	// Merchant is the merchant name. May be empty.
	Merchant string `json:"merchant"`

	// PaidThrough is the account or instrument the row was paid through.
	// May be empty.
	PaidThrough string `json:"paidThrough"`

	// Income is the income amount. Non-negative; zero when the row is an
	// expense.
	Income decimal.Decimal `json:"incomeAmount"`

	// Expense is the expense amount. Non-negative; zero when the row is
	// an income.
	Expense decimal.Decimal `json:"expenseAmount"`
}

// RecordKey is the duplicate-detection key for merge imports.
//
// Merchant and PaidThrough are deliberately excluded: two rows that agree
// on date, description, category and both amounts are treated as the same
// transaction even if those incidental fields differ. This is the documented
// import policy, not an oversight.
type RecordKey struct {
	Date        string
	Description string
	Category    string
	Income      string
	Expense     string
}

// Key returns the duplicate-detection key for the record.
func (r ExpenseRecord) Key() RecordKey {
	return RecordKey{
		Date:        r.Date.String(),
		Description: r.Description,
		Category:    r.Category,
		Income:      r.Income.String(),
		Expense:     r.Expense.String(),
	}
}

// Equal reports whether two records have identical user-visible fields.
// IDs are ignored so a parsed record compares equal to its stored copy.
func (r ExpenseRecord) Equal(o ExpenseRecord) bool {
	return r.Date.Time.Equal(o.Date.Time) &&
		r.Description == o.Description &&
		r.Category == o.Category &&
		r.Merchant == o.Merchant &&
		r.PaidThrough == o.PaidThrough &&
		r.Income.Equal(o.Income) &&
		r.Expense.Equal(o.Expense)
}
