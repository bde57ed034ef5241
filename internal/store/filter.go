package store

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thespacelab/expenseledger/internal/models"
)

// Filter is a predicate over record fields. A nil Filter matches every
// record.
type Filter func(models.ExpenseRecord) bool

// FieldFilter is a cumulative field filter: every set field must match.
// The zero value matches everything.
type FieldFilter struct {
	// Category, Merchant and PaidThrough match exactly when non-empty.
	Category    string
	Merchant    string
	PaidThrough string

	// DescriptionContains matches case-insensitively as a substring.
	DescriptionContains string

	// From and To bound the record date inclusively when non-nil.
	From *models.Date
	To   *models.Date
}

// Predicate compiles the field filter into a Filter.
func (f FieldFilter) Predicate() Filter {
	needle := strings.ToLower(f.DescriptionContains)
	return func(r models.ExpenseRecord) bool {
		if f.Category != "" && r.Category != f.Category {
			return false
		}
		if f.Merchant != "" && r.Merchant != f.Merchant {
			return false
		}
		if f.PaidThrough != "" && r.PaidThrough != f.PaidThrough {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Description), needle) {
			return false
		}
		if f.From != nil && r.Date.Before(f.From.Time) {
			return false
		}
		if f.To != nil && r.Date.After(f.To.Time) {
			return false
		}
		return true
	}
}

// Breakdown aggregates one slice of a summary.
type Breakdown struct {
	Count   int
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense for the slice.
func (b Breakdown) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

// Summary is the aggregate view of a filtered listing: overall totals plus
// per-category and per-merchant breakdowns.
type Summary struct {
	Total      Breakdown
	ByCategory map[string]Breakdown
	ByMerchant map[string]Breakdown
}

func summarize(records []models.ExpenseRecord) Summary {
	s := Summary{
		ByCategory: make(map[string]Breakdown),
		ByMerchant: make(map[string]Breakdown),
	}
	add := func(b Breakdown, r models.ExpenseRecord) Breakdown {
		b.Count++
		b.Income = b.Income.Add(r.Income)
		b.Expense = b.Expense.Add(r.Expense)
		return b
	}
	for _, r := range records {
		s.Total = add(s.Total, r)
		s.ByCategory[r.Category] = add(s.ByCategory[r.Category], r)
		s.ByMerchant[r.Merchant] = add(s.ByMerchant[r.Merchant], r)
	}
	return s
}
