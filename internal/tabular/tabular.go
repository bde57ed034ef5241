// Package tabular normalizes heterogeneous tabular imports (delimited text
// and spreadsheets) into expense records, and serializes records back out.
//
// Parsing is deliberately forgiving: a field-level anomaly (unparseable
// amount, unknown date format) is absorbed to a documented default and never
// fails the import. Only a structurally unreadable input surfaces an error.
package tabular

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thespacelab/expenseledger/internal/models"
)

// field indexes into a bound column set, in header-resolution priority
// order. Priority matters: "Expense Date" must bind to date before the
// expense amount group (which also matches the substring "expense") gets a
// chance to claim it.
const (
	fieldDate = iota
	fieldDescription
	fieldCategory
	fieldMerchant
	fieldPaidThrough
	fieldIncome
	fieldExpense
	numFields
)

// synonyms are matched case-insensitively as substrings against delimited
// headers, one group per field, evaluated in field priority order.
var synonyms = [numFields][]string{
	fieldDate:        {"date"},
	fieldDescription: {"description"},
	fieldCategory:    {"category"},
	fieldMerchant:    {"merchant"},
	fieldPaidThrough: {"paid"},
	fieldIncome:      {"income"},
	fieldExpense:     {"expense", "amount"},
}

// spreadsheetKeys are the candidate header spellings per field for
// spreadsheet input, tried in order with exact case-sensitive matching.
var spreadsheetKeys = [numFields][]string{
	fieldDate:        {"Expense Date", "Date", "date"},
	fieldDescription: {"Expense Description", "Description", "description"},
	fieldCategory:    {"Expense Category", "Category", "category"},
	fieldMerchant:    {"Merchant Name", "Merchant", "merchant"},
	fieldPaidThrough: {"Paid Through", "Paid", "paid"},
	fieldIncome:      {"Income Amount", "Income", "income"},
	fieldExpense:     {"Expense Amount", "Expense", "Amount", "amount"},
}

// canonicalHeaders are the headers written by both serializers.
var canonicalHeaders = []string{
	"Date",
	"Description",
	"Category",
	"Merchant",
	"Paid Through",
	"Income Amount",
	"Expense Amount",
}

// dateLayouts tried in order when parsing an imported date value.
var dateLayouts = []string{
	models.DateLayout,
	"2006/01/02",
	"02/01/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// parseAmount converts a cell value to a non-negative decimal. Thousands
// separators and surrounding whitespace are stripped; anything that still
// fails to parse, or parses negative, yields zero. Amount parsing never
// fails an import.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// parseDate converts a cell value to a calendar date. An unparseable value
// falls back to today's date. That substitution can misattribute historical
// records; it is the documented import default, kept as-is.
func parseDate(s string) models.Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t)
		}
	}
	return models.DateOf(time.Now())
}

// recordFromCells builds a record from one row's cell values, indexed by
// field. A missing cell yields the field's zero value.
func recordFromCells(cells [numFields]string) models.ExpenseRecord {
	return models.ExpenseRecord{
		Date:        parseDate(cells[fieldDate]),
		Description: strings.TrimSpace(cells[fieldDescription]),
		Category:    strings.TrimSpace(cells[fieldCategory]),
		Merchant:    strings.TrimSpace(cells[fieldMerchant]),
		PaidThrough: strings.TrimSpace(cells[fieldPaidThrough]),
		Income:      parseAmount(cells[fieldIncome]),
		Expense:     parseAmount(cells[fieldExpense]),
	}
}

// recordCells is the serialization inverse of recordFromCells.
func recordCells(r models.ExpenseRecord) []string {
	return []string{
		r.Date.String(),
		r.Description,
		r.Category,
		r.Merchant,
		r.PaidThrough,
		r.Income.String(),
		r.Expense.String(),
	}
}
