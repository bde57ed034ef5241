package tabular

import (
	"strings"

	"github.com/thespacelab/expenseledger/internal/models"
)

// ParseDelimited parses comma-delimited text with a header row into expense
// records. Header columns are bound to fields by case-insensitive substring
// matching against each field's synonym group, in field priority order; the
// leftmost not-yet-bound header wins. A field whose synonyms match no header
// yields its zero value for every row.
//
// Rows are split on bare commas with no quoted-field handling. Embedded
// commas in values are a known limitation of the format this importer
// accepts, not something it tries to repair.
func ParseDelimited(text string) []models.ExpenseRecord {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	headers := strings.Split(lines[0], ",")
	columns := bindColumns(headers)

	records := make([]models.ExpenseRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		var cells [numFields]string
		for f, col := range columns {
			if col >= 0 && col < len(values) {
				cells[f] = values[col]
			}
		}
		records = append(records, recordFromCells(cells))
	}
	return records
}

// SerializeDelimited renders records as comma-delimited text with the
// canonical header row, one row per record, in record order.
func SerializeDelimited(records []models.ExpenseRecord) string {
	var b strings.Builder
	b.WriteString(strings.Join(canonicalHeaders, ","))
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString(strings.Join(recordCells(r), ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// bindColumns maps each field to a header column index, or -1 when no
// header matches. Each header column binds at most one field, so "Expense
// Date" claimed by the date field is not also claimed by the expense
// amount group.
func bindColumns(headers []string) [numFields]int {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var columns [numFields]int
	bound := make(map[int]bool, numFields)
	for f := 0; f < numFields; f++ {
		columns[f] = -1
		for i, h := range lowered {
			if bound[i] {
				continue
			}
			if containsAny(h, synonyms[f]) {
				columns[f] = i
				bound[i] = true
				break
			}
		}
	}
	return columns
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// splitLines splits on newlines, dropping blank lines and trailing carriage
// returns.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
