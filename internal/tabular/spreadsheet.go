package tabular

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/thespacelab/expenseledger/internal/models"
)

const sheetName = "Sheet1"

// ParseSpreadsheet parses xlsx bytes into expense records. The first sheet's
// first row is the header row; each field resolves its column by trying an
// ordered list of candidate header spellings with exact, case-sensitive
// matching, first hit wins.
//
// An unreadable container is the one structural failure this parser
// surfaces; everything at the row or cell level is absorbed to defaults.
func ParseSpreadsheet(data []byte) ([]models.ExpenseRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w: %v", models.ErrParseFailure, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets: %w", models.ErrParseFailure)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w: %v", sheets[0], models.ErrParseFailure, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Header cell -> column index, first occurrence wins.
	headerCol := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		if _, ok := headerCol[h]; !ok {
			headerCol[h] = i
		}
	}

	var columns [numFields]int
	for field := 0; field < numFields; field++ {
		columns[field] = -1
		for _, key := range spreadsheetKeys[field] {
			if col, ok := headerCol[key]; ok {
				columns[field] = col
				break
			}
		}
	}

	records := make([]models.ExpenseRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var cells [numFields]string
		for f, col := range columns {
			if col >= 0 && col < len(row) {
				cells[f] = row[col]
			}
		}
		records = append(records, recordFromCells(cells))
	}
	return records, nil
}

// SerializeSpreadsheet renders records as xlsx bytes with the canonical
// header row, one row per record, in record order.
func SerializeSpreadsheet(records []models.ExpenseRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, h := range canonicalHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
	}
	for rowIdx, r := range records {
		for colIdx, v := range recordCells(r) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
