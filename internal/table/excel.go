package table

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// ParseExcel reads the first sheet of a workbook. The first row is the header.
func ParseExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	sheet := sheets[0]

	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(display) == 0 {
		return nil, ErrNoColumns
	}

	width := 0
	for _, row := range display {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, display[0])
	header = dedupeHeader(header)

	rows := make([][]Cell, 0, len(display)-1)
	for r := 1; r < len(display); r++ {
		var rawRow []string
		if r < len(raw) {
			rawRow = raw[r]
		}
		row := make([]Cell, len(display[r]))
		for c, shown := range display[r] {
			rawValue := shown
			if c < len(rawRow) {
				rawValue = rawRow[c]
			}
			row[c] = inferExcelCell(rawValue, shown)
		}
		rows = append(rows, row)
	}

	return New(header, rows)
}

// inferExcelCell classifies a worksheet value. A cell is numeric only when
// both its stored value and its formatted text read as numbers, so dates and
// currency-formatted values keep their displayed text.
func inferExcelCell(rawValue, shown string) Cell {
	if rawValue == "" {
		return Missing()
	}
	if _, ok := naValues[shown]; ok {
		return Missing()
	}
	v, ok := parseNumber(rawValue)
	if !ok {
		return Text(shown)
	}
	if _, ok := parseNumber(strings.ReplaceAll(shown, ",", "")); !ok {
		return Text(shown)
	}
	c := Number(v, shown)
	if exact, ok := ExactInteger(rawValue); ok {
		c.Int = exact
	}
	return c
}
