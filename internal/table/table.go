// Package table holds the in-memory tabular model used by the column
// rewriter and the codecs that read CSV and Excel uploads into it and write
// it back out as CSV.
package table

import (
	"fmt"
	"strconv"
)

// Column is a named, ordered sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Table is an ordered sequence of columns of equal length.
type Table struct {
	Columns []Column
}

// New builds a table from a header and rows of cells. Short rows are padded
// with missing cells; long rows are an error.
func New(header []string, rows [][]Cell) (*Table, error) {
	t := &Table{Columns: make([]Column, len(header))}
	for i, name := range header {
		t.Columns[i] = Column{Name: name, Cells: make([]Cell, 0, len(rows))}
	}

	for r, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(header))
		}
		for i := range t.Columns {
			cell := Missing()
			if i < len(row) {
				cell = row[i]
			}
			t.Columns[i].Cells = append(t.Columns[i].Cells, cell)
		}
	}

	return t, nil
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RowCount returns the number of records.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Row returns the serialized values of record i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for c := range t.Columns {
		out[c] = t.Columns[c].Cells[i].String()
	}
	return out
}

// Validate checks that all columns have the same number of cells.
func (t *Table) Validate() error {
	n := t.RowCount()
	for _, c := range t.Columns {
		if len(c.Cells) != n {
			return fmt.Errorf("column %q has %d cells, expected %d", c.Name, len(c.Cells), n)
		}
	}
	return nil
}

// dedupeHeader renames blank and repeated header names the way common
// dataframe readers do: blanks become "Unnamed: i", repeats get ".1", ".2"...
func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, ok := seen[name]; ok {
			candidate := name
			for {
				n++
				candidate = name + "." + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					break
				}
			}
			seen[name] = n
			seen[candidate] = 0
			name = candidate
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}
