// Package transform rewrites one column of an uploaded table with a regular
// expression substitution.
//
// The pipeline is strictly linear and each stage fails with its own error
// kind:
//
//	Load -> ResolveColumn -> CompilePattern -> ApplyRule -> Serialize
//
// Everything here is a pure function of its arguments; the package keeps no
// state between calls.
package transform

import (
	"errors"

	"github.com/JonMunkholm/regexcol/internal/table"
)

// Params names the column to rewrite and the substitution to apply.
type Params struct {
	Column      string
	Pattern     string
	Replacement string
}

// Result is the outcome of a successful transform.
type Result struct {
	CSV     []byte
	Column  ColumnRef
	Rows    int
	Changed int
}

// Load parses data according to the extension hint (csv, xlsx or xls).
func Load(data []byte, ext string) (*table.Table, error) {
	format, err := table.ParseFormat(ext)
	if err != nil {
		return nil, unsupportedFileType(ext, err)
	}

	t, err := table.Parse(data, format)
	if err != nil {
		if errors.Is(err, table.ErrUnsupportedFormat) {
			return nil, unsupportedFileType(ext, err)
		}
		return nil, fileRead(err)
	}
	return t, nil
}

// Serialize renders t as CSV with a header row and no index column.
func Serialize(t *table.Table) ([]byte, error) {
	return table.Serialize(t)
}

// Transform applies p to t and returns the rewritten table as CSV. t is
// modified in place.
func Transform(t *table.Table, p Params) (*Result, error) {
	ref, err := ResolveColumn(t, p.Column)
	if err != nil {
		return nil, err
	}

	rule, err := CompilePattern(p.Pattern)
	if err != nil {
		return nil, err
	}

	changed, err := ApplyRule(t, ref, rule, p.Replacement)
	if err != nil {
		return nil, err
	}

	out, err := Serialize(t)
	if err != nil {
		return nil, err
	}

	return &Result{
		CSV:     out,
		Column:  ref,
		Rows:    t.RowCount(),
		Changed: changed,
	}, nil
}

// TransformFile loads data and runs Transform on it.
func TransformFile(data []byte, ext string, p Params) (*Result, error) {
	t, err := Load(data, ext)
	if err != nil {
		return nil, err
	}
	return Transform(t, p)
}
