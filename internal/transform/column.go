package transform

import (
	"strings"

	"github.com/JonMunkholm/regexcol/internal/table"
)

// ColumnRef identifies a resolved column.
type ColumnRef struct {
	Name  string // display name as it appears in the file
	Key   string // normalized lookup key
	Index int

	// Shadowed lists later columns whose key collides with this one. They
	// are never selected by name.
	Shadowed []string
}

// NormalizeName trims surrounding whitespace, lower-cases and removes every
// space so that " My Col " and "mycol" compare equal.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// ResolveColumn finds the first column whose normalized name equals the
// normalized request.
func ResolveColumn(t *table.Table, requested string) (ColumnRef, error) {
	key := NormalizeName(requested)

	ref := ColumnRef{Index: -1}
	for i, c := range t.Columns {
		if NormalizeName(c.Name) != key {
			continue
		}
		if ref.Index < 0 {
			ref = ColumnRef{Name: c.Name, Key: key, Index: i}
			continue
		}
		ref.Shadowed = append(ref.Shadowed, c.Name)
	}

	if ref.Index < 0 {
		return ColumnRef{}, columnNotFound(requested, t.Names())
	}
	return ref, nil
}
