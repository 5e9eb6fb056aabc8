package transform

import (
	"fmt"

	"github.com/JonMunkholm/regexcol/internal/table"
)

// ApplyRule rewrites every cell of the referenced column with the rule's
// substitution and returns how many cells now serialize differently from the
// upload. A "42.0" cell the pattern does not touch still comes back as "42"
// and is counted.
//
// Cells are matched by their canonical string and always hold text
// afterwards. The column is replaced only when every cell succeeds; on error
// the table is left untouched.
func ApplyRule(t *table.Table, ref ColumnRef, rule *SubstitutionRule, replacement string) (int, error) {
	if ref.Index < 0 || ref.Index >= len(t.Columns) || t.Columns[ref.Index].Name != ref.Name {
		return 0, substitution(fmt.Errorf("column %q is not part of this table", ref.Name))
	}

	tmpl, err := rule.PrepareTemplate(replacement)
	if err != nil {
		return 0, substitution(err)
	}

	col := &t.Columns[ref.Index]
	out := make([]table.Cell, len(col.Cells))
	changed := 0
	for i, cell := range col.Cells {
		src, err := cell.Canonical()
		if err != nil {
			return 0, substitution(fmt.Errorf("row %d: %w", i+1, err))
		}
		dst := rule.ReplaceAll(src, tmpl)
		if dst != cell.String() {
			changed++
		}
		out[i] = table.Text(dst)
	}

	col.Cells = out
	return changed, nil
}
