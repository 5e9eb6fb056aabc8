package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/regexcol/internal/table"
)

func TestCompilePattern(t *testing.T) {
	rule, err := CompilePattern(`(\w+)@(?P<domain>\w+)`)
	require.NoError(t, err)
	assert.Equal(t, 2, rule.NumGroups())
	assert.Equal(t, `(\w+)@(?P<domain>\w+)`, rule.Pattern())

	for _, bad := range []string{"(", "[a-", "a**", `(?<=x)y`} {
		_, err := CompilePattern(bad)
		require.ErrorIs(t, err, ErrInvalidPattern, bad)
		assert.Contains(t, err.Error(), "invalid regex pattern: error parsing regexp", bad)
	}
}

func TestCompilePattern_Empty(t *testing.T) {
	rule, err := CompilePattern("")
	require.NoError(t, err)
	assert.Equal(t, "-a-b-", rule.ReplaceAll("ab", "-"))
}

func TestPrepareTemplate(t *testing.T) {
	rule, err := CompilePattern(`(?P<user>\w+)@(\w+)`)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"literal", "X", "X"},
		{"empty", "", ""},
		{"numbered", "$2-$1", "$2-$1"},
		{"braced", "${1}x", "${1}x"},
		{"named", "${user}", "${user}"},
		{"whole match", "[$0]", "[$0]"},
		{"escaped dollar", "$$5", "$$5"},
		{"bare dollar", "cost: $", "cost: $"},
		{"backslash numbered", `\2/\1`, "${2}/${1}"},
		{"backslash named", `\g<user>`, "${user}"},
		{"backslash numbered in g", `\g<2>`, "${2}"},
		{"backslash style keeps dollar literal", `$\1`, "$$${1}"},
		{"backslash newline", `\1\n`, "${1}\n"},
		{"escaped backslash", `\\\1`, `\${1}`},
		{"non-letter escape kept", `\1\.`, `${1}\.`},
		{"tab alone", `\t`, "\t"},
		{"newline after dollar ref", `$1\n`, "$1\n"},
		{"doubled backslash stays literal", `\\t`, `\\t`},
		{"unknown escape kept in dollar style", `C:\path`, `C:\path`},
		{"word boundary kept in dollar style", `\b`, `\b`},
		{"trailing backslash", `x\`, `x\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rule.PrepareTemplate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrepareTemplate_Errors(t *testing.T) {
	rule, err := CompilePattern(`(?P<user>\w+)@(\w+)`)
	require.NoError(t, err)

	tests := []struct {
		in      string
		wantErr string
	}{
		{"$3", "invalid group reference 3"},
		{"${9}", "invalid group reference 9"},
		{"$1x", `unknown group name "1x"`},
		{"${host}", `unknown group name "host"`},
		{`\3`, "invalid group reference 3"},
		{`\1\q`, `bad escape \q`},
		{`\g<host>`, `unknown group name "host"`},
		{`\1\g<user`, "missing >, unterminated name"},
		{`\1\g<>`, "missing group name"},
		{`\1\`, "bad escape (end of pattern)"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := rule.PrepareTemplate(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyRule_NumericTruncation(t *testing.T) {
	tbl, err := table.New([]string{"id"}, [][]table.Cell{
		{table.Number(42.0, "42.0")},
		{table.Number(42.9, "42.9")},
		{table.Number(420, "420")},
	})
	require.NoError(t, err)

	rule, err := CompilePattern(`^42$`)
	require.NoError(t, err)

	changed, err := ApplyRule(tbl, ColumnRef{Name: "id", Index: 0}, rule, "X")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, []string{"X"}, tbl.Row(0))
	assert.Equal(t, []string{"X"}, tbl.Row(1))
	assert.Equal(t, []string{"420"}, tbl.Row(2))
	assert.Equal(t, table.KindText, tbl.Columns[0].Cells[2].Kind)
}

func TestApplyRule_MissingMatchesEmpty(t *testing.T) {
	tbl, err := table.New([]string{"note"}, [][]table.Cell{
		{table.Missing()},
		{table.Text("kept")},
	})
	require.NoError(t, err)

	rule, err := CompilePattern(`^$`)
	require.NoError(t, err)

	_, err = ApplyRule(tbl, ColumnRef{Name: "note", Index: 0}, rule, "EMPTY")
	require.NoError(t, err)
	assert.Equal(t, "EMPTY", tbl.Columns[0].Cells[0].Text)
	assert.Equal(t, "kept", tbl.Columns[0].Cells[1].Text)
}

func TestApplyRule_ReplacesAllMatches(t *testing.T) {
	tbl, err := table.New([]string{"s"}, [][]table.Cell{{table.Text("a-b-c")}})
	require.NoError(t, err)

	rule, err := CompilePattern(`(\w)`)
	require.NoError(t, err)

	_, err = ApplyRule(tbl, ColumnRef{Name: "s", Index: 0}, rule, `<\1>`)
	require.NoError(t, err)
	assert.Equal(t, "<a>-<b>-<c>", tbl.Columns[0].Cells[0].Text)
}

func TestApplyRule_IsAtomic(t *testing.T) {
	tbl, err := table.New([]string{"v"}, [][]table.Cell{
		{table.Text("a")},
		{table.Number(math.Inf(1), "inf")},
	})
	require.NoError(t, err)
	before := tbl.Columns[0].Cells

	rule, err := CompilePattern(`a`)
	require.NoError(t, err)

	_, err = ApplyRule(tbl, ColumnRef{Name: "v", Index: 0}, rule, "b")
	require.ErrorIs(t, err, ErrSubstitution)
	assert.Contains(t, err.Error(), "row 2")
	assert.Equal(t, before, tbl.Columns[0].Cells)
	assert.Equal(t, "a", tbl.Columns[0].Cells[0].Text)
}

func TestApplyRule_BadTemplateBeforeMutation(t *testing.T) {
	tbl, err := table.New([]string{"v"}, [][]table.Cell{{table.Number(1, "1.0")}})
	require.NoError(t, err)

	rule, err := CompilePattern(`1`)
	require.NoError(t, err)

	_, err = ApplyRule(tbl, ColumnRef{Name: "v", Index: 0}, rule, "$1")
	require.ErrorIs(t, err, ErrSubstitution)
	assert.Equal(t, table.KindNumber, tbl.Columns[0].Cells[0].Kind)
}

func TestApplyRule_StaleRef(t *testing.T) {
	tbl, err := table.New([]string{"v"}, nil)
	require.NoError(t, err)
	rule, err := CompilePattern(`x`)
	require.NoError(t, err)

	_, err = ApplyRule(tbl, ColumnRef{Name: "w", Index: 0}, rule, "")
	require.ErrorIs(t, err, ErrSubstitution)

	_, err = ApplyRule(tbl, ColumnRef{Name: "v", Index: 3}, rule, "")
	require.ErrorIs(t, err, ErrSubstitution)
}
