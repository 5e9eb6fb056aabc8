package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	tbl, err := ParseCSV([]byte("id,name,score\n1,John_Smith,4.5\n2,,NA\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "score"}, tbl.Names())
	require.Equal(t, 2, tbl.RowCount())
	require.NoError(t, tbl.Validate())

	assert.Equal(t, KindNumber, tbl.Columns[0].Cells[0].Kind)
	assert.Equal(t, 1.0, tbl.Columns[0].Cells[0].Number)
	assert.Equal(t, Text("John_Smith"), tbl.Columns[1].Cells[0])
	assert.True(t, tbl.Columns[1].Cells[1].IsMissing())
	assert.True(t, tbl.Columns[2].Cells[1].IsMissing())
}

func TestParseCSV_SkipsBOM(t *testing.T) {
	tbl, err := ParseCSV([]byte("\xef\xbb\xbfid,name\n1,a\n"))
	require.NoError(t, err)
	assert.Equal(t, "id", tbl.Columns[0].Name)
}

func TestParseCSV_QuotedFields(t *testing.T) {
	tbl, err := ParseCSV([]byte("name,note\n\"Smith, John\",\"line1\nline2\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Smith, John", tbl.Columns[0].Cells[0].Text)
	assert.Equal(t, "line1\nline2", tbl.Columns[1].Cells[0].Text)
}

func TestParseCSV_PadsShortRows(t *testing.T) {
	tbl, err := ParseCSV([]byte("a,b,c\n1\n2,3\n"))
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())
	assert.Equal(t, 2, tbl.RowCount())
	assert.True(t, tbl.Columns[2].Cells[0].IsMissing())
	assert.True(t, tbl.Columns[2].Cells[1].IsMissing())
}

func TestParseCSV_LongRow(t *testing.T) {
	_, err := ParseCSV([]byte("a,b\n1,2\n3,4,5\n"))
	require.Error(t, err)
	assert.Equal(t, "expected 2 fields in line 3, saw 3", err.Error())
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(nil)
	require.ErrorIs(t, err, ErrNoColumns)

	_, err = ParseCSV([]byte("\n\n"))
	require.ErrorIs(t, err, ErrNoColumns)
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	tbl, err := ParseCSV([]byte("id,name\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.RowCount())
	assert.Equal(t, []string{"id", "name"}, tbl.Names())
}

func TestParseCSV_InvalidUTF8(t *testing.T) {
	_, err := ParseCSV([]byte("id,name\n1,caf\xe9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't decode byte 0xe9 in position 13")
}

func TestParseCSV_BareQuote(t *testing.T) {
	_, err := ParseCSV([]byte("a,b\n1,x\"y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bare \"")
}

func TestDedupeHeader(t *testing.T) {
	got := dedupeHeader([]string{"a", "a", "", "a", "a.1"})
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2", "a.1.1"}, got)
}
