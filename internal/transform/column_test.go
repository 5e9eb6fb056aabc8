package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/regexcol/internal/table"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Col", "mycol"},
		{" My Col ", "mycol"},
		{"mycol", "mycol"},
		{"\tFull  Name\n", "fullname"},
		{"ID", "id"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "NormalizeName(%q)", tt.in)
	}
}

func TestResolveColumn(t *testing.T) {
	tbl, err := table.New([]string{"id", "My Col", "other"}, nil)
	require.NoError(t, err)

	for _, req := range []string{"My Col", " My Col ", "mycol", "MYCOL", "my col"} {
		ref, err := ResolveColumn(tbl, req)
		require.NoError(t, err, req)
		assert.Equal(t, "My Col", ref.Name)
		assert.Equal(t, 1, ref.Index)
		assert.Equal(t, "mycol", ref.Key)
		assert.Empty(t, ref.Shadowed)
	}
}

func TestResolveColumn_FirstMatchWins(t *testing.T) {
	tbl, err := table.New([]string{"mycol", "My Col", "MY COL"}, nil)
	require.NoError(t, err)

	ref, err := ResolveColumn(tbl, "my col")
	require.NoError(t, err)
	assert.Equal(t, 0, ref.Index)
	assert.Equal(t, []string{"My Col", "MY COL"}, ref.Shadowed)
}

func TestResolveColumn_NotFound(t *testing.T) {
	tbl, err := table.New([]string{"id", " Name "}, nil)
	require.NoError(t, err)

	_, err = ResolveColumn(tbl, "email")
	require.ErrorIs(t, err, ErrColumnNotFound)

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []string{"id", " Name "}, te.Available)
	assert.Contains(t, te.Error(), `["id", " Name "]`)
}
