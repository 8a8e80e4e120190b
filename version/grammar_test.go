package version

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := []string{
		"1", "1.0.0", "1.2.3.4.5", "0.0.0", "1.0.0-0", "1-a", "1.0.0--",
		"1.0.0-a-b", "1.0.0-alpha.1.x-y", "1+b", "1.0.0+a+b", "1.0.0-rc.1+x.y z",
		"1.0.0+üñí", strings.Repeat("1", MaxDigits),
	}
	for _, s := range valid {
		t.Run("valid/"+s, func(t *testing.T) {
			assert.NoError(t, Validate(s))
			assert.True(t, IsValid(s))
		})
	}

	invalid := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"abc", 0},
		{"-1.0.0", 0},
		{"v1.0.0", 0},
		{".1", 0},
		{"1.", 2},
		{"1..0", 2},
		{"1.0.0-", 6},
		{"1.0.0-a..b", 8},
		{"1.0.0-a.", 8},
		{"1.0.0+", 6},
		{"1.0.0-a_b", 7},
		{"1.0.0 ", 5},
		{"1.0.0+a\x01", 7},
		{strings.Repeat("1", MaxDigits+1), 0},
		{"1-a" + strings.Repeat("2", MaxDigits+1), 3},
	}
	for _, tt := range invalid {
		t.Run("invalid/"+tt.in, func(t *testing.T) {
			err := Validate(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidVersionFormat)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.pos, fe.Pos)
			assert.Equal(t, tt.in, fe.Input)
		})
	}
}

func TestEncode_RejectsInvalid(t *testing.T) {
	for _, mode := range modes {
		for _, s := range []string{"abc", "-1.0.0"} {
			_, err := NewEncoder(mode).Encode(s)
			assert.ErrorIs(t, err, ErrInvalidVersionFormat, s)
		}
	}
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in   string
		want SortMode
	}{
		{"lexicographic", Lexicographic},
		{"semver", Lexicographic},
		{"", Lexicographic},
		{"NUMERIC_AWARE", NumericAware},
		{"honour_numerals", NumericAware},
		{" numeric ", NumericAware},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSortMode("alphabetical")
	assert.ErrorIs(t, err, ErrUnknownSortMode)

	var m SortMode
	require.NoError(t, m.UnmarshalText([]byte("numeric_aware")))
	assert.Equal(t, NumericAware, m)
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "numeric_aware", string(text))

	_, err = SortMode(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "SortMode(9)", SortMode(9).String())
}
