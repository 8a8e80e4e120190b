package version

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/hupe1980/versionfield/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modes = []SortMode{Lexicographic, NumericAware}

func mustEncode(t *testing.T, mode SortMode, s string) []byte {
	t.Helper()
	v, err := NewEncoder(mode).Encode(s)
	require.NoError(t, err, s)
	return v.Bytes()
}

func TestEncode_Layout(t *testing.T) {
	tests := []struct {
		name  string
		mode  SortMode
		input string
		want  []byte
	}{
		{
			name:  "release",
			mode:  Lexicographic,
			input: "1.2.3",
			want:  []byte{0x02, 0x81, '1', 0x01, 0x02, 0x81, '2', 0x01, 0x02, 0x81, '3', 0x00, 0x05},
		},
		{
			name:  "pre-release with numeric id and build",
			mode:  Lexicographic,
			input: "1.10-rc.1+b",
			want: []byte{
				0x02, 0x81, '1', 0x01, 0x02, 0x82, '1', '0', 0x00,
				0x04, '-', 'r', 'c', 0x01, 0x02, 0x81, '1', 0x00,
				'+', 'b',
			},
		},
		{
			name:  "numeric aware digit run",
			mode:  NumericAware,
			input: "1-rc11",
			want:  []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 'r', 'c', 0x03, 0x82, '1', '1', 0x00},
		},
		{
			name:  "lexicographic keeps digits raw",
			mode:  Lexicographic,
			input: "1-rc11",
			want:  []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 'r', 'c', '1', '1', 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustEncode(t, tt.mode, tt.input))
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	inputs := []string{
		"1", "1.1", "1.0.0", "1.2.3.4", "1.0.0-alpha", "1-alpha.11",
		"1-a1234.12.13278.beta", "1.0.0-0", "007.1", "1.0.0--", "1.0.0-a-b.c-1",
		"1.0.0+build.5", "1.0.0-rc.1+exp.sha.5114f85", "1+a+b", "2.0.0+üñí",
		strings.Repeat("9", MaxDigits) + ".0",
	}
	for _, mode := range modes {
		enc := NewEncoder(mode)
		for _, in := range inputs {
			t.Run(mode.String()+"/"+in, func(t *testing.T) {
				v, err := enc.Encode(in)
				require.NoError(t, err)
				assert.Equal(t, in, v.String())

				out, err := enc.Decode(v.Bytes())
				require.NoError(t, err)
				assert.Equal(t, in, out)

				dv, err := enc.DecodeVersion(v.Bytes())
				require.NoError(t, err)
				assert.Equal(t, v.Components(), dv.Components())
				assert.Equal(t, v.Bytes(), dv.Bytes())
			})
		}
	}
}

func TestEncode_Ordering(t *testing.T) {
	both := [][]string{
		{"1.0.0", "2.0.0", "11.0.0"},
		{"2.0.0", "2.1.0", "2.1.1", "2.1.1.0"},
		{"1.0.0", "2.0"},
		{"1.0.0-a", "1.0.0-b"},
		{"1.0.0-1.0.0", "1.0.0-2.0"},
		{
			"1.0.0-alpha", "1.0.0-alpha.1", "1.0.0-alpha.beta", "1.0.0-beta",
			"1.0.0-beta.2", "1.0.0-beta.11", "1.0.0-rc.1", "1.0.0",
		},
		{"1.0.0", "2.0.0-pre127", "2.0.0-pre128"},
		{"1.0.0-rc.1", "1.0.0"},
		{"1.0.0-a.b", "1.0.0-a-b"},
		{"1.0.0-a+z", "1.0.0-a.b"},
		{"1+z", "1.0"},
		{"1.0.0", "1.0.0+a", "1.0.0+b"},
		{"1", "2", "01"},
		{"1.0.0-2", "1.0.0-1a"},
	}
	lex := [][]string{
		{"1.0.0-beta11", "1.0.0-beta2"},
		{"2.0.0-pre20201231z110026", "2.0.0-pre227"},
	}
	numeric := [][]string{
		{"1.0.0-beta2", "1.0.0-beta11"},
		{"2.0.0-pre227", "2.0.0-pre20201231z110026"},
		{"1.0.0-rc", "1.0.0-rc1", "1.0.0-rc1a", "1.0.0-rca"},
		{"1.0.0-1a", "1.0.0-a"},
	}

	check := func(t *testing.T, mode SortMode, chains [][]string) {
		t.Helper()
		for _, chain := range chains {
			for i := 1; i < len(chain); i++ {
				a, b := chain[i-1], chain[i]
				assert.Negative(t, bytes.Compare(mustEncode(t, mode, a), mustEncode(t, mode, b)), "%s: %q < %q", mode, a, b)
				c, err := Compare(a, b, mode)
				require.NoError(t, err)
				assert.Negative(t, c, "%s: Compare(%q, %q)", mode, a, b)
			}
		}
	}

	for _, mode := range modes {
		check(t, mode, both)
	}
	check(t, Lexicographic, lex)
	check(t, NumericAware, numeric)
}

func TestEncode_MatchesCompare(t *testing.T) {
	rng := testutil.NewRNG(4711)
	for _, mode := range modes {
		enc := NewEncoder(mode)
		vs := rng.Versions(3000)
		for i := 1; i < len(vs); i++ {
			a, b := vs[i-1], vs[i]
			ea, err := enc.Encode(a)
			require.NoError(t, err, a)
			eb, err := enc.Encode(b)
			require.NoError(t, err, b)

			want, err := Compare(a, b, mode)
			require.NoError(t, err)
			require.Equal(t, want, ea.Compare(eb), "%s: %q vs %q", mode, a, b)

			got, err := enc.Decode(ea.Bytes())
			require.NoError(t, err)
			require.Equal(t, a, got)
		}
	}
}

func TestEncode_SortedSlice(t *testing.T) {
	rng := testutil.NewRNG(99)
	enc := NewEncoder(NumericAware)
	vs := rng.Versions(500)

	bySemantic := slices.Clone(vs)
	slices.SortFunc(bySemantic, func(a, b string) int {
		c, _ := Compare(a, b, NumericAware)
		return c
	})

	byBytes := slices.Clone(vs)
	slices.SortFunc(byBytes, func(a, b string) int {
		ea, _ := enc.Encode(a)
		eb, _ := enc.Encode(b)
		return ea.Compare(eb)
	})

	assert.Equal(t, bySemantic, byBytes)
}

func TestAppendEncode(t *testing.T) {
	enc := NewEncoder(Lexicographic)
	dst := []byte("key:")
	dst, err := enc.AppendEncode(dst, "1.2")
	require.NoError(t, err)
	assert.Equal(t, append([]byte("key:"), mustEncode(t, Lexicographic, "1.2")...), dst)

	_, err = enc.AppendEncode(nil, "x")
	assert.ErrorIs(t, err, ErrInvalidVersionFormat)
}

func TestPointPrefix(t *testing.T) {
	short := PointPrefix([]byte{0x02, 0x81, '1'})
	assert.Equal(t, [PrefixLength]byte{0x02, 0x81, '1'}, short)

	v, err := NewEncoder(Lexicographic).Encode("1.2.3.4.5.6")
	require.NoError(t, err)
	p := v.Prefix()
	assert.Equal(t, v.Bytes()[:PrefixLength], p[:])
}

func TestDecode_Corruption(t *testing.T) {
	tests := []struct {
		name string
		mode SortMode
		in   []byte
	}{
		{"empty", Lexicographic, nil},
		{"missing main terminator", Lexicographic, []byte{0x02, 0x81, '1'}},
		{"missing flag", Lexicographic, []byte{0x02, 0x81, '1', 0x00}},
		{"invalid flag", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x07}},
		{"truncated digits", Lexicographic, []byte{0x02, 0x82, '1'}},
		{"invalid length byte", Lexicographic, []byte{0x02, 0x01, '1', 0x00, 0x05}},
		{"zero length", Lexicographic, []byte{0x02, 0x80, 0x00, 0x05}},
		{"non-digit in number", Lexicographic, []byte{0x02, 0x81, 'a', 0x00, 0x05}},
		{"missing dash", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x04, 'a', 0x00}},
		{"missing pre terminator", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 'a'}},
		{"empty identifier", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 0x00}},
		{"run marker in lexicographic", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 0x03, 0x81, '1', 'a', 0x00}},
		{"unmarked numeric id", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x04, '-', '1', '2', 0x00}},
		{"raw digit in numeric aware", NumericAware, []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 'a', '1', 0x00}},
		{"lone digit run", NumericAware, []byte{0x02, 0x81, '1', 0x00, 0x04, '-', 0x03, 0x81, '1', 0x00}},
		{"empty build", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x05, '+'}},
		{"garbage after flag", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x05, 'x'}},
		{"control byte in build", Lexicographic, []byte{0x02, 0x81, '1', 0x00, 0x05, '+', 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncoder(tt.mode).Decode(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecodeCorruption)

			var ce *CorruptionError
			assert.True(t, errors.As(err, &ce))
		})
	}
}
