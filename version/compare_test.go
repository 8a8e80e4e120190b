package version

import (
	"cmp"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/hupe1980/versionfield/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Invalid(t *testing.T) {
	_, err := Compare("1.0", "x", Lexicographic)
	assert.ErrorIs(t, err, ErrInvalidVersionFormat)
	_, err = Compare("", "1", Lexicographic)
	assert.ErrorIs(t, err, ErrInvalidVersionFormat)
}

func TestCompare_Identity(t *testing.T) {
	rng := testutil.NewRNG(7)
	for _, v := range rng.Versions(200) {
		c, err := Compare(v, v, NumericAware)
		require.NoError(t, err)
		assert.Zero(t, c)
	}
}

// SemVer 2.0.0 precedence is the Lexicographic order restricted to
// conforming inputs, with build metadata ignored.
func TestCompare_AgreesWithSemVer(t *testing.T) {
	rng := testutil.NewRNG(2024)
	enc := NewEncoder(Lexicographic)
	for range 3000 {
		a, b := rng.SemVer(), rng.SemVer()
		sa, err := semver.Parse(a)
		require.NoError(t, err, a)
		sb, err := semver.Parse(b)
		require.NoError(t, err, b)

		want := sa.Compare(sb)
		if want == 0 {
			continue
		}

		got, err := Compare(a, b, Lexicographic)
		require.NoError(t, err)
		assert.Equal(t, want, cmp.Compare(got, 0), "%q vs %q", a, b)

		ea, err := enc.Encode(a)
		require.NoError(t, err)
		eb, err := enc.Encode(b)
		require.NoError(t, err)
		assert.Equal(t, want, ea.Compare(eb), "%q vs %q", a, b)
	}
}
