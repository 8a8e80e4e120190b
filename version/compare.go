package version

import (
	"cmp"
	"strings"
)

// Compare orders two version strings semantically under mode.
//
// It is an independent statement of the order the encoding preserves:
// for valid a and b, Compare(a, b, m) has the same sign as comparing
// the encoded bytes.
func Compare(a, b string, mode SortMode) (int, error) {
	pa, err := parse(a)
	if err != nil {
		return 0, err
	}
	pb, err := parse(b)
	if err != nil {
		return 0, err
	}
	return compareParsed(pa, pb, mode), nil
}

func compareParsed(a, b parsed, mode SortMode) int {
	for i := 0; i < min(len(a.main), len(b.main)); i++ {
		if c := compareDigits(a.main[i], b.main[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(a.main), len(b.main)); c != 0 {
		return c
	}

	if a.hasPre != b.hasPre {
		if a.hasPre {
			return -1
		}
		return 1
	}
	for i := 0; i < min(len(a.pre), len(b.pre)); i++ {
		if c := compareIdentifiers(a.pre[i], b.pre[i], mode); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(a.pre), len(b.pre)); c != 0 {
		return c
	}

	return strings.Compare(a.build, b.build)
}

// compareDigits orders digit strings by length, then bytes.
func compareDigits(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareIdentifiers(a, b string, mode SortMode) int {
	na, nb := isNumeric(a), isNumeric(b)
	switch {
	case na && nb:
		return compareDigits(a, b)
	case na:
		return -1
	case nb:
		return 1
	case mode != NumericAware:
		return strings.Compare(a, b)
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ra, da, ni := nextRun(a, i)
		rb, db, nj := nextRun(b, j)
		if da != db {
			if da {
				return -1
			}
			return 1
		}
		var c int
		if da {
			c = compareDigits(ra, rb)
		} else {
			c = strings.Compare(ra, rb)
		}
		if c != 0 {
			return c
		}
		i, j = ni, nj
	}
	return cmp.Compare(len(a)-i, len(b)-j)
}

// nextRun returns the maximal digit or non-digit run starting at i.
func nextRun(s string, i int) (string, bool, int) {
	digit := isDigit(s[i])
	j := i + 1
	for j < len(s) && isDigit(s[j]) == digit {
		j++
	}
	return s[i:j], digit, j
}
