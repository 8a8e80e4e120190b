package version

import (
	"fmt"
	"strings"
)

// SortMode selects how alphanumeric pre-release identifiers compare.
type SortMode uint8

const (
	// Lexicographic compares alphanumeric identifiers as ASCII text: "rc11" < "rc2".
	Lexicographic SortMode = iota
	// NumericAware compares digit runs inside identifiers by value: "rc2" < "rc11".
	NumericAware
)

func (m SortMode) String() string {
	switch m {
	case Lexicographic:
		return "lexicographic"
	case NumericAware:
		return "numeric_aware"
	default:
		return fmt.Sprintf("SortMode(%d)", uint8(m))
	}
}

// Valid reports whether m is a known mode.
func (m SortMode) Valid() bool {
	return m == Lexicographic || m == NumericAware
}

// ParseSortMode maps a configuration name to a SortMode.
// "semver" is accepted as an alias of lexicographic, "numeric" and
// "honour_numerals" as aliases of numeric_aware.
func ParseSortMode(name string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lexicographic", "semver":
		return Lexicographic, nil
	case "numeric_aware", "numeric", "honour_numerals":
		return NumericAware, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSortMode, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m SortMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSortMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SortMode) UnmarshalText(text []byte) error {
	mode, err := ParseSortMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// appendIdentifier writes an alphanumeric (not purely numeric) pre-release identifier.
func (m SortMode) appendIdentifier(dst []byte, id string) []byte {
	if m != NumericAware {
		return append(dst, id...)
	}
	for i := 0; i < len(id); {
		if !isDigit(id[i]) {
			dst = append(dst, id[i])
			i++
			continue
		}
		j := i
		for j < len(id) && isDigit(id[j]) {
			j++
		}
		dst = appendDigits(dst, DigitRunMarker, id[i:j])
		i = j
	}
	return dst
}
