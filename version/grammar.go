package version

import "strconv"

// MaxDigits is the longest digit string a component or digit run may hold.
const MaxDigits = 127

// parsed is a validated version split into its sections.
// Every string in main and pre points into the original input.
type parsed struct {
	main   []string
	pre    []string
	hasPre bool
	build  string // includes the leading '+', empty if absent
}

// Validate reports whether s is a well-formed version string.
// The returned error is a *FormatError.
func Validate(s string) error {
	_, err := parse(s)
	return err
}

// IsValid reports whether s is a well-formed version string.
func IsValid(s string) bool {
	return Validate(s) == nil
}

func parse(s string) (parsed, error) {
	var p parsed
	if s == "" {
		return p, formatError(s, 0, "empty version")
	}

	i := 0
	for {
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			if start == 0 {
				return p, formatError(s, i, "version must start with a digit")
			}
			return p, formatError(s, i, "expected digit")
		}
		if i-start > MaxDigits {
			return p, formatError(s, start, "numeric component too long")
		}
		p.main = append(p.main, s[start:i])
		if i < len(s) && s[i] == '.' {
			i++
			continue
		}
		break
	}

	if i < len(s) && s[i] == '-' {
		i++
		p.hasPre = true
		for {
			start := i
			for i < len(s) && isIdentChar(s[i]) {
				i++
			}
			if i == start {
				return p, formatError(s, i, "empty pre-release identifier")
			}
			if pos, ok := checkDigitRuns(s[start:i]); !ok {
				return p, formatError(s, start+pos, "digit run too long")
			}
			p.pre = append(p.pre, s[start:i])
			if i < len(s) && s[i] == '.' {
				i++
				continue
			}
			break
		}
	}

	if i < len(s) && s[i] == '+' {
		if i+1 == len(s) {
			return p, formatError(s, i+1, "empty build metadata")
		}
		for j := i + 1; j < len(s); j++ {
			if s[j] < 0x20 {
				return p, formatError(s, j, "control character in build metadata")
			}
		}
		p.build = s[i:]
		i = len(s)
	}

	if i < len(s) {
		return p, formatError(s, i, "unexpected character "+strconv.QuoteRuneToASCII(rune(s[i])))
	}
	return p, nil
}

// checkDigitRuns returns the offset of the first digit run longer than MaxDigits.
func checkDigitRuns(id string) (int, bool) {
	run := 0
	for i := 0; i < len(id); i++ {
		if !isDigit(id[i]) {
			run = 0
			continue
		}
		run++
		if run > MaxDigits {
			return i - run + 1, false
		}
	}
	return 0, true
}

func formatError(s string, pos int, reason string) error {
	return &FormatError{Input: s, Pos: pos, Reason: reason}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-'
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
