package query

import (
	"errors"
	"fmt"
)

var (
	// ErrExpensiveQueryDisallowed is returned when policy forbids a query form.
	ErrExpensiveQueryDisallowed = errors.New("expensive query disallowed")

	// ErrUnsupportedPatternConstruct is returned for patterns that cannot be compiled.
	ErrUnsupportedPatternConstruct = errors.New("unsupported pattern construct")
)

// PatternError describes why a pattern was rejected.
//
// It matches ErrUnsupportedPatternConstruct via errors.Is.
type PatternError struct {
	Pattern string
	Pos     int // -1 when the problem is not tied to one position
	Reason  string
	cause   error
}

func (e *PatternError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("unsupported pattern %q: %s", e.Pattern, e.Reason)
	}
	return fmt.Sprintf("unsupported pattern %q at offset %d: %s", e.Pattern, e.Pos, e.Reason)
}

// Unwrap returns both the sentinel and the underlying cause, if any.
func (e *PatternError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrUnsupportedPatternConstruct, e.cause}
	}
	return []error{ErrUnsupportedPatternConstruct}
}
