package query

import (
	"fmt"

	"golang.org/x/time/rate"
)

// Policy decides whether expensive query forms may run.
//
// Range, prefix, wildcard, regexp and fuzzy queries are expensive. The
// check happens once, before a query is compiled; admitted queries run to
// completion.
type Policy struct {
	// AllowExpensive permits expensive query forms at all.
	AllowExpensive bool
	// Limiter, if set, caps the admission rate of expensive queries.
	// Admission never waits: a query over the limit fails immediately.
	Limiter *rate.Limiter
}

// Admit returns ErrExpensiveQueryDisallowed if kind may not run now.
func (p Policy) Admit(kind string) error {
	if !p.AllowExpensive {
		return fmt.Errorf("%w: [%s] queries cannot be executed when allow_expensive_queries is false", ErrExpensiveQueryDisallowed, kind)
	}
	if p.Limiter != nil && !p.Limiter.Allow() {
		return fmt.Errorf("%w: [%s] query admission rate exceeded", ErrExpensiveQueryDisallowed, kind)
	}
	return nil
}
