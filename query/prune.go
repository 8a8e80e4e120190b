package query

import "bytes"

// Pruner is implemented by queries that can rule out a whole segment from
// the bounds of its term dictionary, without opening it.
type Pruner interface {
	// MayMatch reports whether a segment whose terms all lie in
	// [minTerm, maxTerm] may hold a match.
	MayMatch(minTerm, maxTerm []byte) bool
}

var (
	_ Pruner = (*RangeQuery)(nil)
	_ Pruner = (*TermQuery)(nil)
	_ Pruner = (*TermsQuery)(nil)
	_ Pruner = (*boolQuery)(nil)
	_ Pruner = matchNone{}
)

// MayMatch reports whether q may match a segment with the given term
// bounds. Queries that do not implement Pruner always may.
func MayMatch(q Query, minTerm, maxTerm []byte) bool {
	if p, ok := q.(Pruner); ok {
		return p.MayMatch(minTerm, maxTerm)
	}
	return true
}

// MayMatch implements Pruner.
func (q *RangeQuery) MayMatch(minTerm, maxTerm []byte) bool {
	if q.empty() {
		return false
	}
	if q.lower != nil {
		c := bytes.Compare(maxTerm, q.lower.Value.Bytes())
		if c < 0 || (c == 0 && !q.lower.Inclusive) {
			return false
		}
	}
	if q.upper != nil {
		c := bytes.Compare(minTerm, q.upper.Value.Bytes())
		if c > 0 || (c == 0 && !q.upper.Inclusive) {
			return false
		}
	}
	return true
}

// MayMatch implements Pruner.
func (q *TermQuery) MayMatch(minTerm, maxTerm []byte) bool {
	return inBounds(q.term.Bytes(), minTerm, maxTerm)
}

// MayMatch implements Pruner.
func (q *TermsQuery) MayMatch(minTerm, maxTerm []byte) bool {
	for _, t := range q.terms {
		if inBounds(t.Bytes(), minTerm, maxTerm) {
			return true
		}
	}
	return false
}

// MayMatch implements Pruner.
func (q *boolQuery) MayMatch(minTerm, maxTerm []byte) bool {
	if len(q.qs) == 0 {
		return false
	}
	for _, sub := range q.qs {
		ok := MayMatch(sub, minTerm, maxTerm)
		if q.must && !ok {
			return false
		}
		if !q.must && ok {
			return true
		}
	}
	return q.must
}

// MayMatch implements Pruner.
func (matchNone) MayMatch(_, _ []byte) bool { return false }

func inBounds(t, minTerm, maxTerm []byte) bool {
	return bytes.Compare(t, minTerm) >= 0 && bytes.Compare(t, maxTerm) <= 0
}

// KindOf returns a short label for q's form, as used in metrics.
func KindOf(q Query) string {
	switch q := q.(type) {
	case *TermQuery:
		return "term"
	case *TermsQuery:
		return "terms"
	case *RangeQuery:
		return KindRange
	case *AutomatonQuery:
		return q.kind
	case *RegexpQuery:
		return KindRegexp
	case *FuzzyQuery:
		return KindFuzzy
	case *ComponentRangeQuery:
		return "component"
	case *PreReleaseQuery:
		return "prerelease"
	case existsQuery:
		return "exists"
	case matchNone:
		return "none"
	case *boolQuery:
		return "bool"
	default:
		return "other"
	}
}
