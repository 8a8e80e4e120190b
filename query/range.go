package query

import (
	"bytes"
	"context"
	"strings"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/version"
)

// Bound is one end of a range.
type Bound struct {
	Value     version.EncodedVersion
	Inclusive bool
}

// RangeQuery matches documents with a value between two encoded bounds.
//
// It runs in two phases. The point index answers a coarse query over the
// 16-byte zero-padded prefixes of the bounds. When that cannot be exact,
// because a bound is exclusive or as long as the prefix itself, the
// candidates are confirmed against the full doc values.
type RangeQuery struct {
	lower, upper *Bound
}

var (
	minPrefix = [version.PrefixLength]byte{}
	maxPrefix = [version.PrefixLength]byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
)

// NewRangeQuery creates a RangeQuery. A nil bound is unbounded.
func NewRangeQuery(lower, upper *Bound) *RangeQuery {
	return &RangeQuery{lower: lower, upper: upper}
}

// NeedsConfirmation reports whether the coarse prefix filter alone could over-match.
func (q *RangeQuery) NeedsConfirmation() bool {
	inexact := func(b *Bound) bool {
		return b != nil && (!b.Inclusive || b.Value.Len() >= version.PrefixLength)
	}
	return inexact(q.lower) || inexact(q.upper)
}

// Execute implements Query.
func (q *RangeQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.empty() {
		return bitmap.New(), nil
	}

	lo, hi := minPrefix, maxPrefix
	if q.lower != nil {
		lo = q.lower.Value.Prefix()
	}
	if q.upper != nil {
		hi = q.upper.Value.Prefix()
	}

	candidates := r.PointRange(lo, hi)
	if !q.NeedsConfirmation() {
		return candidates.Clone(), nil
	}

	loOrd, hiOrd := q.ordBounds(r)
	if loOrd >= hiOrd {
		return bitmap.New(), nil
	}
	return confirm(candidates, ordRange{r: r, lo: loOrd, hi: hiOrd}), nil
}

// empty reports ranges that can match nothing, such as [b, a] with a < b.
func (q *RangeQuery) empty() bool {
	if q.lower == nil || q.upper == nil {
		return false
	}
	c := q.lower.Value.Compare(q.upper.Value)
	return c > 0 || (c == 0 && !(q.lower.Inclusive && q.upper.Inclusive))
}

// ordBounds maps the bounds onto the term dictionary as ordinals [lo, hi).
func (q *RangeQuery) ordBounds(r TermsReader) (int, int) {
	lo, hi := 0, r.NumTerms()
	if q.lower != nil {
		te := r.Terms()
		if !te.SeekCeil(q.lower.Value.Bytes()) {
			return hi, hi
		}
		lo = te.Ord()
		if !q.lower.Inclusive && bytes.Equal(te.Term(), q.lower.Value.Bytes()) {
			lo++
		}
	}
	if q.upper != nil {
		te := r.Terms()
		if te.SeekCeil(q.upper.Value.Bytes()) {
			hi = te.Ord()
			if q.upper.Inclusive && bytes.Equal(te.Term(), q.upper.Value.Bytes()) {
				hi++
			}
		}
	}
	return lo, hi
}

func (q *RangeQuery) String() string {
	var sb strings.Builder
	sb.WriteString("Range")
	if q.lower == nil {
		sb.WriteString("(*")
	} else {
		if q.lower.Inclusive {
			sb.WriteByte('[')
		} else {
			sb.WriteByte('{')
		}
		sb.WriteString(q.lower.Value.String())
	}
	sb.WriteString(" TO ")
	if q.upper == nil {
		sb.WriteString("*)")
	} else {
		sb.WriteString(q.upper.Value.String())
		if q.upper.Inclusive {
			sb.WriteByte(']')
		} else {
			sb.WriteByte('}')
		}
	}
	return sb.String()
}
