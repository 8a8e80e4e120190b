package query

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hupe1980/versionfield/bitmap"
)

// ComponentRangeQuery matches documents whose major, minor or patch
// number lies in [lo, hi]. It reads only the numeric sub-field.
type ComponentRangeQuery struct {
	c      Component
	lo, hi int32
}

// NewComponentRangeQuery creates a ComponentRangeQuery.
func NewComponentRangeQuery(c Component, lo, hi int32) *ComponentRangeQuery {
	return &ComponentRangeQuery{c: c, lo: lo, hi: hi}
}

// Execute implements Query.
func (q *ComponentRangeQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.lo > q.hi {
		return bitmap.New(), nil
	}
	return r.ComponentRange(q.c, q.lo, q.hi).Clone(), nil
}

func (q *ComponentRangeQuery) String() string {
	if q.lo == q.hi {
		return q.c.String() + ":" + strconv.Itoa(int(q.lo))
	}
	return fmt.Sprintf("%s:[%d TO %d]", q.c, q.lo, q.hi)
}

// PreReleaseQuery matches documents by the presence of a pre-release section.
type PreReleaseQuery struct {
	flag bool
}

// NewPreReleaseQuery creates a PreReleaseQuery.
func NewPreReleaseQuery(flag bool) *PreReleaseQuery {
	return &PreReleaseQuery{flag: flag}
}

// Execute implements Query.
func (q *PreReleaseQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.PreRelease(q.flag).Clone(), nil
}

func (q *PreReleaseQuery) String() string {
	return "is_prerelease:" + strconv.FormatBool(q.flag)
}
