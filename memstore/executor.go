package memstore

import (
	"context"
	"errors"
	"slices"
	"sort"

	"github.com/aasimohyeah/natours/apifeatures"
)

var errNegativeSkip = errors.New("memstore: skip must be non-negative")

// Executor is an apifeatures.Executor over a Collection snapshot taken when
// Execute runs.
type Executor struct {
	coll       *Collection
	criteria   []apifeatures.Criteria
	order      apifeatures.SortSpec
	projection *apifeatures.Projection
	skip       int64
	limit      int64
}

var (
	_ apifeatures.Executor = Executor{}
	_ apifeatures.Counter  = Executor{}
)

func (e Executor) Where(c apifeatures.Criteria) apifeatures.Executor {
	if len(c) == 0 {
		return e
	}
	e.criteria = append(slices.Clip(e.criteria), c)
	return e
}

func (e Executor) OrderBy(s apifeatures.SortSpec) apifeatures.Executor {
	e.order = slices.Clone(s)
	return e
}

func (e Executor) Select(p apifeatures.Projection) apifeatures.Executor {
	p.Fields = slices.Clone(p.Fields)
	e.projection = &p
	return e
}

func (e Executor) Window(skip, limit int64) apifeatures.Executor {
	e.skip, e.limit = skip, limit
	return e
}

func (e Executor) Execute(ctx context.Context) ([]apifeatures.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.skip < 0 {
		return nil, errNegativeSkip
	}

	matched, err := e.filter()
	if err != nil {
		return nil, err
	}

	if len(e.order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, key := range e.order {
				cmp := sortCompare(matched[i][key.Field], matched[j][key.Field])
				if cmp == 0 {
					continue
				}
				if key.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if e.skip >= int64(len(matched)) {
		return []apifeatures.Record{}, nil
	}
	matched = matched[e.skip:]
	// a negative limit behaves like its absolute value, as in MongoDB
	limit := e.limit
	if limit < 0 {
		limit = -limit
	}
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}

	out := make([]apifeatures.Record, 0, len(matched))
	for _, rec := range matched {
		out = append(out, e.project(rec))
	}
	return out, nil
}

// Count returns the number of records matching the filter.
func (e Executor) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	matched, err := e.filter()
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (e Executor) filter() ([]apifeatures.Record, error) {
	var matched []apifeatures.Record
	for _, rec := range e.coll.snapshot() {
		ok := true
		for _, c := range e.criteria {
			m, err := matches(rec, c)
			if err != nil {
				return nil, err
			}
			if !m {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func (e Executor) project(rec apifeatures.Record) apifeatures.Record {
	out := make(apifeatures.Record, len(rec))
	for k, v := range rec {
		if e.projection == nil || k == IDField || e.projection.Includes(k) {
			out[k] = v
		}
	}
	return out
}
