package apifeatures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an Executor that remembers the calls made on it.
type recorder struct {
	calls []string
	where []Criteria
	order SortSpec
	proj  *Projection
	skip  int64
	limit int64
}

func (r recorder) with(call string) recorder {
	r.calls = append(append([]string(nil), r.calls...), call)
	return r
}

func (r recorder) Where(c Criteria) Executor {
	r = r.with("where")
	r.where = append(append([]Criteria(nil), r.where...), c)
	return r
}

func (r recorder) OrderBy(s SortSpec) Executor {
	r = r.with("order")
	r.order = s
	return r
}

func (r recorder) Select(p Projection) Executor {
	r = r.with("select")
	r.proj = &p
	return r
}

func (r recorder) Window(skip, limit int64) Executor {
	r = r.with("window")
	r.skip, r.limit = skip, limit
	return r
}

func (r recorder) Execute(context.Context) ([]Record, error) {
	return nil, nil
}

func TestApplyOrder(t *testing.T) {
	q, err := Apply(recorder{}, RawParameters{
		"difficulty": "easy",
		"sort":       "-price",
		"fields":     "name",
		"page":       "3",
		"limit":      "10",
	})
	require.NoError(t, err)

	r := q.(recorder)
	assert.Equal(t, []string{"where", "order", "select", "window"}, r.calls)
	assert.Equal(t, []Criteria{{"difficulty": "easy"}}, r.where)
	assert.Equal(t, SortSpec{{Field: "price", Desc: true}}, r.order)
	assert.Equal(t, &Projection{Fields: []string{"name"}}, r.proj)
	assert.Equal(t, int64(20), r.skip)
	assert.Equal(t, int64(10), r.limit)
}

func TestApplyDefaults(t *testing.T) {
	q, err := Apply(recorder{}, RawParameters{})
	require.NoError(t, err)

	r := q.(recorder)
	assert.Equal(t, []string{"order", "select", "window"}, r.calls, "an empty filter is not applied")
	assert.Equal(t, DefaultSort(), r.order)
	assert.Equal(t, DefaultProjection(), *r.proj)
	assert.Zero(t, r.skip)
	assert.Equal(t, DefaultLimit, r.limit)
}

func TestFeaturesStepsReturnNewValues(t *testing.T) {
	base := New(recorder{}, RawParameters{"difficulty": "easy"})
	filtered := base.Filter()
	sorted := filtered.Sort()

	q, err := base.Query()
	require.NoError(t, err)
	assert.Empty(t, q.(recorder).calls)

	q, err = filtered.Query()
	require.NoError(t, err)
	assert.Equal(t, []string{"where"}, q.(recorder).calls)

	q, err = sorted.Query()
	require.NoError(t, err)
	assert.Equal(t, []string{"where", "order"}, q.(recorder).calls)
}

func TestFeaturesStepsMayBeSkippedOrReordered(t *testing.T) {
	q, err := New(recorder{}, RawParameters{"page": "2", "limit": "5"}).Paginate().Query()
	require.NoError(t, err)
	r := q.(recorder)
	assert.Equal(t, []string{"window"}, r.calls)
	assert.Equal(t, int64(5), r.skip)
}

func TestFeaturesErrorIsSticky(t *testing.T) {
	f := New(recorder{}, RawParameters{"price": "abc", "page": "x"}, WithSchema(Schema{"price": Number})).
		Filter().
		Sort().
		LimitFields().
		Paginate()

	q, err := f.Query()
	assert.Nil(t, q)
	var queryErr *ClientQueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "price", queryErr.Param, "the first failure wins")
}

func TestPaginateErrorAfterValidSteps(t *testing.T) {
	_, err := Apply(recorder{}, RawParameters{"limit": "ten"})
	var queryErr *ClientQueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "limit", queryErr.Param)
}
