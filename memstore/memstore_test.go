package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
)

func TestMatches(t *testing.T) {
	rec := apifeatures.Record{
		"name":       "The Forest Hiker",
		"price":      397.0,
		"images":     []any{"tour-1-1.jpg", "tour-1-2.jpg"},
		"startDates": []any{"2021-04-25T09:00:00Z", "2021-07-20T09:00:00Z"},
		"createdAt":  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		criteria apifeatures.Criteria
		want     bool
	}{
		{"equal", apifeatures.Criteria{"name": "The Forest Hiker"}, true},
		{"not equal", apifeatures.Criteria{"name": "The Sea Explorer"}, false},
		{"missing field", apifeatures.Criteria{"summary": "x"}, false},
		{"gte", apifeatures.Criteria{"price": map[string]any{"$gte": 397.0}}, true},
		{"range", apifeatures.Criteria{"price": map[string]any{"$gt": 100.0, "$lt": 300.0}}, false},
		{"number never equals text", apifeatures.Criteria{"price": "397"}, false},
		{"array contains", apifeatures.Criteria{"images": "tour-1-2.jpg"}, true},
		{"in", apifeatures.Criteria{"name": map[string]any{"$in": []any{"a", "The Forest Hiker"}}}, true},
		{"ne", apifeatures.Criteria{"name": map[string]any{"$ne": "a"}}, true},
		{"date against stored text", apifeatures.Criteria{"startDates": map[string]any{"$gte": time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)}}, true},
		{"date against stored time", apifeatures.Criteria{"createdAt": map[string]any{"$lt": time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matches(rec, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := matches(rec, apifeatures.Criteria{"name": map[string]any{"$regex": "^The"}})
	var queryErr *apifeatures.ClientQueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "$regex", queryErr.Param)
}

func TestSortCompare(t *testing.T) {
	assert.Negative(t, sortCompare(1.0, 2.0))
	assert.Positive(t, sortCompare("b", "a"))
	assert.Zero(t, sortCompare(3, 3.0))
	assert.Negative(t, sortCompare(nil, 1.0), "missing values sort first")
	assert.Negative(t, sortCompare(1.0, "1"), "numbers before strings")
}

func seed(t *testing.T, opts ...Option) *Collection {
	t.Helper()
	c := New(opts...)
	_, err := c.InsertMany(context.Background(),
		apifeatures.Record{"name": "a", "price": 3.0},
		apifeatures.Record{"name": "b", "price": 1.0},
		apifeatures.Record{"name": "c", "price": 2.0},
		apifeatures.Record{"name": "d", "price": 1.0},
	)
	require.NoError(t, err)
	return c
}

func execNames(t *testing.T, e apifeatures.Executor) []string {
	t.Helper()
	records, err := e.Execute(context.Background())
	require.NoError(t, err)
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r["name"].(string)
	}
	return out
}

func TestExecutor(t *testing.T) {
	c := seed(t)
	byPrice := apifeatures.SortSpec{{Field: "price"}}

	assert.Equal(t, []string{"b", "d", "c", "a"}, execNames(t, c.Find().OrderBy(byPrice)), "sort is stable")
	assert.Equal(t, []string{"a", "c", "b", "d"}, execNames(t, c.Find().OrderBy(apifeatures.SortSpec{{Field: "price", Desc: true}})))
	assert.Equal(t, []string{"c", "a"}, execNames(t, c.Find().OrderBy(byPrice).Window(2, 5)))
	assert.Equal(t, []string{"b", "d"}, execNames(t, c.Find().OrderBy(byPrice).Window(0, -2)), "negative limit acts as its absolute value")
	assert.Empty(t, execNames(t, c.Find().Window(10, 5)))

	_, err := c.Find().Window(-1, 5).Execute(context.Background())
	assert.Error(t, err)
}

func TestExecutorWhereIsCumulativeAndImmutable(t *testing.T) {
	c := seed(t)
	base := c.Find()
	cheap := base.Where(apifeatures.Criteria{"price": map[string]any{"$lt": 3.0}})
	cheapB := cheap.Where(apifeatures.Criteria{"name": "b"})

	assert.Len(t, execNames(t, base), 4)
	assert.Len(t, execNames(t, cheap), 3)
	assert.Equal(t, []string{"b"}, execNames(t, cheapB))

	n, err := cheap.(apifeatures.Counter).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestExecutorProjection(t *testing.T) {
	c := seed(t)
	records, err := c.Find().Select(apifeatures.Projection{Fields: []string{"name"}}).Execute(context.Background())
	require.NoError(t, err)
	for _, r := range records {
		assert.Len(t, r, 2)
		assert.Contains(t, r, IDField)
		assert.Contains(t, r, "name")
	}
}

func TestCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	c := New(WithUnique("name"))

	created, err := c.Insert(ctx, struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}{"The Forest Hiker", 397})
	require.NoError(t, err)
	id, _ := created[IDField].(string)
	require.NotEmpty(t, id)
	assert.NotContains(t, created, apifeatures.VersionField)

	got, err := c.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = c.Insert(ctx, apifeatures.Record{"name": "The Forest Hiker"})
	var dup *natours.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "name", dup.Field)

	updated, err := c.UpdateByID(ctx, id, map[string]any{"price": 497.0, IDField: "other"})
	require.NoError(t, err)
	assert.Equal(t, 497.0, updated["price"])
	assert.Equal(t, id, updated[IDField])

	require.NoError(t, c.DeleteByID(ctx, id))
	_, err = c.FindByID(ctx, id)
	assert.ErrorIs(t, err, natours.ErrNotFound)
	assert.ErrorIs(t, c.DeleteByID(ctx, id), natours.ErrNotFound)
	_, err = c.UpdateByID(ctx, id, nil)
	assert.ErrorIs(t, err, natours.ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	c := seed(t)
	n, err := c.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Zero(t, c.Len())
}

func TestCanceledContext(t *testing.T) {
	c := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Find().Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.Insert(ctx, apifeatures.Record{"name": "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
