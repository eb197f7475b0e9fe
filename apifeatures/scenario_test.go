package apifeatures_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasimohyeah/natours/apifeatures"
	"github.com/aasimohyeah/natours/memstore"
)

var schema = apifeatures.Schema{
	"name":           apifeatures.String,
	"difficulty":     apifeatures.String,
	"price":          apifeatures.Number,
	"ratingsAverage": apifeatures.Number,
	"createdAt":      apifeatures.Date,
}

func fixture(t *testing.T) *memstore.Collection {
	t.Helper()
	coll := memstore.New()
	_, err := coll.InsertMany(context.Background(),
		apifeatures.Record{"name": "A", "difficulty": "easy", "price": 500.0, "ratingsAverage": 4.9, "createdAt": "2024-01-01T00:00:00Z"},
		apifeatures.Record{"name": "B", "difficulty": "easy", "price": 650.0, "ratingsAverage": 4.8, "createdAt": "2024-01-02T00:00:00Z"},
		apifeatures.Record{"name": "C", "difficulty": "easy", "price": 997.0, "ratingsAverage": 4.8, "createdAt": "2024-01-03T00:00:00Z"},
		apifeatures.Record{"name": "D", "difficulty": "easy", "price": 520.0, "ratingsAverage": 4.7, "createdAt": "2024-01-04T00:00:00Z"},
		apifeatures.Record{"name": "E", "difficulty": "easy", "price": 1200.0, "ratingsAverage": 4.7, "createdAt": "2024-01-05T00:00:00Z"},
		apifeatures.Record{"name": "F", "difficulty": "easy", "price": 799.0, "ratingsAverage": 4.6, "createdAt": "2024-01-06T00:00:00Z"},
		apifeatures.Record{"name": "G", "difficulty": "easy", "price": 2000.0, "ratingsAverage": 4.5, "createdAt": "2024-01-07T00:00:00Z"},
		apifeatures.Record{"name": "H", "difficulty": "easy", "price": 397.0, "ratingsAverage": 4.9, "createdAt": "2024-01-08T00:00:00Z"},
		apifeatures.Record{"name": "I", "difficulty": "medium", "price": 700.0, "ratingsAverage": 5.0, "createdAt": "2024-01-09T00:00:00Z"},
		apifeatures.Record{"name": "J", "difficulty": "difficult", "price": 1500.0, "ratingsAverage": 4.8, "createdAt": "2024-01-10T00:00:00Z"},
	)
	require.NoError(t, err)
	return coll
}

func run(t *testing.T, coll *memstore.Collection, params apifeatures.RawParameters) []apifeatures.Record {
	t.Helper()
	q, err := apifeatures.Apply(coll.Find(), params, apifeatures.WithSchema(schema))
	require.NoError(t, err)
	records, err := q.Execute(context.Background())
	require.NoError(t, err)
	return records
}

func names(records []apifeatures.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["name"].(string)
	}
	return out
}

func scenarioParams() apifeatures.RawParameters {
	return apifeatures.RawParameters{
		"difficulty": "easy",
		"price":      map[string]any{"gte": "500"},
		"sort":       "-ratingsAverage,price",
		"fields":     "name,price,ratingsAverage",
		"page":       "2",
		"limit":      "3",
	}
}

func TestScenario(t *testing.T) {
	records := run(t, fixture(t), scenarioParams())

	require.Len(t, records, 3)
	assert.Equal(t, []string{"D", "E", "F"}, names(records))
	for _, r := range records {
		assert.ElementsMatch(t, []string{"_id", "name", "price", "ratingsAverage"}, keys(r))
		assert.GreaterOrEqual(t, r["price"], 500.0)
	}
	assert.Equal(t, 4.7, records[0]["ratingsAverage"])
	assert.Equal(t, 520.0, records[0]["price"])
	assert.Equal(t, 1200.0, records[1]["price"])
}

func TestScenarioIsDeterministic(t *testing.T) {
	coll := fixture(t)
	first := run(t, coll, scenarioParams())
	second := run(t, coll, scenarioParams())
	assert.Equal(t, first, second)
}

func TestDefaultsSortNewestFirstAndHideVersion(t *testing.T) {
	records := run(t, fixture(t), apifeatures.RawParameters{})

	require.Len(t, records, 10)
	assert.Equal(t, "J", records[0]["name"])
	assert.Equal(t, "A", records[9]["name"])
	for _, r := range records {
		assert.NotContains(t, r, apifeatures.VersionField)
	}
}

func TestPageBeyondTheEndIsEmpty(t *testing.T) {
	records := run(t, fixture(t), apifeatures.RawParameters{"page": "100000", "limit": "10"})
	assert.Empty(t, records)
}

func TestHugePageIsEmpty(t *testing.T) {
	for _, params := range []apifeatures.RawParameters{
		{"page": "1e17", "limit": "100"},
		{"page": "1e20"},
		{"page": "9223372036854775807", "limit": "9223372036854775807"},
	} {
		records := run(t, fixture(t), params)
		assert.Empty(t, records, "%v", params)
	}
}

func TestHugeLimitReturnsEverything(t *testing.T) {
	records := run(t, fixture(t), apifeatures.RawParameters{"limit": "1e19"})
	assert.Len(t, records, 10)
}

func TestRepeatedValuesMatchAny(t *testing.T) {
	records := run(t, fixture(t), apifeatures.RawParameters{
		"difficulty": []string{"medium", "difficult"},
		"sort":       "name",
	})
	assert.Equal(t, []string{"I", "J"}, names(records))
}

func keys(r apifeatures.Record) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}
