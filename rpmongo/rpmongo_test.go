package rpmongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
)

func TestExecutorCompilesFeatures(t *testing.T) {
	params := apifeatures.RawParameters{
		"difficulty": "easy",
		"price":      map[string]any{"gte": "500"},
		"sort":       "-ratingsAverage,price",
		"fields":     "name,price",
		"page":       "2",
		"limit":      "3",
	}
	schema := apifeatures.Schema{"difficulty": apifeatures.String, "price": apifeatures.Number}

	q, err := apifeatures.Apply(Executor{}, params, apifeatures.WithSchema(schema))
	require.NoError(t, err)
	e := q.(Executor)

	assert.Equal(t, bson.M{
		"difficulty": "easy",
		"price":      map[string]any{"$gte": float64(500)},
	}, e.Filter())

	opts := e.FindOptions()
	assert.Equal(t, bson.D{{Key: "ratingsAverage", Value: -1}, {Key: "price", Value: 1}}, opts.Sort)
	assert.Equal(t, bson.M{"name": 1, "price": 1}, opts.Projection)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(3), *opts.Skip)
	assert.Equal(t, int64(3), *opts.Limit)
}

func TestExecutorDefaults(t *testing.T) {
	q, err := apifeatures.Apply(Executor{}, apifeatures.RawParameters{})
	require.NoError(t, err)
	e := q.(Executor)

	assert.Equal(t, bson.M{}, e.Filter())
	opts := e.FindOptions()
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
	assert.Equal(t, bson.M{"__v": 0}, opts.Projection)
	assert.Nil(t, opts.Skip)
	assert.Equal(t, int64(100), *opts.Limit)
}

func TestFilterCombinesWhereCalls(t *testing.T) {
	e := Executor{}.
		Where(apifeatures.Criteria{"a": "1"}).
		Where(apifeatures.Criteria{}).
		Where(apifeatures.Criteria{"b": "2"}).(Executor)

	assert.Equal(t, bson.M{"$and": bson.A{bson.M{"a": "1"}, bson.M{"b": "2"}}}, e.Filter())
}

func TestExecutorIsImmutable(t *testing.T) {
	base := Executor{}
	_ = base.Where(apifeatures.Criteria{"a": "1"}).Window(10, 5)

	assert.Empty(t, base.filters)
	assert.Zero(t, base.skip)
	assert.Zero(t, base.limit)
}

func TestObjectIDCast(t *testing.T) {
	_, err := objectID("5c88fa8cf4afda39709c2951")
	require.NoError(t, err)

	_, err = objectID("wwwww")
	require.Error(t, err)
	var castErr *natours.CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "Invalid _id: wwwww", castErr.Error())
	assert.ErrorIs(t, err, natours.ErrInvalidID)
}

func TestWhereCastsIDs(t *testing.T) {
	a, _ := primitive.ObjectIDFromHex("5c88fa8cf4afda39709c2951")
	b, _ := primitive.ObjectIDFromHex("5c88fa8cf4afda39709c2955")

	params := apifeatures.RawParameters{"_id": []string{a.Hex(), b.Hex()}, "name": "x"}
	q, err := apifeatures.Apply(Executor{}, params, apifeatures.WithSchema(apifeatures.Schema{"_id": apifeatures.String}))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": map[string]any{"$in": []any{a, b}}, "name": "x"}, q.(Executor).Filter())

	e := Executor{}.Where(apifeatures.Criteria{"_id": a.Hex()}).(Executor)
	assert.Equal(t, bson.M{"_id": a}, e.Filter())

	e = Executor{}.Where(apifeatures.Criteria{"_id": map[string]any{"$ne": b.Hex()}}).(Executor)
	assert.Equal(t, bson.M{"_id": map[string]any{"$ne": b}}, e.Filter())
}

func TestWhereRejectsMalformedID(t *testing.T) {
	e := Executor{}.Where(apifeatures.Criteria{"_id": "wwwww"}).Where(apifeatures.Criteria{"name": "x"})

	_, err := e.Execute(context.Background())
	assert.ErrorIs(t, err, natours.ErrInvalidID)
	_, err = e.(Executor).Count(context.Background())
	var castErr *natours.CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "Invalid _id: wwwww", castErr.Error())
}

func TestWriteErrorDuplicateKey(t *testing.T) {
	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: natours.tours index: name_1 dup key: { name: "The Forest Hiker" }`,
	}}}

	err := writeError(dupErr)
	var dup *natours.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "name", dup.Field)
	assert.Equal(t, "The Forest Hiker", dup.Value)
	assert.Equal(t, "Duplicate field value: 'The Forest Hiker'. Please use another value!", dup.Error())

	other := writeError(errors.New("boom"))
	assert.NotErrorIs(t, other, natours.ErrDuplicate)
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	assert.ErrorIs(t, notFound("x", mongo.ErrNoDocuments), natours.ErrNotFound)
	assert.NotErrorIs(t, notFound("x", errors.New("timeout")), natours.ErrNotFound)
}

func TestPlainValues(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2021, 4, 25, 9, 0, 0, 0, time.UTC)

	rec := toRecord(bson.M{
		"_id":        oid,
		"startDates": bson.A{primitive.NewDateTimeFromTime(at)},
		"count":      int32(3),
		"nested":     bson.M{"n": int64(7)},
	})

	assert.Equal(t, oid.Hex(), rec["_id"])
	assert.Equal(t, []any{at}, rec["startDates"])
	assert.Equal(t, float64(3), rec["count"])
	assert.Equal(t, map[string]any{"n": float64(7)}, rec["nested"])
}
