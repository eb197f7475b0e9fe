// Package rpmongo stores collections in MongoDB.
package rpmongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
)

const idField = "_id"

// Collection is a natours.Collection over a MongoDB collection whose
// documents use ObjectID identifiers.
type Collection struct {
	coll *mongo.Collection
}

var (
	_ natours.Collection = (*Collection)(nil)
	_ natours.Aggregator = (*Collection)(nil)
)

// New returns the collection name of db.
func New(db *mongo.Database, name string) *Collection {
	return &Collection{coll: db.Collection(name)}
}

// Connect opens a client for uri and returns its database name. The returned
// function disconnects the client.
func Connect(ctx context.Context, uri, name string) (*mongo.Database, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("rpmongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("rpmongo: ping: %w", err)
	}
	return client.Database(name), client.Disconnect, nil
}

// EnsureUnique creates a unique index on each field.
func (c *Collection) EnsureUnique(ctx context.Context, fields ...string) error {
	for _, f := range fields {
		_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: f, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("rpmongo: index %s.%s: %w", c.coll.Name(), f, err)
		}
	}
	return nil
}

func (c *Collection) Find() apifeatures.Executor {
	return Executor{coll: c.coll}
}

var hideVersion = bson.M{apifeatures.VersionField: 0}

func (c *Collection) FindByID(ctx context.Context, id string) (apifeatures.Record, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = c.coll.FindOne(ctx, bson.M{idField: oid}, options.FindOne().SetProjection(hideVersion)).Decode(&doc)
	if err != nil {
		return nil, notFound(id, err)
	}
	return toRecord(doc), nil
}

func (c *Collection) Insert(ctx context.Context, doc any) (apifeatures.Record, error) {
	if rec, ok := doc.(apifeatures.Record); ok {
		if _, ok := rec[apifeatures.VersionField]; !ok {
			rec = cloneWith(rec, apifeatures.VersionField, 0)
		}
		doc = rec
	}
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, writeError(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("rpmongo: inserted id is %T, not an ObjectID", res.InsertedID)
	}
	return c.FindByID(ctx, oid.Hex())
}

// InsertMany stores docs in one round trip.
func (c *Collection) InsertMany(ctx context.Context, docs ...any) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := c.coll.InsertMany(ctx, docs)
	if err != nil {
		n := 0
		if res != nil {
			n = len(res.InsertedIDs)
		}
		return n, writeError(err)
	}
	return len(res.InsertedIDs), nil
}

func (c *Collection) UpdateByID(ctx context.Context, id string, patch map[string]any) (apifeatures.Record, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	for k, v := range patch {
		if k != idField {
			set[k] = v
		}
	}
	if len(set) == 0 {
		return c.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(hideVersion)
	var doc bson.M
	err = c.coll.FindOneAndUpdate(ctx, bson.M{idField: oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(id, err)
		}
		return nil, writeError(err)
	}
	return toRecord(doc), nil
}

func (c *Collection) DeleteByID(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := c.coll.DeleteOne(ctx, bson.M{idField: oid})
	if err != nil {
		return fmt.Errorf("rpmongo: delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id, mongo.ErrNoDocuments)
	}
	return nil
}

// DeleteAll removes every document.
func (c *Collection) DeleteAll(ctx context.Context) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("rpmongo: delete all: %w", err)
	}
	return res.DeletedCount, nil
}

// Aggregate runs pipeline and returns every resulting document.
func (c *Collection) Aggregate(ctx context.Context, pipeline []natours.H) ([]apifeatures.Record, error) {
	stages := make(bson.A, len(pipeline))
	for i, st := range pipeline {
		stages[i] = bson.M(st)
	}
	cur, err := c.coll.Aggregate(ctx, stages)
	if err != nil {
		return nil, fmt.Errorf("rpmongo: aggregate %s: %w", c.coll.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("rpmongo: decode %s: %w", c.coll.Name(), err)
	}
	return toRecords(docs), nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &natours.CastError{Path: idField, Value: id, Err: err}
	}
	return oid, nil
}

func notFound(id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("rpmongo: %s: %w", id, natours.ErrNotFound)
	}
	return fmt.Errorf("rpmongo: %s: %w", id, err)
}

var dupKey = regexp.MustCompile(`dup key: \{ ?([\w.]+): "?(.*?)"? \}`)

func writeError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("rpmongo: write: %w", err)
	}
	dup := &natours.DuplicateError{Err: err}
	if m := dupKey.FindStringSubmatch(err.Error()); m != nil {
		dup.Field, dup.Value = m[1], m[2]
	}
	return dup
}

func cloneWith(rec apifeatures.Record, key string, v any) apifeatures.Record {
	out := make(apifeatures.Record, len(rec)+1)
	for k, val := range rec {
		out[k] = val
	}
	out[key] = v
	return out
}

func toRecords(docs []bson.M) []apifeatures.Record {
	out := make([]apifeatures.Record, len(docs))
	for i, d := range docs {
		out[i] = toRecord(d)
	}
	return out
}

func toRecord(doc bson.M) apifeatures.Record {
	rec := make(apifeatures.Record, len(doc))
	for k, v := range doc {
		rec[k] = plain(v)
	}
	return rec
}

// plain converts driver values to the JSON-friendly types records hold.
func plain(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case bson.M:
		return map[string]any(toRecord(x))
	case bson.D:
		return map[string]any(toRecord(x.Map()))
	case bson.A:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	}
	return v
}
