package rpmongo

import (
	"context"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aasimohyeah/natours/apifeatures"
)

// Executor is an apifeatures.Executor compiling to a single Find call.
type Executor struct {
	coll       *mongo.Collection
	filters    []bson.M
	sort       bson.D
	projection bson.M
	skip       int64
	limit      int64
	err        error
}

var (
	_ apifeatures.Executor = Executor{}
	_ apifeatures.Counter  = Executor{}
)

func (e Executor) Where(c apifeatures.Criteria) apifeatures.Executor {
	if len(c) == 0 {
		return e
	}
	filter, err := castIDs(c)
	if err != nil {
		e.err = err
		return e
	}
	e.filters = append(slices.Clip(e.filters), filter)
	return e
}

// castIDs turns the hex strings of an _id condition, including operator
// operands and $in items, into ObjectIDs.
func castIDs(c apifeatures.Criteria) (bson.M, error) {
	cond, ok := c[idField]
	if !ok {
		return bson.M(c), nil
	}
	cast, err := castID(cond)
	if err != nil {
		return nil, err
	}
	filter := make(bson.M, len(c))
	for k, v := range c {
		filter[k] = v
	}
	filter[idField] = cast
	return filter, nil
}

func castID(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return objectID(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			cast, err := castID(item)
			if err != nil {
				return nil, err
			}
			out[i] = cast
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for op, operand := range x {
			cast, err := castID(operand)
			if err != nil {
				return nil, err
			}
			out[op] = cast
		}
		return out, nil
	}
	return v, nil
}

func (e Executor) OrderBy(s apifeatures.SortSpec) apifeatures.Executor {
	e.sort = SortDoc(s)
	return e
}

func (e Executor) Select(p apifeatures.Projection) apifeatures.Executor {
	e.projection = ProjectionDoc(p)
	return e
}

func (e Executor) Window(skip, limit int64) apifeatures.Executor {
	e.skip, e.limit = skip, limit
	return e
}

// Filter returns the filter document of every Where call combined.
func (e Executor) Filter() bson.M {
	switch len(e.filters) {
	case 0:
		return bson.M{}
	case 1:
		return e.filters[0]
	}
	all := make(bson.A, len(e.filters))
	for i, f := range e.filters {
		all[i] = f
	}
	return bson.M{"$and": all}
}

// FindOptions returns the options Execute sends with the filter.
func (e Executor) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(e.sort) > 0 {
		opts.SetSort(e.sort)
	}
	if e.projection != nil {
		opts.SetProjection(e.projection)
	}
	if e.skip != 0 {
		opts.SetSkip(e.skip)
	}
	if e.limit != 0 {
		opts.SetLimit(e.limit)
	}
	return opts
}

func (e Executor) Execute(ctx context.Context) ([]apifeatures.Record, error) {
	if e.err != nil {
		return nil, e.err
	}
	cur, err := e.coll.Find(ctx, e.Filter(), e.FindOptions())
	if err != nil {
		return nil, fmt.Errorf("rpmongo: find %s: %w", e.coll.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("rpmongo: decode %s: %w", e.coll.Name(), err)
	}
	return toRecords(docs), nil
}

func (e Executor) Count(ctx context.Context) (int64, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.coll.CountDocuments(ctx, e.Filter())
	if err != nil {
		return 0, fmt.Errorf("rpmongo: count %s: %w", e.coll.Name(), err)
	}
	return n, nil
}

// SortDoc converts s to a Mongo sort document.
func SortDoc(s apifeatures.SortSpec) bson.D {
	doc := make(bson.D, 0, len(s))
	for _, f := range s {
		dir := 1
		if f.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: f.Field, Value: dir})
	}
	return doc
}

// ProjectionDoc converts p to a Mongo projection document.
func ProjectionDoc(p apifeatures.Projection) bson.M {
	flag := 1
	if p.Exclude {
		flag = 0
	}
	doc := make(bson.M, len(p.Fields))
	for _, f := range p.Fields {
		doc[f] = flag
	}
	return doc
}
