package natours

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/aasimohyeah/natours/apifeatures"
)

// Collection is the storage surface of one resource.
//
// Implementations wrap their engine's not-found condition with ErrNotFound,
// malformed identifiers with *CastError and unique-index violations with
// *DuplicateError. Any other error is passed through untouched.
type Collection interface {
	// Find returns an executor over the whole collection.
	Find() apifeatures.Executor
	FindByID(ctx context.Context, id string) (apifeatures.Record, error)
	Insert(ctx context.Context, doc any) (apifeatures.Record, error)
	UpdateByID(ctx context.Context, id string, patch map[string]any) (apifeatures.Record, error)
	DeleteByID(ctx context.Context, id string) error
}

// Aggregator is implemented by collections that run aggregation pipelines.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline []H) ([]apifeatures.Record, error)
}

// UseCollection stores coll in the gin context under key for the stages of
// the route.
func UseCollection(key string, coll Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, coll)
		c.Next()
	}
}

func collectionFrom(c *gin.Context, key string) (Collection, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", key, ErrCtxKeyNotFound)
	}
	coll, ok := v.(Collection)
	if !ok {
		return nil, fmt.Errorf("context key %q holds %T, not a Collection", key, v)
	}
	return coll, nil
}
