// Package memstore is an in-memory document collection. It backs the
// "memory" storage mode and the fixtures of handler tests.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
)

// IDField is the identity field every record carries.
const IDField = "_id"

// Collection holds records in insertion order.
type Collection struct {
	mu      sync.RWMutex
	records []apifeatures.Record
	unique  []string
}

var _ natours.Collection = (*Collection)(nil)

// Option configures a Collection.
type Option func(*Collection)

// WithUnique rejects inserts and updates that would duplicate a value of
// any of fields.
func WithUnique(fields ...string) Option {
	return func(c *Collection) { c.unique = append(c.unique, fields...) }
}

// New returns an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Find returns an executor over every record.
func (c *Collection) Find() apifeatures.Executor {
	return Executor{coll: c}
}

// Len returns the number of stored records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Collection) snapshot() []apifeatures.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]apifeatures.Record(nil), c.records...)
}

func (c *Collection) FindByID(ctx context.Context, id string) (apifeatures.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.exported(c.records[i]), nil
	}
	return nil, fmt.Errorf("memstore: %s: %w", id, natours.ErrNotFound)
}

// Insert stores doc, which is a Record or any JSON-encodable value. A
// missing _id is generated and __v starts at 0.
func (c *Collection) Insert(ctx context.Context, doc any) (apifeatures.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := toRecord(doc)
	if err != nil {
		return nil, err
	}
	if id, _ := rec[IDField].(string); id == "" {
		rec[IDField] = uuid.NewString()
	}
	if _, ok := rec[apifeatures.VersionField]; !ok {
		rec[apifeatures.VersionField] = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUnique(rec, -1); err != nil {
		return nil, err
	}
	c.records = append(c.records, rec)
	return c.exported(rec), nil
}

// InsertMany stores every doc, stopping at the first failure.
func (c *Collection) InsertMany(ctx context.Context, docs ...any) (int, error) {
	for i, doc := range docs {
		if _, err := c.Insert(ctx, doc); err != nil {
			return i, err
		}
	}
	return len(docs), nil
}

func (c *Collection) UpdateByID(ctx context.Context, id string, patch map[string]any) (apifeatures.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("memstore: %s: %w", id, natours.ErrNotFound)
	}

	updated := maps.Clone(c.records[i])
	for k, v := range patch {
		if k == IDField {
			continue
		}
		updated[k] = v
	}
	if err := c.checkUnique(updated, i); err != nil {
		return nil, err
	}
	c.records[i] = updated
	return c.exported(updated), nil
}

func (c *Collection) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("memstore: %s: %w", id, natours.ErrNotFound)
	}
	c.records = append(c.records[:i], c.records[i+1:]...)
	return nil
}

// DeleteAll removes every record and returns how many there were.
func (c *Collection) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.records))
	c.records = nil
	return n, nil
}

func (c *Collection) indexOf(id string) int {
	for i, rec := range c.records {
		if rec[IDField] == id {
			return i
		}
	}
	return -1
}

func (c *Collection) checkUnique(rec apifeatures.Record, self int) error {
	for _, field := range c.unique {
		v, ok := rec[field]
		if !ok {
			continue
		}
		for i, other := range c.records {
			if i == self {
				continue
			}
			if cmp, ok := compareValues(other[field], v); ok && cmp == 0 {
				return &natours.DuplicateError{Field: field, Value: fmt.Sprint(v)}
			}
		}
	}
	return nil
}

// exported hides the version field the way a default projection does.
func (c *Collection) exported(rec apifeatures.Record) apifeatures.Record {
	out := maps.Clone(rec)
	delete(out, apifeatures.VersionField)
	return out
}

func toRecord(doc any) (apifeatures.Record, error) {
	switch d := doc.(type) {
	case apifeatures.Record:
		return maps.Clone(d), nil
	case nil:
		return nil, fmt.Errorf("memstore: nil document")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memstore: encode document: %w", err)
	}
	var rec apifeatures.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("memstore: document is not an object: %w", err)
	}
	return rec, nil
}
