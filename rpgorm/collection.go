package rpgorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
)

// Collection is a natours.Collection over the table of model T. Identifiers
// are UUIDs; the model is expected to assign one on create.
type Collection[T any] struct {
	db     *gorm.DB
	fields *fieldMap
}

// New returns the collection of T in db.
func New[T any](db *gorm.DB) (*Collection[T], error) {
	fields, err := parseFields(db, new(T))
	if err != nil {
		return nil, err
	}
	return &Collection[T]{db: db, fields: fields}, nil
}

// Migrate creates or updates the table of T.
func (c *Collection[T]) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(new(T)); err != nil {
		return fmt.Errorf("rpgorm: migrate %s: %w", c.fields.table, err)
	}
	return nil
}

func (c *Collection[T]) Find() apifeatures.Executor {
	return Executor[T]{db: c.db, fields: c.fields}
}

func (c *Collection[T]) byID(id string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: c.fields.primaryColumn()}, Value: id}
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (apifeatures.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var row T
	if err := c.db.WithContext(ctx).Where(c.byID(id)).Take(&row).Error; err != nil {
		return nil, readError(id, err)
	}
	return exported(&row)
}

func (c *Collection[T]) Insert(ctx context.Context, doc any) (apifeatures.Record, error) {
	row, err := toModel[T](doc)
	if err != nil {
		return nil, err
	}
	if err := c.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, writeError(err)
	}
	return exported(row)
}

// InsertMany stores docs in batches of 100 inside one transaction.
func (c *Collection[T]) InsertMany(ctx context.Context, docs ...any) (int, error) {
	rows := make([]*T, 0, len(docs))
	for _, doc := range docs {
		row, err := toModel[T](doc)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := c.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return 0, writeError(err)
	}
	return len(rows), nil
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, patch map[string]any) (apifeatures.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	for field, v := range patch {
		if _, ok := c.fields.column(field); !ok {
			return nil, &apifeatures.ClientQueryError{Param: field, Value: v, Reason: "unknown field"}
		}
	}

	var updated *T
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row T
		if err := tx.Where(c.byID(id)).Take(&row).Error; err != nil {
			return readError(id, err)
		}
		rec, err := toRecord(&row)
		if err != nil {
			return err
		}
		for field, v := range patch {
			if field != c.fields.primary {
				rec[field] = v
			}
		}
		if updated, err = toModel[T](rec); err != nil {
			return err
		}
		if err := tx.Save(updated).Error; err != nil {
			return writeError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exported(updated)
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res := c.db.WithContext(ctx).Where(c.byID(id)).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("rpgorm: delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("rpgorm: %s: %w", id, natours.ErrNotFound)
	}
	return nil
}

// DeleteAll removes every row and returns how many there were.
func (c *Collection[T]) DeleteAll(ctx context.Context) (int64, error) {
	res := c.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("rpgorm: delete all: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &natours.CastError{Path: "_id", Value: id, Err: err}
	}
	return nil
}

func readError(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("rpgorm: %s: %w", id, natours.ErrNotFound)
	}
	return fmt.Errorf("rpgorm: %s: %w", id, err)
}

func writeError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &natours.DuplicateError{Err: err}
	}
	return fmt.Errorf("rpgorm: write: %w", err)
}

func toModel[T any](doc any) (*T, error) {
	switch d := doc.(type) {
	case *T:
		return d, nil
	case T:
		return &d, nil
	case nil:
		return nil, errors.New("rpgorm: nil document")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rpgorm: encode document: %w", err)
	}
	row := new(T)
	if err := json.Unmarshal(raw, row); err != nil {
		return nil, fmt.Errorf("rpgorm: decode document: %w", err)
	}
	return row, nil
}

func toRecord(row any) (apifeatures.Record, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("rpgorm: encode row: %w", err)
	}
	var rec apifeatures.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("rpgorm: decode row: %w", err)
	}
	return rec, nil
}

func exported(row any) (apifeatures.Record, error) {
	rec, err := toRecord(row)
	if err != nil {
		return nil, err
	}
	delete(rec, apifeatures.VersionField)
	return rec, nil
}
