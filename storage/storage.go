// Package storage opens the tour collection on the configured backend.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/config"
	"github.com/aasimohyeah/natours/memstore"
	"github.com/aasimohyeah/natours/rpgorm"
	"github.com/aasimohyeah/natours/rpmongo"
	"github.com/aasimohyeah/natours/tours"
)

// ToursCollection is the name of the tours collection or table.
const ToursCollection = "tours"

// Collection is a natours.Collection that can also be loaded and emptied in
// bulk.
type Collection interface {
	natours.Collection
	InsertMany(ctx context.Context, docs ...any) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
}

var (
	_ Collection = (*memstore.Collection)(nil)
	_ Collection = (*rpmongo.Collection)(nil)
	_ Collection = (*rpgorm.Collection[tours.Tour])(nil)
)

// CloseFunc releases the connection behind a collection.
type CloseFunc func(context.Context) error

// OpenTours connects to the backend named by cfg and prepares the tours
// collection: a unique name index on MongoDB, the table on SQL databases.
func OpenTours(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Collection, CloseFunc, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memstore.New(memstore.WithUnique("name")), func(context.Context) error { return nil }, nil

	case config.BackendMongo:
		db, disconnect, err := rpmongo.Connect(ctx, cfg.MongoURI(), cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		coll := rpmongo.New(db, ToursCollection)
		if err := coll.EnsureUnique(ctx, "name"); err != nil {
			_ = disconnect(ctx)
			return nil, nil, err
		}
		return coll, disconnect, nil

	case config.BackendPostgres, config.BackendMySQL:
		db, err := rpgorm.Open(cfg.Backend, cfg.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %w", err)
		}
		closeDB := func(context.Context) error { return sqlDB.Close() }

		coll, err := rpgorm.New[tours.Tour](db)
		if err != nil {
			_ = closeDB(ctx)
			return nil, nil, err
		}
		if err := coll.Migrate(ctx); err != nil {
			_ = closeDB(ctx)
			return nil, nil, err
		}
		return coll, closeDB, nil
	}
	return nil, nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
}
