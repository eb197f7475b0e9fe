// Package rpgorm stores collections in SQL databases through gorm. Records
// are the JSON form of a model struct, so filters and projections name
// fields by their json tags.
package rpgorm

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Open connects to the database of driver at dsn. Driver errors are
// translated to gorm's portable errors, so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case Postgres:
		dialector = postgres.Open(dsn)
	case MySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("rpgorm: unknown driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewLogger(log, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("rpgorm: open %s: %w", driver, err)
	}
	return db, nil
}
