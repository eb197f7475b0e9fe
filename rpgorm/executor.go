package rpgorm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aasimohyeah/natours/apifeatures"
)

var errNegativeSkip = errors.New("rpgorm: skip must be non-negative")

// Executor is an apifeatures.Executor compiling to one SELECT over the
// table of T. An unknown field or operator makes Execute fail with a
// *apifeatures.ClientQueryError.
type Executor[T any] struct {
	db         *gorm.DB
	fields     *fieldMap
	where      []clause.Expression
	order      []clause.OrderByColumn
	projection *apifeatures.Projection
	skip       int64
	limit      int64
	err        error
}

func (e Executor[T]) Where(c apifeatures.Criteria) apifeatures.Executor {
	if e.err != nil || len(c) == 0 {
		return e
	}
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	where := slices.Clip(e.where)
	for _, name := range names {
		col, ok := e.fields.column(name)
		if !ok {
			e.err = &apifeatures.ClientQueryError{Param: name, Value: c[name], Reason: "unknown field"}
			return e
		}
		exprs, err := conditions(name, col, c[name])
		if err != nil {
			e.err = err
			return e
		}
		where = append(where, exprs...)
	}
	e.where = where
	return e
}

func conditions(name, column string, cond any) ([]clause.Expression, error) {
	col := clause.Column{Name: column}
	ops, ok := cond.(map[string]any)
	if !ok {
		return []clause.Expression{clause.Eq{Column: col, Value: cond}}, nil
	}

	tokens := make([]string, 0, len(ops))
	for op := range ops {
		tokens = append(tokens, op)
	}
	sort.Strings(tokens)

	exprs := make([]clause.Expression, 0, len(ops))
	for _, op := range tokens {
		v := ops[op]
		switch op {
		case "$eq":
			exprs = append(exprs, clause.Eq{Column: col, Value: v})
		case "$ne":
			exprs = append(exprs, clause.Neq{Column: col, Value: v})
		case "$gt":
			exprs = append(exprs, clause.Gt{Column: col, Value: v})
		case "$gte":
			exprs = append(exprs, clause.Gte{Column: col, Value: v})
		case "$lt":
			exprs = append(exprs, clause.Lt{Column: col, Value: v})
		case "$lte":
			exprs = append(exprs, clause.Lte{Column: col, Value: v})
		case apifeatures.OpIn:
			list, ok := v.([]any)
			if !ok {
				return nil, &apifeatures.ClientQueryError{Param: name, Value: v, Reason: "expected a list"}
			}
			exprs = append(exprs, clause.IN{Column: col, Values: list})
		default:
			return nil, &apifeatures.ClientQueryError{Param: name, Value: op, Reason: "unsupported operator"}
		}
	}
	return exprs, nil
}

func (e Executor[T]) OrderBy(s apifeatures.SortSpec) apifeatures.Executor {
	if e.err != nil {
		return e
	}
	order := make([]clause.OrderByColumn, 0, len(s))
	for _, f := range s {
		col, ok := e.fields.column(f.Field)
		if !ok {
			e.err = &apifeatures.ClientQueryError{Param: apifeatures.ParamSort, Value: f.Field, Reason: "unknown field"}
			return e
		}
		order = append(order, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: f.Desc})
	}
	e.order = order
	return e
}

func (e Executor[T]) Select(p apifeatures.Projection) apifeatures.Executor {
	p.Fields = slices.Clone(p.Fields)
	e.projection = &p
	return e
}

func (e Executor[T]) Window(skip, limit int64) apifeatures.Executor {
	e.skip, e.limit = skip, limit
	return e
}

// columns returns the selected columns, nil for all of them. Unknown fields
// are ignored.
func (e Executor[T]) columns() []string {
	if e.projection == nil {
		return nil
	}
	cols := []string{e.fields.primaryColumn()}
	for _, name := range e.fields.names {
		if name == e.fields.primary || !e.projection.Includes(name) {
			continue
		}
		cols = append(cols, e.fields.columns[name])
	}
	return cols
}

func (e Executor[T]) filtered(tx *gorm.DB) *gorm.DB {
	tx = tx.Model(new(T))
	if len(e.where) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: e.where})
	}
	return tx
}

func (e Executor[T]) build(tx *gorm.DB) *gorm.DB {
	tx = e.filtered(tx)
	if len(e.order) > 0 {
		tx = tx.Clauses(clause.OrderBy{Columns: e.order})
	}
	if cols := e.columns(); cols != nil {
		tx = tx.Select(cols)
	}
	if e.skip > 0 {
		tx = tx.Offset(int(e.skip))
	}
	limit := e.limit
	if limit < 0 {
		limit = -limit
	}
	if limit > 0 {
		tx = tx.Limit(int(limit))
	}
	return tx
}

// SQL renders the statement Execute would run, with its values inlined.
func (e Executor[T]) SQL() (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []T
		return e.build(tx).Find(&rows)
	}), nil
}

func (e Executor[T]) Execute(ctx context.Context) ([]apifeatures.Record, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.skip < 0 {
		return nil, errNegativeSkip
	}

	var rows []T
	if err := e.build(e.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("rpgorm: find %s: %w", e.fields.table, err)
	}

	out := make([]apifeatures.Record, 0, len(rows))
	for i := range rows {
		rec, err := toRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e.project(rec))
	}
	return out, nil
}

func (e Executor[T]) Count(ctx context.Context) (int64, error) {
	if e.err != nil {
		return 0, e.err
	}
	var n int64
	if err := e.filtered(e.db.WithContext(ctx)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("rpgorm: count %s: %w", e.fields.table, err)
	}
	return n, nil
}

// project drops the zero values JSON encoding gives unselected fields.
func (e Executor[T]) project(rec apifeatures.Record) apifeatures.Record {
	if e.projection == nil {
		return rec
	}
	for k := range rec {
		if k != e.fields.primary && !e.projection.Includes(k) {
			delete(rec, k)
		}
	}
	return rec
}
