package rpgorm

import (
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var schemaCache sync.Map

// fieldMap maps the json names of a model's fields to their columns.
type fieldMap struct {
	table   string
	columns map[string]string
	names   []string // json names in declaration order
	primary string   // json name of the primary key
}

func parseFields(db *gorm.DB, model any) (*fieldMap, error) {
	sch, err := schema.Parse(model, &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("rpgorm: parse model %T: %w", model, err)
	}
	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("rpgorm: model %T has no primary key", model)
	}

	m := &fieldMap{table: sch.Table, columns: make(map[string]string, len(sch.Fields))}
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		m.columns[name] = f.DBName
		m.names = append(m.names, name)
		if f == sch.PrioritizedPrimaryField {
			m.primary = name
		}
	}
	return m, nil
}

func jsonName(f *schema.Field) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func (m *fieldMap) column(name string) (string, bool) {
	col, ok := m.columns[name]
	return col, ok
}

func (m *fieldMap) primaryColumn() string {
	return m.columns[m.primary]
}
