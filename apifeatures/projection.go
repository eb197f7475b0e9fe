package apifeatures

import "strings"

// VersionField is the internal document version hidden by default.
const VersionField = "__v"

// Projection selects the fields returned per record. With Exclude unset,
// exactly Fields are returned (plus the executor's identity field); with
// Exclude set, everything but Fields is returned.
type Projection struct {
	Fields  []string
	Exclude bool
}

// DefaultProjection hides the version field.
func DefaultProjection() Projection {
	return Projection{Fields: []string{VersionField}, Exclude: true}
}

// Includes reports whether field survives the projection.
func (p Projection) Includes(field string) bool {
	listed := false
	for _, f := range p.Fields {
		if f == field {
			listed = true
			break
		}
	}
	return listed != p.Exclude
}

// ParseProjection reads the fields parameter. "name,price" includes those
// fields; "-summary,-description" excludes them. Mixing both forms is an
// error.
func ParseProjection(params RawParameters) (Projection, error) {
	raw, present := params[ParamFields]
	if !present {
		return DefaultProjection(), nil
	}

	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case []string:
		text = strings.Join(v, ",")
	default:
		return Projection{}, invalid(ParamFields, raw, "expected a comma separated list")
	}

	var (
		fields   []string
		excludes int
		seen     = map[string]struct{}{}
	)
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		exclude := strings.HasPrefix(token, "-")
		field := strings.TrimSpace(strings.TrimPrefix(token, "-"))
		if field == "" {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		if exclude {
			excludes++
		}
		fields = append(fields, field)
	}

	switch {
	case len(fields) == 0:
		return DefaultProjection(), nil
	case excludes == 0:
		return Projection{Fields: fields}, nil
	case excludes == len(fields):
		return Projection{Fields: fields, Exclude: true}, nil
	}
	return Projection{}, invalid(ParamFields, text, "cannot mix inclusion and exclusion")
}
