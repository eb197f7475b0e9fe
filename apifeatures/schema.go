package apifeatures

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the stored type of a field, used to cast query-string text.
type Kind int

const (
	String Kind = iota
	Number
	Date
	Bool
	StringList
	DateList
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Date, DateList:
		return "date"
	case Bool:
		return "boolean"
	default:
		return "string"
	}
}

// Schema maps field names to their kind. Fields missing from the schema are
// compared as strings.
type Schema map[string]Kind

// Cast converts text to the kind of field. A nil or empty schema returns the
// text unchanged.
func (s Schema) Cast(field, text string) (any, error) {
	kind, ok := s[field]
	if !ok {
		return text, nil
	}
	v, err := castText(kind, text)
	if err != nil {
		return nil, invalid(field, text, err.Error())
	}
	return v, nil
}

func castText(kind Kind, text string) (any, error) {
	switch kind {
	case Number:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("not a %s", kind)
		}
		return f, nil
	case Date, DateList:
		return ParseDate(text)
	case Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("not a %s", kind)
		}
		return b, nil
	}
	return text, nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates, in UTC
// unless an offset is given.
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date")
}

// CheckValue validates a decoded JSON value against the kind of field and
// returns it in its stored form (dates become time.Time).
func (s Schema) CheckValue(field string, v any) (any, error) {
	kind, ok := s[field]
	if !ok {
		return nil, invalid(field, v, "unknown field")
	}
	if v == nil {
		return nil, nil
	}
	bad := func() error { return invalid(field, v, "expected "+kind.String()) }

	switch kind {
	case String:
		if _, ok := v.(string); !ok {
			return nil, bad()
		}
		return v, nil
	case Number:
		switch n := v.(type) {
		case float64, float32, int, int32, int64:
			return n, nil
		}
		return nil, bad()
	case Bool:
		if _, ok := v.(bool); !ok {
			return nil, bad()
		}
		return v, nil
	case Date:
		str, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		t, err := ParseDate(str)
		if err != nil {
			return nil, bad()
		}
		return t, nil
	case StringList, DateList:
		items, ok := v.([]any)
		if !ok {
			return nil, bad()
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			str, ok := item.(string)
			if !ok {
				return nil, bad()
			}
			if kind == StringList {
				out = append(out, str)
				continue
			}
			t, err := ParseDate(str)
			if err != nil {
				return nil, bad()
			}
			out = append(out, t)
		}
		return out, nil
	}
	return v, nil
}
