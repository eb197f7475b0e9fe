package apifeatures

import "strings"

// SortField is one ordering key.
type SortField struct {
	Field string
	Desc  bool
}

// SortSpec orders by its fields in sequence; the first has highest precedence.
type SortSpec []SortField

// DefaultSortField orders results newest first when no sort is requested.
const DefaultSortField = "createdAt"

// DefaultSort is applied when the query string carries no sort.
func DefaultSort() SortSpec {
	return SortSpec{{Field: DefaultSortField, Desc: true}}
}

// ParseSort reads the sort parameter: "-price,name" orders by price
// descending, then name ascending.
func ParseSort(params RawParameters) (SortSpec, error) {
	raw, present := params[ParamSort]
	if !present {
		return DefaultSort(), nil
	}

	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case []string:
		text = strings.Join(v, ",")
	default:
		return nil, invalid(ParamSort, raw, "expected a comma separated list")
	}

	var spec SortSpec
	seen := map[string]struct{}{}
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		desc := strings.HasPrefix(token, "-")
		field := strings.TrimSpace(strings.TrimPrefix(token, "-"))
		if field == "" {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		spec = append(spec, SortField{Field: field, Desc: desc})
	}
	if len(spec) == 0 {
		return DefaultSort(), nil
	}
	return spec, nil
}
