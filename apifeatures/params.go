package apifeatures

import (
	"net/url"
	"sort"
	"strings"
)

// Reserved query-string keys. They control the query and are never filters.
const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

var reservedParams = []string{ParamPage, ParamSort, ParamLimit, ParamFields}

// RawParameters is a decoded query string. Values are string, []string for
// repeated keys, or map[string]any for bracket notation (price[gte]=500).
type RawParameters map[string]any

// Clone returns a shallow copy. Nested maps are shared and must not be
// mutated by either copy.
func (p RawParameters) Clone() RawParameters {
	out := make(RawParameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get returns the value of key as a single string. Repeated keys yield their
// last value.
func (p RawParameters) Get(key string) (string, bool) {
	switch v := p[key].(type) {
	case string:
		return v, true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return v[len(v)-1], true
	}
	return "", false
}

// ParseQuery decodes url.Values into RawParameters, expanding bracket
// notation into nested maps. A key that is used both as a plain value and as
// a bracket map is rejected.
func ParseQuery(values url.Values) (RawParameters, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := RawParameters{}
	for _, key := range keys {
		vs := values[key]
		if len(vs) == 0 {
			continue
		}
		var val any = vs[len(vs)-1]
		if len(vs) > 1 {
			val = append([]string(nil), vs...)
		}

		path := splitBracketKey(key)
		if err := setPath(out, path, val); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// splitBracketKey splits "price[gte]" into ["price", "gte"]. Keys that are
// not well formed are returned whole.
func splitBracketKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		seg := rest[1:end]
		if seg == "" {
			// price[]=a&price[]=b is a plain repeated key
			break
		}
		path = append(path, seg)
		rest = rest[end+1:]
	}
	return path
}

func setPath(m map[string]any, path []string, val any) error {
	head := path[0]
	if len(path) == 1 {
		if _, isMap := m[head].(map[string]any); isMap {
			return invalid(head, val, "conflicting parameter shapes")
		}
		m[head] = val
		return nil
	}

	child, exists := m[head]
	if !exists {
		nested := map[string]any{}
		m[head] = nested
		return setPath(nested, path[1:], val)
	}
	nested, ok := child.(map[string]any)
	if !ok {
		return invalid(head, child, "conflicting parameter shapes")
	}
	return setPath(nested, path[1:], val)
}
