package apifeatures

// Comparison operators accepted in the query string and the tokens they are
// rewritten to.
var comparisonOps = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// OpIn is produced for repeated filter keys (?difficulty=easy&difficulty=medium).
const OpIn = "$in"

// Criteria is a filter: field -> literal, or field -> operator map
// ({"$gte": 500}). All fields must match.
type Criteria map[string]any

// ParseFilter derives Criteria from params: reserved keys are dropped,
// comparison operators are rewritten to their "$" form and, when schema is
// non-nil, values are cast to the field's kind.
//
// The rewrite walks the parsed structure and only touches keys of a field's
// operator map. Field names and values are never rewritten, so a field called
// "gtex" or a value "gte" survive as they are. Operators outside gte, gt,
// lte and lt pass through unchanged.
func ParseFilter(params RawParameters, schema Schema) (Criteria, error) {
	obj := params.Clone()
	for _, key := range reservedParams {
		delete(obj, key)
	}

	out := make(Criteria, len(obj))
	for field, raw := range obj {
		v, err := filterValue(field, raw, schema)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

func filterValue(field string, raw any, schema Schema) (any, error) {
	switch v := raw.(type) {
	case string:
		return schema.Cast(field, v)
	case []string:
		list, err := castList(field, v, schema)
		if err != nil {
			return nil, err
		}
		return map[string]any{OpIn: list}, nil
	case map[string]any:
		ops := make(map[string]any, len(v))
		for token, operand := range v {
			op := token
			if rewritten, ok := comparisonOps[token]; ok {
				op = rewritten
			}
			val, err := operandValue(field, operand, schema)
			if err != nil {
				return nil, err
			}
			ops[op] = val
		}
		return ops, nil
	}
	return nil, invalid(field, raw, "unsupported value")
}

func operandValue(field string, operand any, schema Schema) (any, error) {
	switch v := operand.(type) {
	case string:
		return schema.Cast(field, v)
	case []string:
		return castList(field, v, schema)
	case map[string]any:
		// deeper nesting is handed to the storage engine untouched
		return v, nil
	}
	return nil, invalid(field, operand, "unsupported value")
}

func castList(field string, texts []string, schema Schema) ([]any, error) {
	out := make([]any, 0, len(texts))
	for _, t := range texts {
		v, err := schema.Cast(field, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
