package apifeatures

import "fmt"

// ClientQueryError reports query-string input that cannot be turned into a
// query. Callers map it to a 400 response; it is never retried.
type ClientQueryError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ClientQueryError) Error() string {
	msg := fmt.Sprintf("Invalid %s: %v", e.Param, e.Value)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func invalid(param string, value any, reason string) *ClientQueryError {
	return &ClientQueryError{Param: param, Value: value, Reason: reason}
}
