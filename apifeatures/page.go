package apifeatures

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 100
)

// Page is a window over the filtered, sorted result.
type Page struct {
	Number int64
	Limit  int64
}

// Skip is the number of records before the page. It saturates at the
// int64 bounds instead of wrapping.
func (p Page) Skip() int64 {
	n, l := p.Number-1, p.Limit
	if n == 0 || l == 0 {
		return 0
	}
	skip := n * l
	overflow := skip/l != n ||
		(n == -1 && l == math.MinInt64) || (l == -1 && n == math.MinInt64)
	if !overflow {
		return skip
	}
	if (n < 0) != (l < 0) {
		return math.MinInt64
	}
	return math.MaxInt64
}

// ParsePage reads page and limit. Numbers are truncated toward zero; absent,
// empty or zero values fall back to the defaults. Negative values are passed
// through to the storage engine unchanged.
func ParsePage(params RawParameters) (Page, error) {
	number, err := pageNumber(params, ParamPage, DefaultPage)
	if err != nil {
		return Page{}, err
	}
	limit, err := pageNumber(params, ParamLimit, DefaultLimit)
	if err != nil {
		return Page{}, err
	}
	return Page{Number: number, Limit: limit}, nil
}

func pageNumber(params RawParameters, key string, def int64) (int64, error) {
	raw, present := params[key]
	if !present {
		return def, nil
	}
	if _, isMap := raw.(map[string]any); isMap {
		return 0, invalid(key, raw, "expected a number")
	}
	text, ok := params.Get(key)
	if !ok {
		return 0, invalid(key, raw, "expected a number")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(key, text, "expected a number")
	}
	n := clampInt64(f)
	if n == 0 {
		return def, nil
	}
	return n, nil
}

// clampInt64 truncates f toward zero, limited to ±math.MaxInt64.
func clampInt64(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= -math.MaxInt64:
		return -math.MaxInt64
	}
	return int64(f)
}
