package apifeatures

// Features accumulates the query for one request. It is a value: each step
// returns an updated copy and the receiver is left as it was.
//
// The first step that fails records a *ClientQueryError; later steps are
// skipped and Query returns the error.
type Features struct {
	query  Executor
	params RawParameters
	schema Schema
	err    error
}

// Option configures a Features value.
type Option func(*Features)

// WithSchema casts filter values to the kinds in s.
func WithSchema(s Schema) Option {
	return func(f *Features) { f.schema = s }
}

// New wraps query and the request's parameters. It has no side effects.
func New(query Executor, params RawParameters, opts ...Option) Features {
	f := Features{query: query, params: params}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Filter narrows the query to records matching the non-reserved parameters.
func (f Features) Filter() Features {
	if f.err != nil {
		return f
	}
	criteria, err := ParseFilter(f.params, f.schema)
	if err != nil {
		f.err = err
		return f
	}
	if len(criteria) > 0 {
		f.query = f.query.Where(criteria)
	}
	return f
}

// Sort orders the query by the sort parameter, newest first by default.
func (f Features) Sort() Features {
	if f.err != nil {
		return f
	}
	spec, err := ParseSort(f.params)
	if err != nil {
		f.err = err
		return f
	}
	f.query = f.query.OrderBy(spec)
	return f
}

// LimitFields applies the fields projection, hiding the version field by
// default.
func (f Features) LimitFields() Features {
	if f.err != nil {
		return f
	}
	p, err := ParseProjection(f.params)
	if err != nil {
		f.err = err
		return f
	}
	f.query = f.query.Select(p)
	return f
}

// Paginate windows the query. A page past the end yields no records, not an
// error.
func (f Features) Paginate() Features {
	if f.err != nil {
		return f
	}
	page, err := ParsePage(f.params)
	if err != nil {
		f.err = err
		return f
	}
	f.query = f.query.Window(page.Skip(), page.Limit)
	return f
}

// Query returns the refined executor, or the first error of the chain.
func (f Features) Query() (Executor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.query, nil
}

// Apply runs filter, sort, field limiting and pagination in that order.
func Apply(query Executor, params RawParameters, opts ...Option) (Executor, error) {
	return New(query, params, opts...).
		Filter().
		Sort().
		LimitFields().
		Paginate().
		Query()
}
