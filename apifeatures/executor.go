package apifeatures

import "context"

// Record is one stored document as returned by an executor.
type Record = map[string]any

// Executor is a composable query that has not run yet. Every narrowing
// method returns a new Executor and leaves the receiver untouched; only
// Execute talks to storage.
type Executor interface {
	// Where ANDs c with any filter already present. Empty criteria match all.
	Where(c Criteria) Executor
	OrderBy(s SortSpec) Executor
	Select(p Projection) Executor
	Window(skip, limit int64) Executor
	Execute(ctx context.Context) ([]Record, error)
}

// Counter is implemented by executors that can count the records matching
// their filter, ignoring ordering, projection and window.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}
