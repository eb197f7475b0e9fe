// Package apifeatures turns a request's query string into a refined, not yet
// executed database query.
//
// A list endpoint builds one Features value per request and runs the four
// steps in their canonical order:
//
//	q, err := apifeatures.New(coll.Find(), params).
//		Filter().
//		Sort().
//		LimitFields().
//		Paginate().
//		Query()
//
// or, equivalently, apifeatures.Apply(coll.Find(), params).
//
// Every step returns a new Features value. The wrapped Executor is never run
// here: the caller executes the returned Executor against its storage engine.
//
// Query string conventions:
//
//	?difficulty=easy&price[gte]=500     filter, operators gte gt lte lt
//	?sort=-ratingsAverage,price          sort, "-" for descending
//	?fields=name,price                   projection
//	?page=2&limit=10                     pagination
//
// The keys page, sort, limit and fields are reserved and never filter on a
// field of the same name.
package apifeatures
