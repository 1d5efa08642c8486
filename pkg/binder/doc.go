// Package binder decodes HTTP request data into Go structs.
//
// Three binders are provided. Each returns a func(r *http.Request, v any) error
// and processes only its own data source:
//
//   - JSON(): decodes the request body. Bodies over DefaultMaxJSONSize are
//     rejected, trailing data after the object is rejected.
//   - Query(): binds URL query parameters using `query:` struct tags.
//   - Path(extractor): binds path parameters using `path:` struct tags and a
//     router-specific extractor such as chi.URLParam.
//
// Scalar fields, pointers to scalars, slices (repeated or comma separated
// values) and time.Time (RFC 3339 or Unix seconds) are supported by the query
// and path binders. Absent parameters leave the field untouched, so defaults
// can be set before binding.
//
// # Usage
//
//	type UsageQuery struct {
//	    Key  string    `path:"key"`
//	    From time.Time `query:"from"`
//	    To   time.Time `query:"to"`
//	}
//
//	var q UsageQuery
//	if err := binder.Path(chi.URLParam)(r, &q); err != nil { ... }
//	if err := binder.Query()(r, &q); err != nil { ... }
//
// # Errors
//
// Every failure wraps one of ErrUnsupportedMediaType, ErrFailedToParseJSON,
// ErrFailedToParseQuery or ErrFailedToParsePath.
package binder
