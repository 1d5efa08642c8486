// Package usage records check outcomes per key and hour and answers range
// queries over them.
//
// Record increments the allowed or throttled counter of the current UTC hour.
// Counters live in the store for ratelimiter.UsageRetention after their last
// write, so Range refuses ranges longer than that window with
// ErrRangeTooLarge, and ranges that end before they start with
// ErrInvalidRange.
//
//	rec := usage.NewRecorder(store)
//	from, to := rec.DefaultRange(time.Time{}, time.Time{}) // the last 24 hours
//	series, err := rec.Range(ctx, key, from, to)
//	totals := usage.Summarize(series)
//
// Every hour of the range is present in the series, with zero counts for
// hours without traffic.
package usage
