// Package async runs calls in goroutines and collects their results.
//
// Async starts one call and returns a Future; Await blocks for it. Map fans a slice of inputs out to
// a bounded number of concurrent calls and keeps each outcome next to its
// input, so callers can drop or report individual failures:
//
//	results := async.Map(ctx, keys, 16, store.GetConfigFields)
//	for _, r := range results {
//	    if r.Err != nil {
//	        continue
//	    }
//	    use(r.Param, r.Value)
//	}
//
// A call whose context is already done when its turn comes is never run and
// reports ctx.Err().
package async
