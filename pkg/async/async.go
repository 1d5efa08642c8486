package async

import (
	"context"
	"sync"
)

// Future is the eventual result of a call started by Async.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the call completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Async runs fn(ctx, param) in its own goroutine. When ctx is already done
// fn is not called and the future completes with ctx.Err().
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Result pairs the outcome of one Map call with its input.
type Result[T, U any] struct {
	Param T
	Value U
	Err   error
}

// Map calls fn once per param with at most limit calls in flight, and
// returns every outcome in input order. A limit of zero or less runs all
// calls at once. Calls not yet started when ctx is done report ctx.Err().
func Map[T, U any](ctx context.Context, params []T, limit int, fn func(context.Context, T) (U, error)) []Result[T, U] {
	if limit <= 0 || limit > len(params) {
		limit = len(params)
	}

	results := make([]Result[T, U], len(params))
	sem := make(chan struct{}, max(limit, 1))
	var wg sync.WaitGroup

	for i, p := range params {
		results[i].Param = p
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, p T) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i].Value, results[i].Err = Async(ctx, p, fn).Await()
		}(i, p)
	}

	wg.Wait()
	return results
}
