package worker

import (
	"context"
	"fmt"
)

// Detach runs fn on its own goroutine with a context that is never canceled
// and waits for its result. If ctx ends first, Detach returns ctx.Err() and
// fn still runs to completion.
//
// Use it for multi-step sequences that must not stop halfway; the steps
// themselves still go through Do.
func Detach[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		var res result
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("detached job panicked: %v", r)
			}
			done <- res
		}()
		res.val, res.err = fn(context.WithoutCancel(ctx))
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
