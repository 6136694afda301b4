package sleepy

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/sleepy/errors"
)

// Future is the pending result of an operation started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine and returns a Future for its result.
// A nil fn fails with INVALID_ARGUMENT and nothing is started.
//
//	f, _ := sleepy.Go(ctx, func(ctx context.Context) (*sleepy.CursorResult, error) {
//	    return client.Find(ctx, "db", "coll", nil)
//	})
//	res, err := f.Wait(ctx)
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, errors.InvalidArgument("fn", "must be a non-nil function")
	}
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f, nil
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done. A passed
// deadline yields a TIMEOUT error; the operation itself keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, errors.Timeout("wait").WithCause(ctx.Err())
		}
		return zero, ctx.Err()
	}
}

// Then calls cb with the result on its own goroutine once it is available.
// A nil cb fails with INVALID_ARGUMENT.
func (f *Future[T]) Then(cb func(T, error)) error {
	if cb == nil {
		return errors.InvalidArgument("callback", "must be a non-nil function")
	}
	go func() {
		<-f.done
		cb(f.val, f.err)
	}()
	return nil
}
