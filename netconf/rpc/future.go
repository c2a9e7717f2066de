package rpc

import (
	"context"
	"sync"
)

// Future holds the eventual outcome of an asynchronous operation. The first call to Complete wins,
// subsequent calls are ignored.
type Future[T any] struct {
	done      chan struct{}
	mu        sync.Mutex
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// NewFuture delivers a new, incomplete future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed delivers a future that has already completed with v and err.
func Completed[T any](v T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Complete(v, err)
	return f
}

// Complete sets the outcome of the future, returning false if it had already completed.
// Registered callbacks are run on the calling goroutine.
func (f *Future[T]) Complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value, f.err = v, err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(v, err)
	}
	return true
}

// Done delivers a channel that is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the future to complete, or for ctx to be done.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers cb to be called when the future completes. If it has already completed,
// cb is called immediately. Callbacks must not block: they may run on the goroutine completing
// the future.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Transform delivers a future completed with the result of applying fn to the outcome of f.
func Transform[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	out := NewFuture[U]()
	f.OnComplete(func(v T, err error) {
		out.Complete(fn(v, err))
	})
	return out
}
