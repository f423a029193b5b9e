package objstore

// Future is the pending result of an operation started with Go
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on its own goroutine and returns a Future for its result
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// GoErr is Go for operations that only return an error
func GoErr(fn func() error) *Future[struct{}] {
	return Go(func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// Wait blocks until the operation finishes and returns its result
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Then calls cb exactly once with the result. cb always runs on a new
// goroutine, never on the caller's, even when the future has already resolved.
func (f *Future[T]) Then(cb func(T, error)) {
	go func() {
		cb(f.Wait())
	}()
}
