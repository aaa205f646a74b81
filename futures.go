/*
Package futures provides poll-driven asynchronous operations. A Future is a
unit of work that is advanced by repeated, non-blocking Poll() calls made by
some driver (usually an Executor from the exec sub-package, but a plain loop
in a test works just as well). A Future is never run on its own goroutine by
this package; it only makes progress when polled.

The payoff of the polling model is composition: combinators can own several
Futures and decide which result to surface without any locking, because only
one poller at a time touches the combinator. The cancel sub-package uses this
to race a primary Future against a "stopper".

Here is a basic example using the exec package as a driver:

	e, err := exec.New("myprogram")
	if err != nil {
		// Handle error
	}
	defer e.Close()

	f := futures.After(100 * time.Millisecond)

	elapsed, err := exec.Run(ctx, e, f)
	if err != nil {
		// Handle error
	}
	fmt.Println("slept for ", elapsed)

There are two polling contracts. Future[T] reports "not done" or "done with a
value". Fallible[T] adds a separate error channel, for work that can fail:
done with a value or done with an error. Both are pull-based and neither may
block inside Poll().

Wake-ups travel through the Waker passed to every Poll() call. A Future that
cannot finish yet should hold on to the most recent Waker and call Wake()
(from any goroutine) once it might be able to advance. A driver must treat
Wake() as "poll me again soon"; spurious wakes are allowed.
*/
package futures

// Waker is supplied by whatever is driving a Future. A Future that returns
// not-done should retain the most recent Waker it has seen and call Wake()
// when it may be able to make progress. Wake() may be called from any
// goroutine and must be safe to call after the Future has completed.
type Waker interface {
	// Wake signals the driver that the Future should be polled again.
	Wake()
}

// WakerFunc adapts a plain function to the Waker interface.
type WakerFunc func()

// Wake implements Waker.
func (w WakerFunc) Wake() { w() }

// Future is a unit of asynchronous work. Poll() makes a single, non-blocking
// attempt to advance the work. If the work is complete, it returns the value
// and done == true. Once done has been returned, the Future must not be
// polled again; what happens if it is polled again is implementation defined.
//
// Poll() is not safe for concurrent use. The driver is responsible for
// making sure only one goroutine polls a Future at a time.
type Future[T any] interface {
	Poll(w Waker) (v T, done bool)
}

// Fallible is a unit of asynchronous work that can fail. It follows the same
// contract as Future, except that completion carries either a value or an
// error. err is only meaningful when done == true.
type Fallible[T any] interface {
	Poll(w Waker) (v T, err error, done bool)
}

// Func adapts an ordinary function to the Future interface.
type Func[T any] func(w Waker) (T, bool)

// Poll implements Future.
func (f Func[T]) Poll(w Waker) (T, bool) { return f(w) }

// FallibleFunc adapts an ordinary function to the Fallible interface.
type FallibleFunc[T any] func(w Waker) (T, error, bool)

// Poll implements Fallible.
func (f FallibleFunc[T]) Poll(w Waker) (T, error, bool) { return f(w) }

// Infallible converts a Future into a Fallible that never fails. This lets
// plain Futures be used anywhere a Fallible is required, such as the stopper
// side of cancel.TryWith().
func Infallible[T any](f Future[T]) Fallible[T] {
	return FallibleFunc[T](func(w Waker) (T, error, bool) {
		v, done := f.Poll(w)
		return v, nil, done
	})
}
