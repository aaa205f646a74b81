/*
Package cancel races a primary future against a "stopper": a second future
whose completion means "the primary's caller no longer wants the result".
The race itself is a future, so it composes with everything else in the
module. The primary needs no cancellation support of its own; the combinator
simply stops forwarding poll attention once the stopper has won.

The rules of the race are small but strict:

  - The primary is always polled first. A primary that completes on the same
    poll as the stopper wins; its success is never reported as cancellation.
  - If the stopper completes first, the race reports cancellation carrying
    the stopper's own output, so the caller can see why it was pre-empted.
  - In the fallible variant, a primary failure is held until the stopper has
    been consulted that same poll: a cancellation that lands together with
    the failure pre-empts it. This matters when the primary fails *because*
    it was interrupted; the caller should see "cancelled", not the error.
  - A stopper that itself fails is retired. From then on the race simply
    forwards the primary's status; cancellation is no longer possible.

Here is a basic example that gives up on a slow computation:

	stop := &futures.Signal{}
	time.AfterFunc(time.Second, stop.Fire)

	race := cancel.With[int, struct{}](slowComputation, stop)

	out, err := exec.Run(ctx, e, race)
	if err != nil {
		// Handle error
	}
	if v, ok := out.Finished(); ok {
		fmt.Println("finished with ", v)
	} else {
		fmt.Println("gave up after a second")
	}

The combinator owns both futures for its lifetime. Nothing else may poll
them while the race exists, and the race must not be polled again after it
reports done.
*/
package cancel

import (
	"github.com/gostdlib/futures"
)

// Cancellable races a primary future against a stopper. It implements
// futures.Future[Outcome[T, S]], where T is the primary's output type and S
// is the stopper's. Create one with With(), WithFunc() or On().
type Cancellable[T, S any] struct {
	primary futures.Future[T]
	stopper futures.Future[S]
}

// With pairs primary with stopper and returns the race. The primary's
// completion always takes priority over the stopper's.
func With[T, S any](primary futures.Future[T], stopper futures.Future[S]) *Cancellable[T, S] {
	return &Cancellable[T, S]{primary: primary, stopper: stopper}
}

// WithFunc is like With(), but the stopper is built lazily by mk, which is
// invoked exactly once, here at attachment time. This is useful when
// constructing the stopper has side effects, such as capturing a handle,
// that should not happen until the race is actually being assembled.
func WithFunc[T, S any](primary futures.Future[T], mk func() futures.Future[S]) *Cancellable[T, S] {
	return With(primary, mk())
}

// Poll implements futures.Future. Each call makes at most one attempt to
// advance each side, primary first.
func (c *Cancellable[T, S]) Poll(w futures.Waker) (Outcome[T, S], bool) {
	// The primary is always polled first and returns immediately on
	// completion. A primary that finishes on the same poll as the stopper
	// must never be reported as cancelled.
	if v, done := c.primary.Poll(w); done {
		return Finished[T, S](v), true
	}

	if s, done := c.stopper.Poll(w); done {
		return Cancelled[T, S](s), true
	}

	return Outcome[T, S]{}, false
}

// On begins fluent attachment of a stopper to primary:
//
//	race := cancel.On[int, string](f).With(stopper)
//
// This is the same as With(); the builder exists only for call sites that
// read better left to right. Both type parameters must be named up front
// because Go methods cannot introduce new ones.
func On[T, S any](primary futures.Future[T]) Attach[T, S] {
	return Attach[T, S]{primary: primary}
}

// Attach is the intermediate value returned by On(). It holds the primary
// until a stopper is supplied.
type Attach[T, S any] struct {
	primary futures.Future[T]
}

// With supplies the stopper and returns the race.
func (a Attach[T, S]) With(stopper futures.Future[S]) *Cancellable[T, S] {
	return With(a.primary, stopper)
}

// WithFunc supplies a stopper producer, invoked exactly once, and returns
// the race.
func (a Attach[T, S]) WithFunc(mk func() futures.Future[S]) *Cancellable[T, S] {
	return WithFunc(a.primary, mk)
}
