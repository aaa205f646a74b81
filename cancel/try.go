package cancel

import (
	"errors"
	"fmt"

	"github.com/gostdlib/futures"
)

// Try races a fallible primary against a fallible stopper. It implements
// futures.Fallible[T]: the race completes with the primary's value, with the
// primary's error, or with a *Stopped[S] error when the stopper fires first.
// Create one with TryWith(), TryWithFunc() or TryOn().
//
// A stopper that fails is retired permanently: it is never polled again and
// its failure is not surfaced. From that point the race forwards the
// primary's status alone.
type Try[T, S any] struct {
	primary futures.Fallible[T]
	// stopper is nil once the stopper has failed and been retired.
	stopper futures.Fallible[S]
}

// TryWith pairs a fallible primary with a fallible stopper and returns the
// race. Use futures.Infallible() to supply a plain Future on either side.
func TryWith[T, S any](primary futures.Fallible[T], stopper futures.Fallible[S]) *Try[T, S] {
	return &Try[T, S]{primary: primary, stopper: stopper}
}

// TryWithFunc is like TryWith(), but the stopper is built lazily by mk,
// invoked exactly once at attachment time.
func TryWithFunc[T, S any](primary futures.Fallible[T], mk func() futures.Fallible[S]) *Try[T, S] {
	return TryWith(primary, mk())
}

// Poll implements futures.Fallible. Each call makes at most one attempt to
// advance each side, primary first.
func (c *Try[T, S]) Poll(w futures.Waker) (T, error, bool) {
	var zero T

	// The primary is always polled first. Success returns immediately: a
	// primary that finishes on the same poll as the stopper is never
	// reported as cancelled. A failure is held until the stopper has been
	// consulted, because a cancellation landing on the same poll pre-empts
	// the failure.
	v, perr, pdone := c.primary.Poll(w)
	if pdone && perr == nil {
		return v, nil, true
	}

	if c.stopper != nil {
		s, serr, sdone := c.stopper.Poll(w)
		if sdone {
			if serr == nil {
				return zero, &Stopped[S]{Value: s}, true
			}
			// The stopper can never fire now. Retire it so it is not
			// polled again.
			c.stopper = nil
		}
	}

	if pdone {
		return zero, perr, true
	}
	return zero, nil, false
}

// TryOn begins fluent attachment of a stopper to a fallible primary, in the
// manner of On().
func TryOn[T, S any](primary futures.Fallible[T]) TryAttach[T, S] {
	return TryAttach[T, S]{primary: primary}
}

// TryAttach is the intermediate value returned by TryOn().
type TryAttach[T, S any] struct {
	primary futures.Fallible[T]
}

// With supplies the stopper and returns the race.
func (a TryAttach[T, S]) With(stopper futures.Fallible[S]) *Try[T, S] {
	return TryWith(a.primary, stopper)
}

// WithFunc supplies a stopper producer, invoked exactly once, and returns
// the race.
func (a TryAttach[T, S]) WithFunc(mk func() futures.Fallible[S]) *Try[T, S] {
	return TryWithFunc(a.primary, mk)
}

// Stopped is the error a Try race completes with when the stopper fires
// before the primary finishes. Value is the stopper's own output, so the
// caller can inspect why or by whom the primary was pre-empted.
//
// Cancellation is not a failure of the primary; it is a first-class outcome
// that happens to travel on the error channel. Use IsStopped() or
// StoppedValue() to tell it apart from a real primary error.
type Stopped[S any] struct {
	// Value is the stopper's output.
	Value S
}

// Error implements error.
func (s *Stopped[S]) Error() string {
	return fmt.Sprintf("cancelled by stopper: %v", s.Value)
}

// stopped lets IsStopped() match a *Stopped[S] without knowing S.
type stopped interface {
	isStopped()
}

func (*Stopped[S]) isStopped() {}

// IsStopped reports whether err means the primary was cancelled by a
// stopper, regardless of the stopper's output type.
func IsStopped(err error) bool {
	var s stopped
	return errors.As(err, &s)
}

// StoppedValue returns the stopper output carried by err. ok is false if
// err does not represent cancellation by a stopper with output type S.
func StoppedValue[S any](err error) (v S, ok bool) {
	var s *Stopped[S]
	if errors.As(err, &s) {
		return s.Value, true
	}
	var zero S
	return zero, false
}
