/*
Package retry re-runs a fallible future until it succeeds, with delays
between attempts supplied by a backoff policy. The retrier is itself a
fallible future, so it can be driven by exec and raced against a stopper
with cancel.TryWith() to make the whole retry loop pre-emptible:

	race := cancel.TryWith[Row, struct{}](
		retry.New(backoff.NewExponentialBackOff(), mkQuery),
		futures.Infallible[struct{}](stop),
	)
	row, err := exec.RunTry(ctx, e, race)

Each attempt is built fresh by the constructor passed to New(), because a
completed future must not be polled again. Wrap an error with
backoff.Permanent() inside an attempt to stop retrying immediately.
*/
package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gostdlib/futures"
)

// New returns a fallible future that polls attempts built by mk until one
// succeeds. After a failed attempt, b decides how long to wait before the
// next one; if b returns backoff.Stop, the retrier completes with the last
// attempt's error. b is Reset() here, so a policy can be reused across
// retriers as long as they do not run concurrently.
func New[T any](b backoff.BackOff, mk func() futures.Fallible[T]) futures.Fallible[T] {
	b.Reset()
	return &retrier[T]{b: b, mk: mk}
}

type retrier[T any] struct {
	b  backoff.BackOff
	mk func() futures.Fallible[T]

	attempt futures.Fallible[T]
	delay   futures.Future[time.Duration]
}

// Poll implements futures.Fallible.
func (r *retrier[T]) Poll(w futures.Waker) (T, error, bool) {
	var zero T

	for {
		if r.delay != nil {
			if _, done := r.delay.Poll(w); !done {
				return zero, nil, false
			}
			r.delay = nil
		}

		if r.attempt == nil {
			r.attempt = r.mk()
		}

		v, err, done := r.attempt.Poll(w)
		if !done {
			return zero, nil, false
		}
		if err == nil {
			return v, nil, true
		}
		r.attempt = nil

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return zero, perm.Err, true
		}

		next := r.b.NextBackOff()
		if next == backoff.Stop {
			return zero, fmt.Errorf("retries exhausted: %w", err), true
		}
		if next > 0 {
			r.delay = futures.After(next)
		}
		// A zero backoff re-polls the fresh attempt this same turn.
	}
}
