package futures

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Ready returns a Future that is done with v on the first poll.
func Ready[T any](v T) Future[T] {
	return Func[T](func(Waker) (T, bool) { return v, true })
}

// Never returns a Future that is never done. It registers no wake-ups.
func Never[T any]() Future[T] {
	return Func[T](func(Waker) (T, bool) {
		var zero T
		return zero, false
	})
}

// Err returns a Fallible that fails with err on the first poll.
func Err[T any](err error) Fallible[T] {
	return FallibleFunc[T](func(Waker) (T, error, bool) {
		var zero T
		return zero, err, true
	})
}

// wakeCell holds the most recent Waker a source has seen. Sources complete
// from background goroutines (timers, channel receives), so the handoff is
// guarded with a mutex.
type wakeCell struct {
	mu sync.Mutex
	w  Waker
}

func (c *wakeCell) set(w Waker) {
	c.mu.Lock()
	c.w = w
	c.mu.Unlock()
}

func (c *wakeCell) wake() {
	c.mu.Lock()
	w := c.w
	c.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// After returns a Future that is done once d has elapsed. The value is the
// time actually elapsed, measured from the first poll. The timer is not
// armed until the Future is polled for the first time.
func After(d time.Duration) Future[time.Duration] {
	return &timer{d: d}
}

type timer struct {
	d     time.Duration
	cell  wakeCell
	armed atomic.Bool
	fired atomic.Bool
	start time.Time
}

func (t *timer) Poll(w Waker) (time.Duration, bool) {
	t.cell.set(w)

	if t.armed.CompareAndSwap(false, true) {
		t.start = time.Now()
		time.AfterFunc(t.d, func() {
			t.fired.Store(true)
			t.cell.wake()
		})
	}

	if t.fired.Load() {
		return time.Since(t.start), true
	}
	return 0, false
}

// Recv returns a Future that is done with the first value received on ch.
// A receiving goroutine is started on the first poll. If ch is closed before
// a value arrives, the Future completes with the zero value of T.
func Recv[T any](ch <-chan T) Future[T] {
	return &recv[T]{ch: ch}
}

type recv[T any] struct {
	ch      <-chan T
	cell    wakeCell
	started atomic.Bool
	done    atomic.Bool
	v       T
}

func (r *recv[T]) Poll(w Waker) (T, bool) {
	r.cell.set(w)

	if r.started.CompareAndSwap(false, true) {
		go func() {
			v, ok := <-r.ch
			if ok {
				r.v = v
			}
			r.done.Store(true)
			r.cell.wake()
		}()
	}

	if r.done.Load() {
		return r.v, true
	}
	var zero T
	return zero, false
}

// Signal is a manually fired trigger that implements Future[struct{}]. It is
// the conventional stopper for the cancel package: hand the Signal to
// cancel.With() and call Fire() when the primary should be pre-empted.
// The zero value is ready to use. Fire() is safe to call from any goroutine
// and is idempotent.
type Signal struct {
	mu    sync.Mutex
	fired bool
	w     Waker
}

// Fired reports whether Fire() has been called.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Fire trips the Signal and wakes the last poller, if any.
func (s *Signal) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	w := s.w
	s.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// Poll implements Future[struct{}].
func (s *Signal) Poll(w Waker) (struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w = w
	return struct{}{}, s.fired
}

// Go runs fn on its own goroutine and returns a Fallible that completes with
// fn's result. The goroutine is not started until the first poll. This is
// the bridge from ordinary blocking Go code into the polling world: wrap a
// network call or database query with Go() and it can be raced against a
// stopper with cancel.TryWith(). Note that firing the stopper does not stop
// fn; it keeps running to completion unobserved.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) Fallible[T] {
	return &spawned[T]{ctx: ctx, fn: fn}
}

type spawned[T any] struct {
	ctx     context.Context
	fn      func(context.Context) (T, error)
	cell    wakeCell
	started atomic.Bool
	done    atomic.Bool
	v       T
	err     error
}

func (s *spawned[T]) Poll(w Waker) (T, error, bool) {
	s.cell.set(w)

	if s.started.CompareAndSwap(false, true) {
		go func() {
			s.v, s.err = s.fn(s.ctx)
			s.done.Store(true)
			s.cell.wake()
		}()
	}

	if s.done.Load() {
		return s.v, s.err, true
	}
	var zero T
	return zero, nil, false
}
