/*
Package exec provides the Executor, a single-threaded cooperative driver for
futures. Spawned futures are polled on one goroutine, in the order their
wake-ups arrive. A future that returns not-done is simply set aside until
its Waker fires; the Executor never spins on it.

Because all polling happens on one goroutine, futures driven by an Executor
need no internal locking, and combinators such as cancel.With() keep their
"one poller at a time" contract for free.

Here is a basic example:

	e, err := exec.New("myprogram")
	if err != nil {
		// Handle error
	}
	defer e.Close()

	stop := &futures.Signal{}
	race := cancel.With[int, struct{}](someWork, stop)

	out, err := exec.Run(ctx, e, race)
	if err != nil {
		// Handle error
	}

Spawn() returns a Handle that can be waited on from any goroutine, in the
manner of a promise. Run() is Spawn() + Wait() and records OTEL span events
for the wait, including the task's id and elapsed time.

An Executor is registered under its name so that OTEL enabled applications
can enumerate executors and pull their Stats. Names must be globally unique;
if a name is taken, a unique one is derived from it.
*/
package exec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/gostdlib/futures"
	"github.com/gostdlib/futures/exec/internal/register"
	"github.com/gostdlib/internals/otel/span"
	"github.com/johnsiilver/calloptions"
	"go.opentelemetry.io/otel/codes"
)

// Executor drives spawned futures on a single goroutine. Create one with
// New() and release it with Close().
type Executor struct {
	name string

	mu     sync.Mutex
	wake   *sync.Cond
	runq   *queue.Queue
	closed bool

	loopDone chan struct{}
	onPanic  func(*PanicError)

	stats stats
}

// New creates a new Executor and starts its polling goroutine. "name" is
// used to register the Executor for stats gathering. These names must be
// globally unique; if not unique, a unique name will be created. If name is
// the empty string, the Executor is not registered. Names cannot contain
// spaces, hyphens, or numbers.
func New(name string, options ...Option) (*Executor, error) {
	if err := register.ValidateBaseName(name); err != nil {
		return nil, err
	}

	opts := execOptions{}
	if err := calloptions.ApplyOptions(&opts, options); err != nil {
		return nil, err
	}

	e := &Executor{
		name:     name,
		runq:     queue.New(),
		loopDone: make(chan struct{}),
		onPanic:  opts.onPanic,
	}
	e.wake = sync.NewCond(&e.mu)

	for {
		if err := register.Register(e); err != nil {
			e.name = register.NewName(e.name)
			continue
		}
		break
	}

	go e.loop()
	return e, nil
}

// Name returns the name the Executor was registered under.
func (e *Executor) Name() string {
	return e.name
}

// Stats returns a snapshot of the Executor's stats.
func (e *Executor) Stats() Stats {
	return e.stats.toStats()
}

// Close stops the Executor after the currently queued wake-ups drain.
// Futures that have not completed by then are abandoned: their Handles never
// become done, so any waiter should be using a Context with a deadline.
// Close unregisters the Executor.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.wake.Broadcast()
	e.mu.Unlock()

	<-e.loopDone
	register.Unregister(e)
}

// task is one spawned future. The poll closure erases the future's type so
// heterogeneous tasks can share the run queue.
type task struct {
	id    uuid.UUID
	poll  func(w futures.Waker) bool
	start time.Time

	mu     sync.Mutex
	queued bool
	// done is set once the future has completed or been abandoned after a
	// panic. A done task is never enqueued or polled again: sources such as
	// After() and Go() hold on to their last Waker, so stale wake-ups can
	// arrive long after the race that owned them was decided.
	done bool
}

// taskWaker re-enqueues its task. It is handed to the future on every poll,
// which is how wake registration propagates down through combinators.
type taskWaker struct {
	e *Executor
	t *task
}

// Wake implements futures.Waker.
func (w *taskWaker) Wake() {
	w.e.enqueue(w.t)
}

// enqueue adds t to the run queue unless it is already there or has
// completed.
func (e *Executor) enqueue(t *task) {
	t.mu.Lock()
	if t.queued || t.done {
		t.mu.Unlock()
		return
	}
	t.queued = true
	t.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.runq.Add(t)
	e.wake.Signal()
}

// loop is the Executor's single polling goroutine.
func (e *Executor) loop() {
	defer close(e.loopDone)

	for {
		e.mu.Lock()
		for e.runq.Length() == 0 && !e.closed {
			e.wake.Wait()
		}
		if e.runq.Length() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		t := e.runq.Remove().(*task)
		e.mu.Unlock()

		// Clear queued before polling: a Wake() that arrives while the
		// future is mid-poll must land it back on the queue. A wake that
		// raced with completion can still leave a done task on the queue;
		// drop it here.
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			continue
		}
		t.queued = false
		t.mu.Unlock()

		e.stats.polls.Add(1)
		e.poll(t)
	}
}

func (e *Executor) poll(t *task) {
	defer func() {
		if v := recover(); v != nil {
			if e.onPanic == nil {
				panic(v)
			}
			// The task is abandoned: retire it and account for it so
			// Stats.Running drains.
			p := &PanicError{Task: t.id, Value: v}
			t.mu.Lock()
			t.done = true
			t.mu.Unlock()
			e.stats.completed(time.Since(t.start), p)
			e.onPanic(p)
		}
	}()

	if t.poll(&taskWaker{e: e, t: t}) {
		t.mu.Lock()
		t.done = true
		t.mu.Unlock()
	}
}

// Handle is the caller's side of a spawned future. It is safe to share
// between goroutines.
type Handle[T any] struct {
	id   uuid.UUID
	done chan struct{}
	v    T
	err  error
}

// ID returns the task id the Executor assigned to this future. The id
// appears in Run()'s span events.
func (h *Handle[T]) ID() uuid.UUID {
	return h.id
}

// Done returns a channel that is closed when the future has completed.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the future completes or ctx is cancelled. Cancelling
// ctx abandons the wait only; the Executor keeps driving the future.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.v, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Spawn submits f to the Executor and returns a Handle for its result.
func Spawn[T any](e *Executor, f futures.Future[T]) *Handle[T] {
	h := &Handle[T]{id: uuid.New(), done: make(chan struct{})}

	t := &task{id: h.id, start: time.Now()}
	e.stats.spawned.Add(1)
	e.stats.running.Add(1)

	t.poll = func(w futures.Waker) bool {
		v, done := f.Poll(w)
		if done {
			h.v = v
			e.stats.completed(time.Since(t.start), nil)
			close(h.done)
		}
		return done
	}

	e.enqueue(t)
	return h
}

// SpawnTry submits a fallible future to the Executor. The future's error, if
// any, is surfaced by the Handle's Wait().
func SpawnTry[T any](e *Executor, f futures.Fallible[T]) *Handle[T] {
	h := &Handle[T]{id: uuid.New(), done: make(chan struct{})}

	t := &task{id: h.id, start: time.Now()}
	e.stats.spawned.Add(1)
	e.stats.running.Add(1)

	t.poll = func(w futures.Waker) bool {
		v, err, done := f.Poll(w)
		if done {
			h.v = v
			h.err = err
			e.stats.completed(time.Since(t.start), err)
			close(h.done)
		}
		return done
	}

	e.enqueue(t)
	return h
}

// Run spawns f on e and waits for its result. Span events are recorded on
// the current OTEL span, if one is recording.
func Run[T any](ctx context.Context, e *Executor, f futures.Future[T]) (T, error) {
	return runWait(ctx, e, Spawn(e, f))
}

// RunTry is Run() for fallible futures.
func RunTry[T any](ctx context.Context, e *Executor, f futures.Fallible[T]) (T, error) {
	return runWait(ctx, e, SpawnTry(e, f))
}

func runWait[T any](ctx context.Context, e *Executor, h *Handle[T]) (T, error) {
	now := time.Now()
	spanner := span.Get(ctx)

	if spanner.Span.IsRecording() {
		spanner.Event(
			"exec.Run() called",
			"executor", e.name,
			"task", h.id.String(),
		)
	}

	v, err := h.Wait(ctx)

	if spanner.Span.IsRecording() {
		spanner.Event(
			"exec.Run() done",
			"executor", e.name,
			"task", h.id.String(),
			"elapsed_ns", time.Since(now),
		)
		if err != nil {
			spanner.Status(codes.Error, err.Error())
			spanner.Error(err)
		}
	}
	return v, err
}

// PanicError is handed to the handler installed with WithPanicHandler()
// when a future panics during a poll.
type PanicError struct {
	// Task is the id of the task that panicked.
	Task uuid.UUID
	// Value is the value the future panicked with.
	Value any
}

// Error implements error.
func (p *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", p.Task, p.Value)
}
