package futures

import (
	"context"
	"errors"
	"testing"
	"time"
)

// wakeCh is a Waker used in tests. Wakes are coalesced, matching what a real
// driver does.
type wakeCh chan struct{}

func (w wakeCh) Wake() {
	select {
	case w <- struct{}{}:
	default:
	}
}

// drive polls f until it is done, sleeping on the waker in between. It fails
// the test if f does not finish within 5 seconds.
func drive[T any](t *testing.T, f Future[T]) T {
	t.Helper()

	w := make(wakeCh, 1)
	deadline := time.After(5 * time.Second)
	for {
		v, done := f.Poll(w)
		if done {
			return v
		}
		select {
		case <-w:
		case <-deadline:
			t.Fatalf("drive: future did not complete in time")
		}
	}
}

func driveFallible[T any](t *testing.T, f Fallible[T]) (T, error) {
	t.Helper()

	w := make(wakeCh, 1)
	deadline := time.After(5 * time.Second)
	for {
		v, err, done := f.Poll(w)
		if done {
			return v, err
		}
		select {
		case <-w:
		case <-deadline:
			t.Fatalf("driveFallible: future did not complete in time")
		}
	}
}

func TestReady(t *testing.T) {
	f := Ready(42)

	v, done := f.Poll(nil)
	if !done {
		t.Errorf("TestReady: expected done on first poll")
	}
	if v != 42 {
		t.Errorf("TestReady: got %d, want 42", v)
	}
}

func TestNever(t *testing.T) {
	f := Never[string]()

	for i := 0; i < 10; i++ {
		if _, done := f.Poll(nil); done {
			t.Fatalf("TestNever: poll %d reported done", i)
		}
	}
}

func TestErr(t *testing.T) {
	want := errors.New("boom")
	f := Err[int](want)

	_, err, done := f.Poll(nil)
	if !done {
		t.Errorf("TestErr: expected done on first poll")
	}
	if !errors.Is(err, want) {
		t.Errorf("TestErr: got err %v, want %v", err, want)
	}
}

func TestAfter(t *testing.T) {
	const d = 20 * time.Millisecond

	f := After(d)
	elapsed := drive[time.Duration](t, f)

	if elapsed < d {
		t.Errorf("TestAfter: elapsed %v, want >= %v", elapsed, d)
	}
}

func TestAfterNotArmedUntilPolled(t *testing.T) {
	f := After(time.Millisecond).(*timer)

	if f.armed.Load() {
		t.Errorf("TestAfterNotArmedUntilPolled: timer armed before first poll")
	}
	drive[time.Duration](t, f)
	if !f.armed.Load() {
		t.Errorf("TestAfterNotArmedUntilPolled: timer never armed")
	}
}

func TestRecv(t *testing.T) {
	ch := make(chan string, 1)
	f := Recv(ch)

	w := make(wakeCh, 1)
	if _, done := f.Poll(w); done {
		t.Fatalf("TestRecv: done before a value was sent")
	}

	ch <- "reason"
	got := drive[string](t, f)
	if got != "reason" {
		t.Errorf("TestRecv: got %q, want %q", got, "reason")
	}
}

func TestRecvClosedChannel(t *testing.T) {
	ch := make(chan int)
	close(ch)

	got := drive[int](t, Recv(ch))
	if got != 0 {
		t.Errorf("TestRecvClosedChannel: got %d, want zero value", got)
	}
}

func TestSignal(t *testing.T) {
	s := &Signal{}

	w := make(wakeCh, 1)
	if _, done := s.Poll(w); done {
		t.Fatalf("TestSignal: done before Fire()")
	}
	if s.Fired() {
		t.Fatalf("TestSignal: Fired() true before Fire()")
	}

	s.Fire()
	s.Fire() // idempotent

	select {
	case <-w:
	default:
		t.Errorf("TestSignal: Fire() did not wake the poller")
	}

	if _, done := s.Poll(w); !done {
		t.Errorf("TestSignal: not done after Fire()")
	}
}

func TestGo(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 7, nil
	})

	v, err := driveFallible[int](t, f)
	if err != nil {
		t.Fatalf("TestGo: unexpected error: %s", err)
	}
	if v != 7 {
		t.Errorf("TestGo: got %d, want 7", v)
	}
}

func TestGoError(t *testing.T) {
	want := errors.New("query failed")
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 0, want
	})

	_, err := driveFallible[int](t, f)
	if !errors.Is(err, want) {
		t.Errorf("TestGoError: got err %v, want %v", err, want)
	}
}

func TestGoNotStartedUntilPolled(t *testing.T) {
	ran := make(chan struct{})
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		close(ran)
		return 0, nil
	})

	select {
	case <-ran:
		t.Fatalf("TestGoNotStartedUntilPolled: fn ran before first poll")
	case <-time.After(20 * time.Millisecond):
	}

	driveFallible[int](t, f)
	<-ran
}

func TestInfallible(t *testing.T) {
	f := Infallible(Ready("hello"))

	v, err, done := f.Poll(nil)
	if !done || err != nil {
		t.Fatalf("TestInfallible: done=%v err=%v, want done, nil", done, err)
	}
	if v != "hello" {
		t.Errorf("TestInfallible: got %q, want %q", v, "hello")
	}
}
