package cancel_test

import (
	"fmt"

	"github.com/gostdlib/futures"
	"github.com/gostdlib/futures/cancel"
)

func ExampleWith() {
	// A stopper that has already fired: the primary never gets to finish.
	stop := &futures.Signal{}
	stop.Fire()

	race := cancel.With[int, struct{}](futures.Never[int](), stop)

	out, done := race.Poll(futures.WakerFunc(func() {}))
	fmt.Println(done, out.IsCancelled())
	// Output:
	// true true
}

func ExampleWith_primaryWins() {
	// The primary is ready immediately, so even a fired stopper loses.
	stop := &futures.Signal{}
	stop.Fire()

	race := cancel.With[int, struct{}](futures.Ready(42), stop)

	out, _ := race.Poll(futures.WakerFunc(func() {}))
	v, _ := out.Finished()
	fmt.Println(v)
	// Output:
	// 42
}

func ExampleOn() {
	race := cancel.On[string, struct{}](futures.Ready("hello")).WithFunc(
		func() futures.Future[struct{}] {
			// Built exactly once, when the race is assembled.
			return &futures.Signal{}
		},
	)

	out, _ := race.Poll(futures.WakerFunc(func() {}))
	v, _ := out.Finished()
	fmt.Println(v)
	// Output:
	// hello
}

func ExampleTryWith() {
	stop := &futures.Signal{}
	stop.Fire()

	race := cancel.TryWith[int, struct{}](
		futures.Infallible(futures.Never[int]()),
		futures.Infallible[struct{}](stop),
	)

	_, err, _ := race.Poll(futures.WakerFunc(func() {}))
	fmt.Println(cancel.IsStopped(err))
	// Output:
	// true
}
