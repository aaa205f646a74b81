// Debouncing built from nothing but the race: each work item is raced
// against a stopper that the *next* item fires. Items that arrive in quick
// succession cancel their predecessor, so only items with no close successor
// get to finish. Run it and compare the two lists it prints.
package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/gostdlib/futures"
	"github.com/gostdlib/futures/cancel"
	"github.com/gostdlib/futures/exec"
)

const (
	items   = 20
	workFor = 30 * time.Millisecond
	spacing = 20 * time.Millisecond
)

func main() {
	ctx := context.Background()

	e, err := exec.New("debounce")
	if err != nil {
		log.Fatalf("cannot create an executor: %s", err)
	}
	defer e.Close()

	type result struct {
		item      int
		cancelled bool
	}

	results := make(chan result, items)

	var prev *futures.Signal
	for i := 0; i < items; i++ {
		// Cancel the previous item: its stopper is this item's arrival.
		if prev != nil {
			prev.Fire()
		}

		stop := &futures.Signal{}
		prev = stop

		// Simulate the item's work with a timer; the value is the item
		// number.
		work := cancel.On[int, struct{}](simulate(i)).With(stop)

		i := i
		h := exec.Spawn[cancel.Outcome[int, struct{}]](e, work)
		go func() {
			out, err := h.Wait(ctx)
			if err != nil {
				log.Fatalf("wait failed: %s", err)
			}
			results <- result{item: i, cancelled: out.IsCancelled()}
		}()

		// Space the items out so the last one has time to finish.
		time.Sleep(spacing)
	}

	var finished, cancelled []int
	for i := 0; i < items; i++ {
		r := <-results
		if r.cancelled {
			cancelled = append(cancelled, r.item)
		} else {
			finished = append(finished, r.item)
		}
	}
	sort.Ints(finished)
	sort.Ints(cancelled)

	fmt.Println("Finished: ", finished)
	fmt.Println("Cancelled: ", cancelled)
}

// simulate returns a future that takes workFor to produce i.
func simulate(i int) futures.Future[int] {
	delay := futures.After(workFor)
	return futures.Func[int](func(w futures.Waker) (int, bool) {
		if _, done := delay.Poll(w); !done {
			return 0, false
		}
		return i, true
	})
}
