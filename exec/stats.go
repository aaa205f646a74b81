package exec

import (
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json"
)

// Stats are the stats for an Executor.
type Stats struct {
	// Spawned is the number of futures handed to the Executor.
	Spawned int64
	// Running is the number of spawned futures that have not completed.
	Running int64
	// Completed is the number of futures that completed without error.
	Completed int64
	// Failed is the number of futures that completed with an error.
	Failed int64
	// Polls is the total number of poll turns the Executor has run.
	Polls int64

	// Min is the minimum time from spawn to completion.
	Min time.Duration
	// Avg is the avg time from spawn to completion.
	Avg time.Duration
	// Max is the maximum time from spawn to completion.
	Max time.Duration
}

// String implements fmt.Stringer, rendering the Stats as JSON.
func (s Stats) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

// stats is used to atomically calculate our Executor stats.
type stats struct {
	spawned  atomic.Int64
	running  atomic.Int64
	success  atomic.Int64
	failed   atomic.Int64
	polls    atomic.Int64
	min      atomic.Int64
	max      atomic.Int64
	avgTotal atomic.Int64
}

// completed records a task completion.
func (s *stats) completed(elapsed time.Duration, err error) {
	s.running.Add(-1)
	if err != nil {
		s.failed.Add(1)
	} else {
		s.success.Add(1)
	}
	s.avgTotal.Add(int64(elapsed))
	setMin(&s.min, int64(elapsed))
	setMax(&s.max, int64(elapsed))
}

func (s *stats) toStats() Stats {
	stats := Stats{
		Spawned:   s.spawned.Load(),
		Running:   s.running.Load(),
		Completed: s.success.Load(),
		Failed:    s.failed.Load(),
		Polls:     s.polls.Load(),
		Min:       time.Duration(s.min.Load()),
		Max:       time.Duration(s.max.Load()),
	}
	if done := stats.Completed + stats.Failed; done != 0 {
		stats.Avg = time.Duration(s.avgTotal.Load() / done)
	}
	return stats
}

func setMin(ptr *atomic.Int64, v int64) {
	for {
		existing := ptr.Load()
		if existing != 0 && existing <= v {
			return
		}
		if ptr.CompareAndSwap(existing, v) {
			return
		}
	}
}

func setMax(ptr *atomic.Int64, v int64) {
	for {
		existing := ptr.Load()
		if existing >= v {
			return
		}
		if ptr.CompareAndSwap(existing, v) {
			return
		}
	}
}
