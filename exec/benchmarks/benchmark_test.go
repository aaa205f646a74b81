// Package benchmarks compares driving blocking work through an Executor
// against handing the same work to goroutine pools directly. The Executor is
// not a pool; these numbers show the cost of the polling indirection when
// futures.Go() is used as a bridge for blocking work.
package benchmarks

import (
	"context"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"runtime"
	"sync"
	"testing"

	"github.com/Jeffail/tunny"
	"github.com/johnsiilver/pools/goroutines/limited"
	"github.com/johnsiilver/pools/goroutines/pooled"

	"github.com/gostdlib/futures"
	"github.com/gostdlib/futures/exec"
)

var num = 10000
var limit = runtime.NumCPU()

func BenchmarkExecutor(b *testing.B) {
	b.ReportAllocs()

	e, err := exec.New("")
	if err != nil {
		panic(err)
	}
	defer e.Close()

	answer := make([]curveData, num)
	ctx := context.Background()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		handles := make([]*exec.Handle[curveData], num)
		for i := 0; i < num; i++ {
			handles[i] = exec.SpawnTry(
				e,
				futures.Go(
					ctx,
					func(ctx context.Context) (curveData, error) {
						return curve(ctx), nil
					},
				),
			)
		}
		for i, h := range handles {
			answer[i], _ = h.Wait(ctx)
		}
	}
	b.StopTimer()

	for _, a := range answer {
		if len(a.priv) == 0 {
			b.Fatalf("BenchmarkExecutor: didn't return a curve as expected")
		}
	}
	if len(answer) != num {
		b.Fatalf("BenchmarkExecutor: expected more answers")
	}
}

func BenchmarkPooled(b *testing.B) {
	b.ReportAllocs()

	p, err := pooled.New(limit)
	if err != nil {
		panic(err)
	}

	answer := make([]curveData, num)
	ctx := context.Background()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for i := 0; i < num; i++ {
			i := i
			p.Submit(
				ctx,
				func(ctx context.Context) {
					answer[i] = curve(ctx)
				},
			)
		}
		p.Wait()
	}
	b.StopTimer()

	for _, a := range answer {
		if len(a.priv) == 0 {
			b.Fatalf("BenchmarkPooled: didn't return a curve as expected")
		}
	}
	if len(answer) != num {
		b.Fatalf("BenchmarkPooled: expected more answers")
	}
}

func BenchmarkPoolLimited(b *testing.B) {
	b.ReportAllocs()

	p, err := limited.New(limit)
	if err != nil {
		panic(err)
	}

	answer := make([]curveData, num)
	ctx := context.Background()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for i := 0; i < num; i++ {
			i := i
			p.Submit(
				ctx,
				func(ctx context.Context) {
					answer[i] = curve(ctx)
				},
			)
		}
		p.Wait()
	}
	b.StopTimer()

	for _, a := range answer {
		if len(a.priv) == 0 {
			b.Fatalf("BenchmarkPoolLimited: didn't return a curve as expected")
		}
	}
	if len(answer) != num {
		b.Fatalf("BenchmarkPoolLimited: expected more answers")
	}
}

func BenchmarkStandard(b *testing.B) {
	b.ReportAllocs()

	limiter := make(chan struct{}, limit)
	answer := make([]curveData, num)
	ctx := context.Background()
	wg := sync.WaitGroup{}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for i := 0; i < num; i++ {
			i := i
			wg.Add(1)
			limiter <- struct{}{}
			go func(ctx context.Context) {
				defer func() { <-limiter }()
				defer wg.Done()
				answer[i] = curve(ctx)
			}(ctx)
		}
		wg.Wait()
	}
	b.StopTimer()

	for _, a := range answer {
		if len(a.priv) == 0 {
			b.Fatalf("BenchmarkStandard: didn't return a curve as expected")
		}
	}
	if len(answer) != num {
		b.Fatalf("BenchmarkStandard: expected more answers")
	}
}

func BenchmarkTunny(b *testing.B) {
	b.ReportAllocs()

	answer := make([]curveData, num)
	ctx := context.Background()

	pool := tunny.NewFunc(
		limit,
		func(payload interface{}) interface{} {
			i := payload.(int)
			answer[i] = curve(ctx)
			return nil
		},
	)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for i := 0; i < num; i++ {
			pool.ProcessCtx(ctx, i)
		}
	}
	b.StopTimer()

	for _, a := range answer {
		if len(a.priv) == 0 {
			b.Fatalf("BenchmarkTunny: didn't return a curve as expected")
		}
	}
	if len(answer) != num {
		b.Fatalf("BenchmarkTunny: expected more answers")
	}
}

type curveData struct {
	priv []byte
	x, y *big.Int
}

func curve(ctx context.Context) curveData {
	priv, x, y, err := elliptic.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		panic(err)
	}
	return curveData{priv, x, y}
}
