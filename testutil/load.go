package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BurstConfig configures a RunBurst call.
type BurstConfig struct {
	// Calls is the total number of invocations.
	Calls int

	// Workers is the number of goroutines sharing the calls. Defaults to Calls.
	Workers int

	// PerSecond throttles invocations across all workers. Zero means unthrottled.
	PerSecond float64
}

// BurstResult summarizes a RunBurst call.
type BurstResult struct {
	Successes int
	Failures  int

	// Errors counts failures by error message.
	Errors map[string]int

	LatencyP50 time.Duration
	LatencyP95 time.Duration
	LatencyMax time.Duration

	Elapsed time.Duration
}

// RunBurst invokes fn Calls times from Workers goroutines and waits for all of
// them. Each invocation receives its index. Workers start together so the
// first calls race each other.
func RunBurst(ctx context.Context, cfg BurstConfig, fn func(ctx context.Context, i int) error) BurstResult {
	if cfg.Calls <= 0 {
		return BurstResult{Errors: map[string]int{}}
	}
	workers := cfg.Workers
	if workers <= 0 || workers > cfg.Calls {
		workers = cfg.Calls
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.PerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PerSecond), 1)
	}

	jobs := make(chan int, cfg.Calls)
	for i := 0; i < cfg.Calls; i++ {
		jobs <- i
	}
	close(jobs)

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, cfg.Calls)
		result    = BurstResult{Errors: make(map[string]int)}
		start     = make(chan struct{})
		wg        sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					mu.Lock()
					result.Failures++
					result.Errors[err.Error()]++
					mu.Unlock()
					continue
				}
				began := time.Now()
				err := fn(ctx, i)
				took := time.Since(began)

				mu.Lock()
				if err != nil {
					result.Failures++
					result.Errors[err.Error()]++
				} else {
					result.Successes++
					latencies = append(latencies, took)
				}
				mu.Unlock()
			}
		}()
	}

	began := time.Now()
	close(start)
	wg.Wait()
	result.Elapsed = time.Since(began)

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		result.LatencyP50 = percentile(latencies, 50)
		result.LatencyP95 = percentile(latencies, 95)
		result.LatencyMax = latencies[len(latencies)-1]
	}
	return result
}

// percentile returns the nearest-rank pth percentile of sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p/100*float64(len(sorted)) + 0.5)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// String renders the result for test logs.
func (r BurstResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d ok, %d failed in %v (p50 %v, p95 %v, max %v)",
		r.Successes, r.Failures, r.Elapsed.Round(time.Millisecond),
		r.LatencyP50.Round(time.Microsecond), r.LatencyP95.Round(time.Microsecond), r.LatencyMax.Round(time.Microsecond))

	msgs := make([]string, 0, len(r.Errors))
	for msg := range r.Errors {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	for _, msg := range msgs {
		fmt.Fprintf(&b, "\n  %d x %s", r.Errors[msg], msg)
	}
	return b.String()
}
