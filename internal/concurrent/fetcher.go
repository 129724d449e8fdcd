package concurrent

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Result is the outcome of one input. Latency is zero for inputs that
// never reached the fetch function.
type Result[T any] struct {
	Index   int
	Value   T
	Err     error
	Latency time.Duration
}

// FetchFunc does the work for one input. It is called once per input;
// failures are reported, never retried.
type FetchFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// FetcherConfig holds configuration for the concurrent fetcher
type FetcherConfig struct {
	Workers   int           // Number of concurrent workers
	RateLimit rate.Limit    // Requests per second, 0 for none
	Timeout   time.Duration // Timeout per request
}

// Fetcher runs FetchFuncs over a bounded set of workers. It holds no
// per-run state and may be shared.
type Fetcher struct {
	workers   int
	rateLimit *rate.Limiter
	timeout   time.Duration
}

// NewFetcher creates a new concurrent fetcher
func NewFetcher(config FetcherConfig) *Fetcher {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 10 {
			workers = 10 // Cap at 10 to be respectful to APIs
		}
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(config.RateLimit, workers)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		workers:   workers,
		rateLimit: limiter,
		timeout:   timeout,
	}
}

// Workers returns the pool size.
func (f *Fetcher) Workers() int {
	return f.workers
}

// FetchAll calls fetch for every input and returns the results in input
// order. Inputs not started before ctx is done carry ctx's error.
func FetchAll[In, Out any](ctx context.Context, f *Fetcher, inputs []In, fetch FetchFunc[In, Out]) []Result[Out] {
	results := make([]Result[Out], len(inputs))
	if len(inputs) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(f.workers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fetchOne(ctx, f, i, inputs[i], fetch)
			}
		}()
	}

	sent := 0
send:
	for sent < len(inputs) {
		select {
		case jobs <- sent:
			sent++
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	for i := sent; i < len(inputs); i++ {
		results[i] = Result[Out]{Index: i, Err: ctx.Err()}
	}
	return results
}

func fetchOne[In, Out any](ctx context.Context, f *Fetcher, i int, in In, fetch FetchFunc[In, Out]) Result[Out] {
	if f.rateLimit != nil {
		if err := f.rateLimit.Wait(ctx); err != nil {
			return Result[Out]{Index: i, Err: err}
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	value, err := fetch(timeoutCtx, in)
	return Result[Out]{Index: i, Value: value, Err: err, Latency: time.Since(start)}
}

// Stats summarizes one FetchAll run.
type Stats struct {
	Total          int
	Succeeded      int
	Failed         int
	AverageLatency time.Duration // over successful fetches
}

// Summarize counts outcomes in results.
func Summarize[T any](results []Result[T]) Stats {
	s := Stats{Total: len(results)}
	var latency time.Duration
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		latency += r.Latency
	}
	if s.Succeeded > 0 {
		s.AverageLatency = latency / time.Duration(s.Succeeded)
	}
	return s
}
