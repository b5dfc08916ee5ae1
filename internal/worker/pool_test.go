package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	counter *atomic.Int64
}

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	return &countResult{}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	var counter atomic.Int64

	pool := NewPool(context.Background(), 4)
	pool.Start()

	const jobs = 50
	for i := 0; i < jobs; i++ {
		pool.Submit(&countJob{counter: &counter})
	}

	results := pool.Wait()

	if got := counter.Load(); got != jobs {
		t.Errorf("executed %d jobs, want %d", got, jobs)
	}
	if len(results) != jobs {
		t.Errorf("collected %d results, want %d", len(results), jobs)
	}
}

type slowJob struct {
	counter *atomic.Int64
	delay   time.Duration
}

func (j *slowJob) Execute(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return &countResult{err: ctx.Err()}
	case <-time.After(j.delay):
		j.counter.Add(1)
		return &countResult{}
	}
}

func TestPool_CancellationIsCheckpointSafe(t *testing.T) {
	var counter atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	done := make(chan []Result, 1)
	go func() {
		for i := 0; i < 100; i++ {
			pool.Submit(&slowJob{counter: &counter, delay: 5 * time.Millisecond})
		}
		done <- pool.Wait()
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	results := <-done

	// Some jobs completed before cancellation; their results survive and
	// the rest were never executed.
	if counter.Load() == 0 {
		t.Error("expected some jobs to complete before cancellation")
	}
	if int(counter.Load()) >= 100 {
		t.Error("expected cancellation to stop the pool early")
	}
	if len(results) > 100 {
		t.Errorf("collected %d results for 100 jobs", len(results))
	}
}

func TestLimiter_AllowRespectsBurst(t *testing.T) {
	limiter := NewLimiter(1, 2)

	if !limiter.Allow("openai") {
		t.Error("first request within burst should be allowed")
	}
	if !limiter.Allow("openai") {
		t.Error("second request within burst should be allowed")
	}
	if limiter.Allow("openai") {
		t.Error("third request should exceed the burst")
	}

	// Keys are independent.
	if !limiter.Allow("ollama") {
		t.Error("fresh key should have its own allowance")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	_ = limiter.Allow("slow") // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "slow"); err == nil {
		t.Error("expected Wait to fail when context expires first")
	}
}
