// Package workerpool defines the worker-pool surface the executor
// depends on for parallel layers (§5, §6, §9: "the core does not spawn
// threads directly") and a bounded goroutine-backed implementation of
// it. Callers may substitute any Pool; the executor only ever calls
// Submit and WaitAll.
package workerpool

import "sync"

// Task is a unit of work submitted to a pool: no arguments, one result
// mapping, any error.
type Task func() (map[string]interface{}, error)

// Future is the handle returned by Submit; Wait blocks until the task
// has run and returns its result.
type Future interface {
	Wait() (map[string]interface{}, error)
}

// Pool is the external worker-pool surface the core depends on.
type Pool interface {
	// Submit schedules task for execution and returns immediately.
	Submit(task Task) Future
	// WaitAll blocks until every future has resolved, preserving the
	// input order in its two return slices.
	WaitAll(futures []Future) ([]map[string]interface{}, []error)
}

// future is the channel-backed Future returned by Bounded.Submit.
type future struct {
	done   chan struct{}
	result map[string]interface{}
	err    error
}

func (f *future) Wait() (map[string]interface{}, error) {
	<-f.done
	return f.result, f.err
}

// Bounded is a goroutine-per-task pool gated by a counting semaphore,
// the same acquire/release-on-exit shape as a level-barrier parallel
// executor: each submitted task blocks on an empty slot in sem before
// running, and releases it on exit regardless of outcome.
type Bounded struct {
	sem chan struct{}
}

// NewBounded returns a pool that runs at most maxConcurrency tasks at
// once. maxConcurrency <= 0 means unbounded (every Submit starts a
// goroutine immediately).
func NewBounded(maxConcurrency int) *Bounded {
	var sem chan struct{}
	if maxConcurrency > 0 {
		sem = make(chan struct{}, maxConcurrency)
	}
	return &Bounded{sem: sem}
}

func (p *Bounded) Submit(task Task) Future {
	f := &future{done: make(chan struct{})}
	go func() {
		if p.sem != nil {
			p.sem <- struct{}{}
			defer func() { <-p.sem }()
		}
		defer close(f.done)
		f.result, f.err = task()
	}()
	return f
}

func (p *Bounded) WaitAll(futures []Future) ([]map[string]interface{}, []error) {
	results := make([]map[string]interface{}, len(futures))
	errs := make([]error, len(futures))

	var wg sync.WaitGroup
	wg.Add(len(futures))
	for i, f := range futures {
		go func(i int, f Future) {
			defer wg.Done()
			results[i], errs[i] = f.Wait()
		}(i, f)
	}
	wg.Wait()

	return results, errs
}
