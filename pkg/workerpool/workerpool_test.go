package workerpool

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsTaskAndWait(t *testing.T) {
	p := NewBounded(2)
	f := p.Submit(func() (map[string]interface{}, error) {
		return map[string]interface{}{"y": 1}, nil
	})
	out, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if out["y"] != 1 {
		t.Fatalf("out[y] = %v, want 1", out["y"])
	}
}

func TestSubmitPropagatesTaskError(t *testing.T) {
	p := NewBounded(2)
	wantErr := errors.New("boom")
	f := p.Submit(func() (map[string]interface{}, error) { return nil, wantErr })
	_, err := f.Wait()
	if !errors.Is(err, wantErr) {
		t.Fatalf("Wait error = %v, want %v", err, wantErr)
	}
}

func TestWaitAllPreservesOrder(t *testing.T) {
	p := NewBounded(4)
	var futures []Future
	for i := 0; i < 5; i++ {
		i := i
		futures = append(futures, p.Submit(func() (map[string]interface{}, error) {
			return map[string]interface{}{"i": i}, nil
		}))
	}
	results, errs := p.WaitAll(futures)
	if len(results) != 5 || len(errs) != 5 {
		t.Fatalf("WaitAll returned %d results, %d errs, want 5 and 5", len(results), len(errs))
	}
	for i, r := range results {
		if r["i"] != i {
			t.Fatalf("results[%d][i] = %v, want %d (submission order preserved)", i, r["i"], i)
		}
	}
}

func TestBoundedLimitsConcurrency(t *testing.T) {
	p := NewBounded(2)
	var current, max int32
	var futures []Future
	for i := 0; i < 8; i++ {
		futures = append(futures, p.Submit(func() (map[string]interface{}, error) {
			n := atomic.AddInt32(&current, 1)
			for {
				m := atomic.LoadInt32(&max)
				if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil, nil
		}))
	}
	p.WaitAll(futures)
	if atomic.LoadInt32(&max) > 2 {
		t.Fatalf("observed concurrency %d, want <= 2 (pool bound)", max)
	}
}

func TestUnboundedPoolAllowsFullConcurrency(t *testing.T) {
	p := NewBounded(0)
	var futures []Future
	for i := 0; i < 10; i++ {
		futures = append(futures, p.Submit(func() (map[string]interface{}, error) {
			time.Sleep(time.Millisecond)
			return nil, nil
		}))
	}
	results, errs := p.WaitAll(futures)
	if len(results) != 10 || len(errs) != 10 {
		t.Fatalf("WaitAll length mismatch: %d results, %d errs", len(results), len(errs))
	}
}
