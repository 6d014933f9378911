package packeteer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_InvokesSubmittedWork(t *testing.T) {
	output := make(chan readyWork, 4)
	var count atomic.Int32
	var wg sync.WaitGroup
	pool := newWorkerPool(output, func(w readyWork) {
		count.Add(1)
		wg.Done()
	})
	defer pool.Close()

	pool.SetNumWorkers(2)
	if pool.NumWorkers() != 2 {
		t.Fatalf("expected 2 live workers, got %d", pool.NumWorkers())
	}

	wg.Add(3)
	for i := 0; i < 3; i++ {
		output <- readyWork{}
	}
	wg.Wait()

	if count.Load() != 3 {
		t.Fatalf("expected 3 invocations, got %d", count.Load())
	}
}

func TestWorkerPool_ShrinkOnlyJoinsRemovedWorkers(t *testing.T) {
	output := make(chan readyWork, 8)
	var inflight atomic.Int32
	var maxInflight atomic.Int32
	pool := newWorkerPool(output, func(w readyWork) {
		n := inflight.Add(1)
		for {
			old := maxInflight.Load()
			if n <= old || maxInflight.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inflight.Add(-1)
	})
	defer pool.Close()

	pool.SetNumWorkers(4)
	for i := 0; i < 4; i++ {
		output <- readyWork{}
	}
	// Give the workers a moment to pick up their first item each.
	time.Sleep(5 * time.Millisecond)

	pool.SetNumWorkers(2)
	if pool.NumWorkers() != 2 {
		t.Fatalf("expected 2 live workers after shrink, got %d", pool.NumWorkers())
	}
}

func TestWorkerPool_CloseStopsAllWorkers(t *testing.T) {
	output := make(chan readyWork, 1)
	pool := newWorkerPool(output, func(w readyWork) {})
	pool.SetNumWorkers(3)
	pool.Close()
	if pool.NumWorkers() != 0 {
		t.Fatalf("expected 0 workers after Close, got %d", pool.NumWorkers())
	}
}
