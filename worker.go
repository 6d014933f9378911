package packeteer

import (
	"sync"
	"time"
)

// readyWork is one runnable callback entry produced by a dispatch
// iteration - spec §4.8's "ready" list. handle/flags are zero for
// scheduled/user entries (only I/O entries carry ONESHOT/REPEAT
// bookkeeping).
type readyWork struct {
	now    time.Time
	mask   EventMask
	cause  error
	conn   *Connector
	cb     Callback
	handle Handle
	flags  ioFlags
}

// workerHandle is one live worker tasklet: a goroutine draining output
// until stop is closed, signalling its own exit via done - spec §4.9's
// shutdown guarantee ("after set_num_workers(0) returns, no worker
// thread touches any callback state") is implemented by blocking
// SetNumWorkers on every removed worker's done channel.
type workerHandle struct {
	stop chan struct{}
	done chan struct{}
}

// workerPool is N tasklets pulling ready work off a shared channel and
// invoking it in parallel - spec §4.9. Resizing while running is
// permitted: growing spawns more tasklets, shrinking stops and joins the
// excess before returning.
type workerPool struct {
	mu      sync.Mutex
	workers []*workerHandle
	output  chan readyWork
	invoke  func(readyWork)
}

func newWorkerPool(output chan readyWork, invoke func(readyWork)) *workerPool {
	return &workerPool{output: output, invoke: invoke}
}

func (p *workerPool) spawn() *workerHandle {
	h := &workerHandle{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(h.done)
		for {
			select {
			case <-h.stop:
				return
			case w, ok := <-p.output:
				if !ok {
					return
				}
				p.invoke(w)
			}
		}
	}()
	return h
}

// SetNumWorkers resizes the pool to exactly n live workers, blocking
// until every stopped worker has fully exited before returning.
func (p *workerPool) SetNumWorkers(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.workers) < n {
		p.workers = append(p.workers, p.spawn())
	}
	var removed []*workerHandle
	for len(p.workers) > n {
		last := len(p.workers) - 1
		removed = append(removed, p.workers[last])
		p.workers = p.workers[:last]
	}
	for _, h := range removed {
		close(h.stop)
	}
	for _, h := range removed {
		<-h.done
	}
}

// NumWorkers reports the current live worker count.
func (p *workerPool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Close stops every worker, waiting for all of them to exit.
func (p *workerPool) Close() {
	p.SetNumWorkers(0)
}
