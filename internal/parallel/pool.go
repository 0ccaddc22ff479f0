// Package parallel runs index-addressed work across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool executes batches of independent work items.
//
// Workers pull the next index from a shared counter, so a batch with
// uneven items balances itself without per-worker queues.
//
// Thread safety: WorkerPool is safe for concurrent use; batches submitted
// from different goroutines run one after another.
type WorkerPool struct {
	workers int

	batchMu sync.Mutex
	jobs    chan *batch
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// batch is one Run call shared by all workers.
type batch struct {
	n    int
	next atomic.Int64
	fn   func(i int)
	wg   sync.WaitGroup
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		jobs:    make(chan *batch),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case b := <-p.jobs:
			b.drain()
			b.wg.Done()
		}
	}
}

// drain executes items until the batch is exhausted.
func (b *batch) drain() {
	for {
		i := int(b.next.Add(1) - 1)
		if i >= b.n {
			return
		}
		b.fn(i)
	}
}

// Run calls fn(i) for every i in [0, n) and waits for completion. Small
// batches and closed pools run on the calling goroutine.
func (p *WorkerPool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 || p.workers == 1 || !p.running.Load() {
		runInline(n, fn)
		return
	}

	p.batchMu.Lock()
	defer p.batchMu.Unlock()
	// Close may have won the race since the check above.
	if !p.running.Load() {
		runInline(n, fn)
		return
	}

	b := &batch{n: n, fn: fn}
	helpers := min(p.workers, n) - 1
	b.wg.Add(helpers)
	for range helpers {
		p.jobs <- b
	}
	// The caller works too.
	b.drain()
	b.wg.Wait()
}

func runInline(n int, fn func(i int)) {
	for i := range n {
		fn(i)
	}
}

// Close stops the workers after the batch in flight, if any, completes.
// Close is safe to call multiple times and concurrently with Run.
func (p *WorkerPool) Close() {
	p.batchMu.Lock()
	defer p.batchMu.Unlock()
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still dispatches to workers.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
