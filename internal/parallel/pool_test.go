package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunVisitsEveryIndexOnce(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n       int
	}{
		{"single worker", 1, 100},
		{"more items than workers", 4, 1000},
		{"fewer items than workers", 8, 3},
		{"one item", 4, 1},
		{"empty", 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWorkerPool(tt.workers)
			defer p.Close()

			hits := make([]atomic.Int32, tt.n)
			p.Run(tt.n, func(i int) { hits[i].Add(1) })
			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Fatalf("index %d visited %d times", i, got)
				}
			}
		})
	}
}

func TestRunAfterClose(t *testing.T) {
	p := NewWorkerPool(4)
	p.Close()
	p.Close()
	if p.IsRunning() {
		t.Fatal("pool still running after Close")
	}

	var sum atomic.Int64
	p.Run(10, func(i int) { sum.Add(int64(i)) })
	if sum.Load() != 45 {
		t.Errorf("sum = %d, want 45", sum.Load())
	}
}

func TestDefaultWorkers(t *testing.T) {
	p := NewWorkerPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d", p.Workers())
	}
}

func TestRunConcurrentWithClose(t *testing.T) {
	for range 50 {
		p := NewWorkerPool(4)
		var sum atomic.Int64
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 20 {
				p.Run(16, func(int) { sum.Add(1) })
			}
		}()
		go func() {
			defer wg.Done()
			p.Close()
		}()

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatal("Run blocked after a concurrent Close")
		}
		if got := sum.Load(); got != 20*16 {
			t.Fatalf("ran %d items, want %d", got, 20*16)
		}
	}
}
