package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/engine/refengine"
	"github.com/sass-embedded/compiler-host/worker"
)

func newTestPool() *Pool {
	return New(func() engine.Engine { return refengine.New() }, timeutil.RealClock())
}

func TestAcquireSpawnsUpToCeiling(t *testing.T) {
	p := newTestPool()
	defer p.Close()

	var workers []uint32
	for i := 0; i < Ceiling; i++ {
		w, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		workers = append(workers, w.CompilationID)
	}
	if p.Live() != Ceiling {
		t.Errorf("Live() = %d, want %d", p.Live(), Ceiling)
	}

	seen := make(map[uint32]bool)
	for _, id := range workers {
		if seen[id] {
			t.Fatalf("duplicate compilation id %d", id)
		}
		seen[id] = true
	}
}

func TestAcquireBlocksPastCeiling(t *testing.T) {
	p := newTestPool()
	defer p.Close()

	workers := make([]*worker.Worker, 0, Ceiling)
	for i := 0; i < Ceiling; i++ {
		w, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		workers = append(workers, w)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); err == nil {
		t.Fatal("expected the 16th Acquire to block and time out")
	}

	// Releasing one worker should unblock a fresh Acquire.
	p.Release(workers[0])
	w, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	if w != workers[0] {
		t.Error("expected the released worker to be reused, got a different worker")
	}
}

func TestConcurrentAcquireBoundedAtCeiling(t *testing.T) {
	p := newTestPool()
	defer p.Close()

	const attempts = 20
	var inFlight int32
	var maxInFlight int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := p.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}

			n := atomic.AddInt32(&inFlight, 1)
			mu.Lock()
			if n > maxInFlight {
				maxInFlight = n
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			atomic.AddInt32(&inFlight, -1)
			p.Release(w)
		}()
	}
	wg.Wait()

	if maxInFlight > Ceiling {
		t.Errorf("observed %d concurrently acquired workers, want <= %d", maxInFlight, Ceiling)
	}
}
