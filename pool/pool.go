// Package pool implements the bounded worker pool of spec §4.E: a counted
// set of reusable worker.Worker values with a hard ceiling on how many may
// be live (spawned, whether idle or running a compilation) at once.
//
// The shape — a mutex-guarded struct tracking a free set plus a live
// count, growing lazily up to a ceiling instead of pre-spawning — is
// grounded in the teacher's DefaultMessageProvider (message_provider.go):
// get-from-free-list-or-allocate, guarded by a single mutex. This pool
// adds the ceiling and waiter-blocking DefaultMessageProvider does not
// need (message buffers are never "exhausted"; workers are, by design).
// The mutex itself is the teacher's samples/memfs one
// (syncutil.InvariantMutex, checked against checkInvariants on every
// Lock/Unlock) rather than a bare sync.Mutex, for the same reason memfs
// uses it: this struct's fields (idle set, live count, waiter queue) have
// a relationship that's easy to get subtly wrong under concurrent
// Acquire/Release, and a panic on violation catches that immediately
// instead of manifesting as a much later, harder-to-trace deadlock.
package pool

import (
	"container/list"
	"context"
	"fmt"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/worker"
)

// Ceiling is the hard limit on concurrently live workers (spec §4.E): "a
// historical constraint rooted in a worker-runtime deadlock observed
// above that threshold; this value is part of the contract."
const Ceiling = 15

// Pool hands out worker.Worker values, spawning new ones up to Ceiling and
// reusing idle ones thereafter, blocking acquirers when the pool is
// saturated (spec §4.E).
type Pool struct {
	newEngine func() engine.Engine
	clock     timeutil.Clock

	mu      syncutil.InvariantMutex
	idle    *list.List // of *worker.Worker
	live    int
	nextID  uint32
	waiters *list.List // of chan *worker.Worker

	runCtx    context.Context
	runCancel context.CancelFunc
}

// New constructs an empty pool. newEngine is called once per spawned
// worker so that each worker gets its own Engine value (refengine.Engine
// is stateless and safe to share, but the seam keeps that an
// implementation detail rather than a pool assumption).
func New(newEngine func() engine.Engine, clock timeutil.Clock) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		newEngine: newEngine,
		clock:     clock,
		idle:      list.New(),
		waiters:   list.New(),
		runCtx:    ctx,
		runCancel: cancel,
	}
	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)
	return p
}

// checkInvariants is run by p.mu on every Lock/Unlock (teacher's
// samples/memfs/fs.go pattern): live workers never exceed Ceiling, the
// idle set can never hold more workers than are live, and a blocked
// waiter can only exist once every live worker is accounted for as busy
// (i.e. none are sitting idle).
func (p *Pool) checkInvariants() {
	if p.live < 0 || p.live > Ceiling {
		panic(fmt.Sprintf("pool: live = %d, want 0 <= live <= %d", p.live, Ceiling))
	}
	if p.idle.Len() > p.live {
		panic(fmt.Sprintf("pool: idle.Len() = %d, want <= live (%d)", p.idle.Len(), p.live))
	}
	if p.waiters.Len() > 0 && p.idle.Len() > 0 {
		panic("pool: waiters blocked while idle workers are available")
	}
}

// Acquire returns an idle worker if one exists; otherwise, if the live
// count is below Ceiling, it spawns a fresh one with the next compilation
// id; otherwise it blocks until a worker is released or ctx is canceled.
func (p *Pool) Acquire(ctx context.Context) (*worker.Worker, error) {
	p.mu.Lock()
	if e := p.idle.Front(); e != nil {
		p.idle.Remove(e)
		w := e.Value.(*worker.Worker)
		p.mu.Unlock()
		return w, nil
	}

	if p.live < Ceiling {
		p.nextID++
		id := p.nextID
		p.live++
		w := worker.New(id, p.newEngine(), p.clock)
		p.mu.Unlock()
		go w.Run(p.runCtx)
		return w, nil
	}

	ch := make(chan *worker.Worker, 1)
	elem := p.waiters.PushBack(ch)
	p.mu.Unlock()

	select {
	case w := <-ch:
		return w, nil
	case <-ctx.Done():
		p.mu.Lock()
		p.waiters.Remove(elem)
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Release returns w to the idle set, waking one blocked Acquire call if
// any is waiting (spec §4.E; fairness across waiters is not required).
func (p *Pool) Release(w *worker.Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e := p.waiters.Front(); e != nil {
		p.waiters.Remove(e)
		ch := e.Value.(chan *worker.Worker)
		ch <- w
		return
	}
	p.idle.PushBack(w)
}

// Live reports the current count of spawned (idle or busy) workers.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Close stops every worker's Run goroutine. It does not wait for in-flight
// compilations to finish; callers that need draining semantics (spec §9's
// open question) implement that at the dispatcher layer.
func (p *Pool) Close() {
	p.runCancel()
}
