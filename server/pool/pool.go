package pool

import (
	"sync"
	"time"

	"github.com/cjbester78/h2h/server/logger"
	"go.uber.org/zap"
)

type Task func()

type OverflowPolicy int

// CALLER_RUNS applies backpressure: when the queue is full the submitting
// goroutine runs the task itself, nothing is dropped. DISCARD silently drops
// overflow, for best-effort workloads only.
const (
	CALLER_RUNS OverflowPolicy = iota
	DISCARD
)

// Pool is a fixed set of workers draining a bounded task queue.
type Pool struct {
	name    string
	policy  OverflowPolicy
	grace   time.Duration
	tasks   chan Task
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	dropped int64
}

// New starts a pool with the given worker count and queue capacity. grace is
// how long Shutdown waits for in-flight tasks; zero means no wait.
func New(name string, workers int, capacity int, policy OverflowPolicy, grace time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		name:   name,
		policy: policy,
		grace:  grace,
		tasks:  make(chan Task, capacity),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task, applying the pool's overflow policy when the queue
// is full. Returns false only when the task was discarded or the pool is
// already shut down. The closed check and the channel send happen under the
// same lock as Shutdown's close, so a racing Submit never sends on a closed
// channel.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	select {
	case p.tasks <- task:
		p.mu.Unlock()
		return true
	default:
	}
	if p.policy == CALLER_RUNS {
		// run outside the lock: the task may submit to this pool itself
		p.mu.Unlock()
		task()
		return true
	}
	p.dropped++
	p.mu.Unlock()
	logger.Debug("pool discarded task", zap.String("pool", p.name))
	return false
}

func (p *Pool) Dropped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Shutdown stops intake and waits up to the configured grace period for the
// workers to drain. In-flight transfers get their full grace; a zero grace
// pool abandons its workers immediately. The channel is closed under the
// same lock Submit sends under.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	if p.grace <= 0 {
		logger.Info("pool stopped without waiting", zap.String("pool", p.name))
		return
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("pool drained", zap.String("pool", p.name))
	case <-time.After(p.grace):
		logger.Warn("pool shutdown grace expired", zap.String("pool", p.name), zap.Duration("grace", p.grace))
	}
}
