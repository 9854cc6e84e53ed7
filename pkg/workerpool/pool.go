// Package workerpool provides a bounded goroutine pool with backpressure.
//
// A Pool limits the number of goroutines that can run concurrently, which
// prevents unbounded goroutine creation under bursty load. When all workers
// are busy and the queue is full, Submit returns ErrPoolFull immediately so
// the caller can decide to drop or retry.
//
// The storefront uses it for best-effort side effects such as emails:
//
//	err := pool.Go(ctx, "order_confirmation", func(ctx context.Context) error {
//	    return mailer.Send(ctx, msg)
//	})
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/souq/pkg/logger"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	// TaskTimeout bounds each task started with Go. Zero means 30s.
	TaskTimeout time.Duration
	// OnError is called when a task started with Go fails or panics.
	OnError func(name string, err error)
}

// New creates a Pool with the given number of workers and queue slots.
// A non-positive queue defaults to twice the worker count.
func New(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}

	p := &Pool{tasks: make(chan func(), queue)}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues task for execution. It never blocks.
//   - Returns ErrPoolFull if the task queue is at capacity.
//   - Returns ErrPoolClosed if Shutdown has been called.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Go submits fn under name. fn runs with a context detached from the
// caller's cancellation (the HTTP request is usually finished by then) but
// keeping its values, such as the request logger. Failures are logged and
// reported to OnError; a rejected submission is reported the same way and
// also returned.
func (p *Pool) Go(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	base := context.WithoutCancel(ctx)
	timeout := p.TaskTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	err := p.Submit(func() {
		taskCtx, cancel := context.WithTimeout(base, timeout)
		defer cancel()

		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			err = fn(taskCtx)
		}()
		if err != nil {
			p.fail(base, name, err)
		}
	})
	if err != nil {
		p.fail(base, name, err)
	}
	return err
}

func (p *Pool) fail(ctx context.Context, name string, err error) {
	logger.WithCtx(ctx).Warn("background task failed", "task", name, "error", err)
	if p.OnError != nil {
		p.OnError(name, err)
	}
}

// Shutdown stops accepting new tasks and waits for queued and in-flight
// tasks to complete, or for ctx to expire. Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker drains the task channel until it is closed.
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

// safeRun executes task, recovering from panics so a bad task doesn't kill
// the worker goroutine.
func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", fmt.Sprint(r))
		}
	}()
	task()
}
