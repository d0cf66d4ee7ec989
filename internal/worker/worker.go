// Package worker runs tasks with bounded parallelism.
//
// A Pool limits the number of goroutines doing blocking work at once, such as the stat calls
// and content sniffing of a file info prefetch. Submission never blocks; errors are collected
// and returned by Wait.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gruntwork-io/imgopen/internal/errors"
)

// Task is a unit of work. ctx is cancelled when the pool is stopped.
type Task func(ctx context.Context) error

// Pool manages concurrent task execution with a configurable number of workers.
type Pool struct {
	ctx         context.Context
	cancel      context.CancelFunc
	semaphore   chan struct{}
	allErrors   *errors.MultiError
	wg          sync.WaitGroup
	allErrorsMu sync.Mutex
	maxWorkers  int
	isStopping  atomic.Bool
}

// NewPool creates a pool running at most maxWorkers tasks at once.
func NewPool(ctx context.Context, maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		ctx:        ctx,
		cancel:     cancel,
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		allErrors:  &errors.MultiError{},
	}
}

// MaxWorkers returns the parallelism limit.
func (wp *Pool) MaxWorkers() int {
	return wp.maxWorkers
}

// Submit starts the task as soon as a worker is free. It returns false, dropping the task,
// if the pool is stopping.
func (wp *Pool) Submit(task Task) bool {
	if wp.isStopping.Load() {
		return false
	}

	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()

		select {
		case wp.semaphore <- struct{}{}:
		case <-wp.ctx.Done():
			return
		}

		defer func() { <-wp.semaphore }()

		if err := task(wp.ctx); err != nil {
			wp.appendError(err)
		}
	}()

	return true
}

// Wait blocks until all submitted tasks are done and returns their errors.
func (wp *Pool) Wait() error {
	wp.wg.Wait()

	wp.allErrorsMu.Lock()
	defer wp.allErrorsMu.Unlock()

	return wp.allErrors.ErrorOrNil()
}

// Stop rejects new tasks and cancels the context of the running ones. Tasks still waiting
// for a worker are dropped.
func (wp *Pool) Stop() {
	wp.isStopping.Store(true)
	wp.cancel()
}

// GracefulStop rejects new tasks and waits for the submitted ones to complete.
func (wp *Pool) GracefulStop() error {
	wp.isStopping.Store(true)

	err := wp.Wait()

	wp.cancel()

	return err
}

// IsStopping returns whether the pool rejects new tasks.
func (wp *Pool) IsStopping() bool {
	return wp.isStopping.Load()
}

func (wp *Pool) appendError(err error) {
	wp.allErrorsMu.Lock()
	wp.allErrors = wp.allErrors.Append(err)
	wp.allErrorsMu.Unlock()
}
