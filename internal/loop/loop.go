// Package loop implements the single cooperative event loop that owns all pipeline state.
//
// Every mutation of pipeline objects happens inside a task run by Loop.Run on one goroutine.
// Other goroutines only perform blocking I/O and hand their continuation back with Post.
// Tasks come in two priorities: normal tasks (I/O continuations, user requests) always run
// before idle tasks, which is what the dispatcher uses to process one source per tick
// without starving the loop.
package loop

import (
	"context"
	"sync"

	"github.com/gruntwork-io/imgopen/pkg/log"
)

// Task is a unit of work run on the loop goroutine.
type Task func()

// Loop is a cooperative task scheduler. The zero value is not usable, use New.
type Loop struct {
	logger  log.Logger
	wake    chan struct{}
	normal  []Task
	idle    []Task
	workers sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	running bool
}

// New returns a loop that is ready to accept tasks. Tasks posted before Run are kept until Run starts.
func New(logger log.Logger) *Loop {
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Post schedules the task at normal priority. It is safe to call from any goroutine.
// It returns false if the loop was stopped and the task was dropped.
func (lp *Loop) Post(task Task) bool {
	return lp.push(task, false)
}

// PostIdle schedules the task at idle priority: it only runs when no normal task is pending.
func (lp *Loop) PostIdle(task Task) bool {
	return lp.push(task, true)
}

// Go runs work on a new goroutine and posts then back to the loop once work returns.
// then is dropped if the loop stopped in the meantime.
func (lp *Loop) Go(work func(), then Task) {
	lp.workers.Add(1)

	go func() {
		defer lp.workers.Done()

		work()

		if then != nil && !lp.Post(then) {
			lp.logger.Tracef("Event loop stopped, dropping continuation")
		}
	}()
}

// Run processes tasks until Stop is called or the context is done.
// It returns the context error in the latter case.
func (lp *Loop) Run(ctx context.Context) error {
	lp.mu.Lock()
	if lp.running {
		lp.mu.Unlock()
		panic("loop: Run called twice")
	}

	lp.running = true
	lp.mu.Unlock()

	for {
		task, stopped := lp.next()
		if stopped {
			return nil
		}

		if task != nil {
			task()
			continue
		}

		select {
		case <-ctx.Done():
			lp.Stop()
			return ctx.Err()
		case <-lp.wake:
		}
	}
}

// Stop makes Run return after the task being run, pending tasks are discarded.
func (lp *Loop) Stop() {
	lp.mu.Lock()
	lp.stopped = true
	lp.normal = nil
	lp.idle = nil
	lp.mu.Unlock()

	lp.signal()
}

// Wait blocks until every goroutine started with Go has returned.
func (lp *Loop) Wait() {
	lp.workers.Wait()
}

// Pending returns the number of queued tasks of both priorities.
func (lp *Loop) Pending() int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	return len(lp.normal) + len(lp.idle)
}

func (lp *Loop) push(task Task, idle bool) bool {
	lp.mu.Lock()

	if lp.stopped {
		lp.mu.Unlock()
		return false
	}

	if idle {
		lp.idle = append(lp.idle, task)
	} else {
		lp.normal = append(lp.normal, task)
	}

	lp.mu.Unlock()

	lp.signal()

	return true
}

func (lp *Loop) next() (Task, bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.stopped {
		return nil, true
	}

	var task Task

	switch {
	case len(lp.normal) > 0:
		task, lp.normal = lp.normal[0], lp.normal[1:]
	case len(lp.idle) > 0:
		task, lp.idle = lp.idle[0], lp.idle[1:]
	}

	return task, false
}

func (lp *Loop) signal() {
	select {
	case lp.wake <- struct{}{}:
	default:
	}
}
