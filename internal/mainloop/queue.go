// Package mainloop provides the single execution context that owns all
// navigation state. Every router mutation and every change hook runs on the
// queue's goroutine, one function at a time, in the order posted.
package mainloop

import "sync"

const defaultBacklog = 128

// Queue runs posted functions serially on one goroutine.
type Queue struct {
	tasks chan func()
	done  chan struct{}
	idle  chan struct{}
	once  sync.Once
}

// New starts a queue with the default backlog.
func New() *Queue {
	return NewWithBacklog(defaultBacklog)
}

// NewWithBacklog starts a queue that buffers up to n pending functions
// before Post blocks.
func NewWithBacklog(n int) *Queue {
	q := &Queue{
		tasks: make(chan func(), n),
		done:  make(chan struct{}),
		idle:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.idle)
	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.done:
			return
		}
	}
}

// Post schedules fn and returns immediately. Returns false if the queue is
// closed, in which case fn never runs.
func (q *Queue) Post(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.tasks <- fn:
		return true
	case <-q.done:
		return false
	}
}

// Do runs fn on the queue and waits for it to return. Returns false if the
// queue is closed. Do must not be called from a function already running on
// the queue.
func (q *Queue) Do(fn func()) bool {
	finished := make(chan struct{})
	if !q.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-q.idle:
		// Closed while fn was pending; it may still have run.
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Close stops the queue after the currently running function returns and
// waits for the goroutine to exit. Pending functions are discarded. Safe to
// call more than once, but not from a function running on the queue.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
	<-q.idle
}
