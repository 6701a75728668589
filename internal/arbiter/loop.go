package arbiter

import (
	"context"
	"sync"
)

// resolution is one deferred delegate response waiting to be applied on the
// arbiter's owning context.
type resolution struct {
	respond ResponseFunc
	handled bool
}

// resolutionQueue is a thread-safe FIFO queue of deferred responses.
//
// The queue is unbounded so a burst of delegate responses never blocks the
// responding goroutine. Thread-safety covers external enqueuing (delegates
// on other goroutines) while the owning context drains.
//
// A buffered signal channel (size 1) coalesces wakeups and enables
// context-aware waiting in Run.
type resolutionQueue struct {
	mu     sync.Mutex
	items  []resolution
	closed bool
	signal chan struct{}
}

func newResolutionQueue() *resolutionQueue {
	return &resolutionQueue{
		items:  make([]resolution, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// enqueue adds a resolution to the back of the queue.
// Safe from any goroutine. Returns false if the queue is closed.
func (q *resolutionQueue) enqueue(r resolution) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, r)

	// Non-blocking send: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// tryDequeue removes the front resolution without blocking.
func (q *resolutionQueue) tryDequeue() (resolution, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return resolution{}, false
	}

	r := q.items[0]

	// Nil out the slot so the ResponseFunc closure can be collected.
	q.items[0] = resolution{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return r, true
}

// wait returns a channel that signals when resolutions may be available.
func (q *resolutionQueue) wait() <-chan struct{} {
	return q.signal
}

// close marks the queue closed and wakes all waiters.
func (q *resolutionQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Loop marshals delegate responses produced on other goroutines back onto
// the arbiter's owning context.
//
// The arbiter performs no locking, so a delegate that decides off-context
// (a round-trip to a UI runtime, an RPC) must not invoke its ResponseFunc
// directly. Instead it posts through the Loop, and the owning context
// applies queued responses either by pumping inside its existing message
// loop or by dedicating a goroutine to Run.
//
// Usage from a platform message loop:
//
//	loop := arbiter.NewLoop()
//	// each iteration, after draining platform messages:
//	loop.Pump()
//
// Usage as a dedicated owning goroutine:
//
//	go loop.Run(ctx)
type Loop struct {
	queue *resolutionQueue
}

// NewLoop creates an empty response loop.
func NewLoop() *Loop {
	return &Loop{queue: newResolutionQueue()}
}

// Post schedules a delegate response to be applied on the owning context.
// Safe from any goroutine. Returns false after Close.
func (l *Loop) Post(respond ResponseFunc, handled bool) bool {
	return l.queue.enqueue(resolution{respond: respond, handled: handled})
}

// Pump applies all currently queued responses and returns the number
// applied. Must be called from the owning context.
func (l *Loop) Pump() int {
	applied := 0
	for {
		r, ok := l.queue.tryDequeue()
		if !ok {
			return applied
		}
		r.respond(r.handled)
		applied++
	}
}

// Run applies responses until ctx is cancelled or the loop is closed.
// The calling goroutine becomes the owning context: all other arbiter
// access must happen from the same goroutine.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Pump()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-l.queue.wait():
			if !ok {
				// Closed: drain what is left and stop.
				l.Pump()
				return nil
			}
		}
	}
}

// Close stops accepting posts and wakes Run.
func (l *Loop) Close() {
	l.queue.close()
}
