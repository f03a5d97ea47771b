// Package debounce delays a call until its input has been quiet for a fixed
// window. Each Trigger restarts the window; only the last value is delivered.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the search debounce window.
const DefaultDelay = 500 * time.Millisecond

// Debouncer delivers the last triggered value once delay has passed without
// another Trigger. Superseded values are dropped, never delivered.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending T
	gen     uint64
	armed   bool
	stopped bool

	running int // calls of fn in progress
	idle    *sync.Cond
}

// New creates a debouncer calling fn. A non-positive delay uses DefaultDelay.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer[T]{delay: delay, fn: fn}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger schedules fn(v), cancelling any call still waiting.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending = v
	d.armed = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush delivers the waiting value now. It reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	v, ok := d.take(0)
	if ok {
		d.run(v)
	}
	return ok
}

// Wait blocks until no call of fn is in progress. A call started by the
// timer before Flush is waited for too.
func (d *Debouncer[T]) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.running > 0 {
		d.idle.Wait()
	}
}

// Stop drops the waiting value and ignores later triggers.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	if v, ok := d.take(gen); ok {
		d.run(v)
	}
}

// run calls fn for a value claimed by take.
func (d *Debouncer[T]) run(v T) {
	defer func() {
		d.mu.Lock()
		d.running--
		if d.running == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	d.fn(v)
}

// take claims the waiting value and counts the call it is claimed for. A
// non-zero gen must match the latest Trigger, so a timer that fired while
// being replaced delivers nothing.
func (d *Debouncer[T]) take(gen uint64) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if !d.armed || (gen != 0 && gen != d.gen) {
		return zero, false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.pending
	d.pending = zero
	d.armed = false
	d.running++
	return v, true
}
