// Package exchange implements the bounded single-producer/single-consumer
// queue of packet containers (spec.md C1) that hands completed acquisition
// work from the USB callback path to the consumer goroutine.
package exchange

import "github.com/behrlich/go-davis/internal/events"

// Buffer is a bounded SPSC queue of *events.Container. The zero value is
// not usable; construct with New.
//
// A buffered channel gives us the required memory-ordering guarantee for
// free: a send happens-before the corresponding receive completes, so all
// writes the producer made to a container's packets are visible to the
// consumer once it observes the handle. This is the same guarantee the
// teacher's pooled-buffer design relies on sync.Pool for, just applied to
// handoff instead of reuse.
type Buffer struct {
	ch         chan *events.Container
	onDecrease func()
}

// New creates an exchange buffer with the given capacity (spec.md §4.1
// default is 64, configured at Start).
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{ch: make(chan *events.Container, capacity)}
}

// SetOnDecrease installs the callback fired once per container that leaves
// the buffer, whether by Get/GetBlocking or by Drain (spec.md §6's
// notify-decrease half of the Start/Stop queue-depth contract).
func (b *Buffer) SetOnDecrease(fn func()) {
	b.onDecrease = fn
}

// Put enqueues container. Returns false (non-blocking) if the buffer is at
// capacity — spec.md invariant 5: overflow drops the newest packet.
func (b *Buffer) Put(container *events.Container) bool {
	select {
	case b.ch <- container:
		return true
	default:
		return false
	}
}

// Get returns the next container, or (nil, false) if the buffer is empty.
// Non-blocking.
func (b *Buffer) Get() (*events.Container, bool) {
	select {
	case c := <-b.ch:
		if b.onDecrease != nil {
			b.onDecrease()
		}
		return c, true
	default:
		return nil, false
	}
}

// GetBlocking returns the next container, blocking until one is available
// or stop is closed (in which case it returns (nil, false)).
func (b *Buffer) GetBlocking(stop <-chan struct{}) (*events.Container, bool) {
	select {
	case c := <-b.ch:
		if b.onDecrease != nil {
			b.onDecrease()
		}
		return c, true
	case <-stop:
		return nil, false
	}
}

// Len returns the number of containers currently queued.
func (b *Buffer) Len() int {
	return len(b.ch)
}

// Cap returns the configured capacity.
func (b *Buffer) Cap() int {
	return cap(b.ch)
}

// Drain removes every queued container, invoking onDrop for each (used at
// Stop to notify the consumer's data-available-decrease callback).
func (b *Buffer) Drain(onDrop func(*events.Container)) {
	for {
		select {
		case c := <-b.ch:
			if onDrop != nil {
				onDrop(c)
			}
			if b.onDecrease != nil {
				b.onDecrease()
			}
		default:
			return
		}
	}
}
