package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-davis/internal/events"
)

func TestBufferPutGet(t *testing.T) {
	b := New(2)
	c1 := &events.Container{}
	c2 := &events.Container{}
	c3 := &events.Container{}

	assert.True(t, b.Put(c1), "expected first put to succeed")
	assert.True(t, b.Put(c2), "expected second put to succeed")
	assert.False(t, b.Put(c3), "expected put at capacity to fail (overflow drops newest)")

	got, ok := b.Get()
	require.True(t, ok)
	assert.Same(t, c1, got, "expected FIFO order")

	got, ok = b.Get()
	require.True(t, ok)
	assert.Same(t, c2, got)

	_, ok = b.Get()
	assert.False(t, ok, "expected empty buffer to return false")
}

func TestBufferGetBlockingReturnsOnData(t *testing.T) {
	b := New(4)
	stop := make(chan struct{})
	done := make(chan *events.Container, 1)

	go func() {
		c, ok := b.GetBlocking(stop)
		if ok {
			done <- c
		} else {
			done <- nil
		}
	}()

	time.Sleep(10 * time.Millisecond)
	c := &events.Container{}
	b.Put(c)

	select {
	case got := <-done:
		assert.Same(t, c, got, "expected container delivered")
	case <-time.After(time.Second):
		require.Fail(t, "GetBlocking did not return after Put")
	}
}

func TestBufferGetBlockingReturnsOnStop(t *testing.T) {
	b := New(4)
	stop := make(chan struct{})
	done := make(chan bool, 1)

	go func() {
		_, ok := b.GetBlocking(stop)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	close(stop)

	select {
	case ok := <-done:
		assert.False(t, ok, "expected GetBlocking to return false after stop")
	case <-time.After(time.Second):
		require.Fail(t, "GetBlocking did not unblock on stop")
	}
}

func TestBufferDrain(t *testing.T) {
	b := New(4)
	b.Put(&events.Container{})
	b.Put(&events.Container{})

	var dropped int
	b.Drain(func(*events.Container) { dropped++ })

	assert.Equal(t, 2, dropped)
	assert.Equal(t, 0, b.Len(), "expected buffer empty after drain")
}

func TestBufferOnDecreaseFiresOnGet(t *testing.T) {
	b := New(4)
	var decreases int
	b.SetOnDecrease(func() { decreases++ })

	b.Put(&events.Container{})
	_, ok := b.Get()
	require.True(t, ok)
	assert.Equal(t, 1, decreases)

	// Get on an empty buffer must not fire the callback.
	_, ok = b.Get()
	require.False(t, ok)
	assert.Equal(t, 1, decreases)
}

func TestBufferOnDecreaseFiresPerContainerOnDrain(t *testing.T) {
	b := New(4)
	var decreases int
	b.SetOnDecrease(func() { decreases++ })

	b.Put(&events.Container{})
	b.Put(&events.Container{})
	b.Drain(func(*events.Container) {})

	assert.Equal(t, 2, decreases)
}
