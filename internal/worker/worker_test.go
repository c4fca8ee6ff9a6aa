package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-davis/internal/aging"
	"github.com/behrlich/go-davis/internal/decoder"
	"github.com/behrlich/go-davis/internal/events"
	"github.com/behrlich/go-davis/internal/transfer"
)

// fakeRing feeds a fixed sequence of payloads once, then blocks until its
// context expires on every subsequent Pump call (mimicking an idle device).
type fakeRing struct {
	payloads [][]byte
	idx      int32
	started  int32
	stopped  int32
}

func (r *fakeRing) Start() error {
	atomic.StoreInt32(&r.started, 1)
	return nil
}

func (r *fakeRing) Pump(ctx context.Context, sink transfer.Sink) error {
	i := atomic.AddInt32(&r.idx, 1) - 1
	if int(i) < len(r.payloads) {
		sink(r.payloads[i])
		return nil
	}
	<-ctx.Done()
	return nil
}

func (r *fakeRing) Stop() {
	atomic.StoreInt32(&r.stopped, 1)
}

func wordsToPayload(words ...uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8))
	}
	return out
}

func TestWorkerStartFeedsExchangeBuffer(t *testing.T) {
	ring := &fakeRing{payloads: [][]byte{
		wordsToPayload(0x1005, 0x2003), // Y=5, X=3 OFF -> one polarity event
	}}

	cfg := Config{
		Ring:          ring,
		DecoderConfig: decoder.Config{DVSSizeX: 240, DVSSizeY: 180},
		Capacities:    decoder.Capacities{Polarity: 1, Special: 4, Frame: 1, IMU6: 1},
		AgingConfig: aging.Config{
			PolarityInterval: time.Hour,
			SpecialInterval:  time.Hour,
			FrameInterval:    time.Hour,
			IMU6Interval:     time.Hour,
		},
		ExchangeSize: 4,
	}
	w := New(cfg)

	require.NoError(t, w.Start())
	assert.Equal(t, errAlreadyRunning, w.Start())

	var container *events.Container
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, ok := w.Buffer().Get(); ok {
			container = c
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop(nil)

	assert.Equal(t, int32(1), atomic.LoadInt32(&ring.started), "expected ring.Start to be called")
	assert.Equal(t, int32(1), atomic.LoadInt32(&ring.stopped), "expected ring.Stop to be called")
	require.NotNil(t, container, "expected a container to reach the exchange buffer")
}

func TestWorkerStopDrainsBuffer(t *testing.T) {
	ring := &fakeRing{}
	cfg := Config{
		Ring:          ring,
		DecoderConfig: decoder.Config{DVSSizeX: 240, DVSSizeY: 180},
		Capacities:    decoder.Capacities{Polarity: 4, Special: 4, Frame: 1, IMU6: 1},
		AgingConfig: aging.Config{
			PolarityInterval: time.Millisecond,
			SpecialInterval:  time.Hour,
			FrameInterval:    time.Hour,
			IMU6Interval:     time.Hour,
		},
		ExchangeSize: 4,
	}
	w := New(cfg)
	require.NoError(t, w.Start())

	w.Buffer().Put(&events.Container{})
	w.Buffer().Put(&events.Container{})

	var dropped int
	w.Stop(func(*events.Container) { dropped++ })

	assert.NotZero(t, dropped, "expected Stop to drain leftover containers")
}
