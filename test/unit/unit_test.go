//go:build !integration

// Package unit drives the acquisition pipeline (decoder, packet aging,
// exchange buffer, worker) end to end through a fake transfer ring, without
// any real USB hardware.
package unit

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
	"github.com/behrlich/go-davis/internal/worker"
)

// fakeRing replays a fixed payload sequence once, then idles until its
// context expires, mimicking a quiet device after the initial burst.
type fakeRing struct {
	payloads [][]byte
	idx      int32
	stopped  int32
}

func (r *fakeRing) Start() error { return nil }

func (r *fakeRing) Pump(ctx context.Context, sink transfer.Sink) error {
	i := atomic.AddInt32(&r.idx, 1) - 1
	if int(i) < len(r.payloads) {
		sink(r.payloads[i])
		return nil
	}
	<-ctx.Done()
	return nil
}

func (r *fakeRing) Stop() { atomic.StoreInt32(&r.stopped, 1) }

func wordsToPayload(words ...uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8))
	}
	return out
}

func TestPipelineDeliversPolarityEvents(t *testing.T) {
	ring := &fakeRing{payloads: [][]byte{
		wordsToPayload(0x1005, 0x2003), // Y=5, X=3 OFF
		wordsToPayload(0x1007, 0x3009), // Y=7, X=9 ON
	}}

	w := worker.New(worker.Config{
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
	})

	require.NoError(t, w.Start())

	var total int
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && total < 2 {
		if c, ok := w.Buffer().Get(); ok && c.Polarity != nil {
			total += c.Polarity.Len()
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop(nil)

	assert.Equal(t, 2, total)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ring.stopped))
}

func TestPipelineDrainsOnStopWithoutLeak(t *testing.T) {
	ring := &fakeRing{}
	w := worker.New(worker.Config{
		Ring:          ring,
		DecoderConfig: decoder.Config{DVSSizeX: 240, DVSSizeY: 180},
		Capacities:    decoder.Capacities{Polarity: 8, Special: 4, Frame: 1, IMU6: 1},
		AgingConfig: aging.Config{
			PolarityInterval: time.Hour,
			SpecialInterval:  time.Hour,
			FrameInterval:    time.Hour,
			IMU6Interval:     time.Hour,
		},
		ExchangeSize: 2,
	})
	require.NoError(t, w.Start())

	w.Buffer().Put(&events.Container{})
	w.Buffer().Put(&events.Container{})

	var dropped int
	w.Stop(func(*events.Container) { dropped++ })

	assert.Equal(t, 2, dropped)

	_, ok := w.Buffer().Get()
	assert.False(t, ok, "buffer must be empty after Stop drains it")
}
