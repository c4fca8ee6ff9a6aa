package davis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behrlich/go-davis/internal/events"
)

func TestMetricsRecordConsumed(t *testing.T) {
	m := NewMetrics()
	p := events.NewPolarityPacket(4)
	p.Append(events.Polarity{})
	p.Append(events.Polarity{})

	fp := events.NewFramePacket(2)
	f1, _ := fp.Append()
	f1.Valid = true
	f2, _ := fp.Append()
	f2.Valid = false

	m.RecordConsumed(&events.Container{Polarity: p, Frame: fp})

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.PolarityEvents)
	assert.Equal(t, uint64(1), snap.FramesValid)
	assert.Equal(t, uint64(1), snap.FramesInvalid)
}

func TestMetricsRecordConsumedNilContainer(t *testing.T) {
	m := NewMetrics()
	m.RecordConsumed(nil)
	assert.Equal(t, uint64(0), m.Snapshot().PolarityEvents)
}

func TestMetricsRecordDrop(t *testing.T) {
	m := NewMetrics()
	s := events.NewSpecialPacket(4)
	s.Append(events.Special{Kind: events.SpecialDVSRowOnly})

	m.RecordDrop(&events.Container{Special: s})

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.SpecialDropped)
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()
	m.RecordQueueDepth(1)
	m.RecordQueueDepth(3)
	m.RecordQueueDepth(2)

	snap := m.Snapshot()
	assert.Equal(t, uint32(3), snap.MaxQueueDepth)
	assert.InDelta(t, 2.0, snap.AvgQueueDepth, 0.001)
}

func TestMetricsUptimeAfterStop(t *testing.T) {
	m := NewMetrics()
	m.MarkStarted()
	m.MarkStopped()

	snap := m.Snapshot()
	assert.GreaterOrEqual(t, snap.UptimeNs, uint64(0))
}

func TestMetricsSnapshotBeforeStart(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	assert.Equal(t, uint64(0), snap.UptimeNs)
}

func TestNoOpObserverSatisfiesInterface(t *testing.T) {
	var o Observer = NoOpObserver{}
	o.ObserveDrop(nil)
	o.ObserveQueueDepth(0)
}

func TestMetricsObserverDelegatesToMetrics(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObserveQueueDepth(5)

	snap := m.Snapshot()
	assert.Equal(t, uint32(5), snap.MaxQueueDepth)
}
