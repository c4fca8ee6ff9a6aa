package davis

import (
	"sync/atomic"
	"time"

	"github.com/behrlich/go-davis/internal/events"
)

// Metrics tracks acquisition statistics for one Device across a Start/Stop
// cycle.
type Metrics struct {
	PolarityEvents atomic.Uint64
	SpecialEvents  atomic.Uint64
	FramesValid    atomic.Uint64
	FramesInvalid  atomic.Uint64
	IMU6Samples    atomic.Uint64

	PolarityDropped atomic.Uint64
	SpecialDropped  atomic.Uint64
	FramesDropped   atomic.Uint64
	IMU6Dropped     atomic.Uint64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	StartTime atomic.Int64 // UnixNano
	StopTime  atomic.Int64
}

// NewMetrics creates a new, unstarted metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// MarkStarted records the acquisition start time.
func (m *Metrics) MarkStarted() {
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MarkStopped records the acquisition stop time.
func (m *Metrics) MarkStopped() {
	m.StopTime.Store(time.Now().UnixNano())
}

// RecordConsumed tallies the events and frames in a container the caller has
// retrieved via Device.Get/GetBlocking.
func (m *Metrics) RecordConsumed(c *events.Container) {
	if c == nil {
		return
	}
	if c.Polarity != nil {
		m.PolarityEvents.Add(uint64(c.Polarity.Len()))
	}
	if c.Special != nil {
		m.SpecialEvents.Add(uint64(c.Special.Len()))
	}
	if c.Frame != nil {
		for _, f := range c.Frame.Slice() {
			if f.Valid {
				m.FramesValid.Add(1)
			} else {
				m.FramesInvalid.Add(1)
			}
		}
	}
	if c.IMU6 != nil {
		m.IMU6Samples.Add(uint64(c.IMU6.Len()))
	}
}

// RecordDrop tallies a container dropped at Stop-time drain.
func (m *Metrics) RecordDrop(c *events.Container) {
	if c == nil {
		return
	}
	if c.Polarity != nil {
		m.PolarityDropped.Add(uint64(c.Polarity.Len()))
	}
	if c.Special != nil {
		m.SpecialDropped.Add(uint64(c.Special.Len()))
	}
	if c.Frame != nil {
		m.FramesDropped.Add(uint64(c.Frame.Len()))
	}
	if c.IMU6 != nil {
		m.IMU6Dropped.Add(uint64(c.IMU6.Len()))
	}
}

// RecordQueueDepth records one exchange-buffer occupancy sample.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to read without
// further synchronization.
type MetricsSnapshot struct {
	PolarityEvents  uint64
	SpecialEvents   uint64
	FramesValid     uint64
	FramesInvalid   uint64
	IMU6Samples     uint64
	PolarityDropped uint64
	SpecialDropped  uint64
	FramesDropped   uint64
	IMU6Dropped     uint64
	AvgQueueDepth   float64
	MaxQueueDepth   uint32
	UptimeNs        uint64
}

// Snapshot copies the current counters into a MetricsSnapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		PolarityEvents:  m.PolarityEvents.Load(),
		SpecialEvents:   m.SpecialEvents.Load(),
		FramesValid:     m.FramesValid.Load(),
		FramesInvalid:   m.FramesInvalid.Load(),
		IMU6Samples:     m.IMU6Samples.Load(),
		PolarityDropped: m.PolarityDropped.Load(),
		SpecialDropped:  m.SpecialDropped.Load(),
		FramesDropped:   m.FramesDropped.Load(),
		IMU6Dropped:     m.IMU6Dropped.Load(),
		MaxQueueDepth:   m.MaxQueueDepth.Load(),
	}

	if count := m.QueueDepthCount.Load(); count > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(count)
	}

	start := m.StartTime.Load()
	if start == 0 {
		return snap
	}
	stop := m.StopTime.Load()
	if stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}
	return snap
}

// Observer is a pluggable sink for acquisition events, mirrored on the
// built-in Metrics but swappable via Device.SetObserver.
type Observer interface {
	// ObserveDrop is called once per container drained from the exchange
	// buffer at Stop. Packets dropped under backpressure inside the
	// acquisition pipeline are not reported here.
	ObserveDrop(c *events.Container)

	// ObserveQueueDepth is called on every exchange-buffer occupancy change,
	// from the notify-increase/notify-decrease callback pair of spec.md §6
	// Start/Stop; depth is the number of containers queued after the change.
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveDrop(*events.Container) {}
func (NoOpObserver) ObserveQueueDepth(uint32)       {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveDrop(c *events.Container) {
	o.metrics.RecordDrop(c)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
