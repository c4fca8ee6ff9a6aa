// Package aging implements the packet aging and commit policy (spec.md C5):
// four independent per-modality rules that decide when an in-progress packet
// is handed to the exchange buffer, and that allocate its replacement.
package aging

import (
	"time"

	"github.com/behrlich/go-davis/internal/constants"
	"github.com/behrlich/go-davis/internal/decoder"
	"github.com/behrlich/go-davis/internal/events"
	"github.com/behrlich/go-davis/internal/exchange"
	"github.com/behrlich/go-davis/internal/logging"
)

// Callbacks notifies the consumer when a commit enqueues a container,
// the notify-increase half of the pair Start takes (spec.md §6 Start
// operation). The notify-decrease half fires on dequeue, where the
// exchange buffer itself is wired directly (see exchange.Buffer.SetOnDecrease)
// since Policy never dequeues.
type Callbacks struct {
	OnIncrease func()
}

// Policy implements decoder.Sink: it owns the per-modality capacity and
// time-budget thresholds, commits full packets to an exchange.Buffer, and
// allocates replacements.
type Policy struct {
	buf  *exchange.Buffer
	caps decoder.Capacities
	log  *logging.Logger
	cb   Callbacks
	stop <-chan struct{}

	polarityIntervalUs uint32
	specialIntervalUs  uint32
	frameIntervalUs    uint32
	imu6IntervalUs     uint32
}

// Config carries the four per-modality time budgets (spec.md §4.5 table);
// Capacities is threaded through separately since decoder.State already owns
// it for initial allocation sizing.
type Config struct {
	PolarityInterval time.Duration
	SpecialInterval  time.Duration
	FrameInterval    time.Duration
	IMU6Interval     time.Duration
}

// DefaultConfig returns the spec.md §4.5 default intervals.
func DefaultConfig() Config {
	return Config{
		PolarityInterval: constants.DefaultPolarityInterval,
		SpecialInterval:  constants.DefaultSpecialInterval,
		FrameInterval:    constants.DefaultFrameInterval,
		IMU6Interval:     constants.DefaultIMU6Interval,
	}
}

// New creates a Policy that commits into buf using the given time budgets
// and packet capacities (the latter also used to size replacement packets).
// stop, if non-nil, lets the force-commit spin-retry (see offer) abort on
// worker shutdown instead of blocking Stop forever under backpressure.
func New(buf *exchange.Buffer, cfg Config, caps decoder.Capacities, cb Callbacks, stop <-chan struct{}, log *logging.Logger) *Policy {
	if log == nil {
		log = logging.Default()
	}
	return &Policy{
		buf:                buf,
		caps:               caps,
		log:                log.Named("aging"),
		cb:                 cb,
		stop:               stop,
		polarityIntervalUs: uint32(cfg.PolarityInterval.Microseconds()),
		specialIntervalUs:  uint32(cfg.SpecialInterval.Microseconds()),
		frameIntervalUs:    uint32(cfg.FrameInterval.Microseconds()),
		imu6IntervalUs:     uint32(cfg.IMU6Interval.Microseconds()),
	}
}

// CommitCheck implements decoder.Sink. It re-evaluates the single modality
// that was just touched: commit fires on force-commit, capacity, or the
// configured time budget being exceeded (spec.md §4.5).
func (p *Policy) CommitCheck(s *decoder.State, m decoder.Modality) {
	switch m {
	case decoder.ModalityPolarity:
		if s.ForceCommit || s.Polarity.Full() || s.Polarity.SpanUs() >= p.polarityIntervalUs {
			p.commitPolarity(s)
		}
	case decoder.ModalitySpecial:
		if s.ForceCommit || s.Special.Full() || s.Special.SpanUs() >= p.specialIntervalUs {
			p.commitSpecial(s)
		}
	case decoder.ModalityFrame:
		if s.ForceCommit || s.Frame.Full() || s.Frame.SpanUs() >= p.frameIntervalUs {
			p.commitFrame(s)
		}
	case decoder.ModalityIMU6:
		if s.ForceCommit || s.IMU6.Full() || s.IMU6.SpanUs() >= p.imu6IntervalUs {
			p.commitIMU6(s)
		}
	}
}

// ForceCommitAll implements decoder.Sink, used once per TIMESTAMP_RESET:
// every non-empty in-progress packet is committed, and empty ones too when
// s.ForceCommit is set (as it is during a TIMESTAMP_RESET).
func (p *Policy) ForceCommitAll(s *decoder.State) {
	if !s.Polarity.Empty() || s.ForceCommit {
		p.commitPolarity(s)
	}
	if !s.Special.Empty() || s.ForceCommit {
		p.commitSpecial(s)
	}
	if !s.Frame.Empty() || s.ForceCommit {
		p.commitFrame(s)
	}
	if !s.IMU6.Empty() || s.ForceCommit {
		p.commitIMU6(s)
	}
}

func (p *Policy) offer(container *events.Container, spin bool) bool {
	if p.buf.Put(container) {
		if p.cb.OnIncrease != nil {
			p.cb.OnIncrease()
		}
		return true
	}
	if !spin {
		return false
	}
	// Timestamp-critical packets must never be lost: spin-retry until the
	// consumer drains room (spec.md §4.5, invariant 5's one exception) or
	// the worker is asked to stop, whichever comes first — a spin with no
	// way out would make Worker.Stop hang forever under backpressure.
	ticker := time.NewTicker(time.Microsecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			p.log.Warnf("force-commit spin aborted on stop, packet dropped")
			return false
		case <-ticker.C:
			if p.buf.Put(container) {
				if p.cb.OnIncrease != nil {
					p.cb.OnIncrease()
				}
				return true
			}
		}
	}
}

func (p *Policy) commitPolarity(s *decoder.State) {
	ok := p.offer(&events.Container{Polarity: s.Polarity}, false)
	if !ok {
		p.log.Warnf("polarity packet dropped under backpressure")
	}
	s.Polarity = events.NewPolarityPacket(p.caps.Polarity)
}

func (p *Policy) commitSpecial(s *decoder.State) {
	// A Special packet containing a TIMESTAMP_RESET is the one packet that
	// must never be dropped; force-commit is our proxy for "this packet may
	// carry that marker", since TIMESTAMP_RESET always forces commit.
	spin := s.ForceCommit
	ok := p.offer(&events.Container{Special: s.Special}, spin)
	if !ok {
		p.log.Warnf("special packet dropped under backpressure")
	}
	s.Special = events.NewSpecialPacket(p.caps.Special)
}

func (p *Policy) commitFrame(s *decoder.State) {
	ok := p.offer(&events.Container{Frame: s.Frame}, false)
	if !ok {
		p.log.Warnf("frame packet dropped under backpressure")
		s.APSIgnoreEvents = true
	}
	s.Frame = events.NewFramePacket(p.caps.Frame)
}

func (p *Policy) commitIMU6(s *decoder.State) {
	ok := p.offer(&events.Container{IMU6: s.IMU6}, false)
	if !ok {
		p.log.Warnf("imu6 packet dropped under backpressure")
		s.IMUIgnoreEvents = true
	}
	s.IMU6 = events.NewIMU6Packet(p.caps.IMU6)
}
