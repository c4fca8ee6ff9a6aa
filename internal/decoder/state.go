package decoder

import (
	"github.com/behrlich/go-davis/internal/events"
	"github.com/behrlich/go-davis/internal/logging"
)

// State is the decoder's entire mutable working set. It is created at Start,
// reset on TIMESTAMP_RESET, and destroyed at Stop. It is touched only by the
// acquisition goroutine — never shared, never locked.
type State struct {
	Cfg  Config
	Sink Sink
	Log  *logging.Logger

	// Timestamp reconstruction (C3).
	WrapAdd   uint32
	CurrentTS int32
	LastTS    int32

	// DVS Y/X pairing latch.
	DVSGotY  bool
	DVSLastY uint16

	// APS column/frame state machine.
	CurrentReadout   Phase
	CountX           [2]int
	CountY           [2]int
	GlobalShutter    bool
	ResetReadEnabled bool
	APSIgnoreEvents  bool
	RGBPixelOffset   int16
	RGBOffsetDir     RGBOffsetDirection
	ResetFrame       []uint16
	CurrentFrame     *events.Frame

	// IMU6 scatter-gather reassembly.
	IMUCount        uint8
	IMUTmpData      uint8
	IMUIgnoreEvents bool
	IMUAccelScale   float32
	IMUGyroScale    float32
	IMUInProgress   events.IMU6

	// In-progress packets, one per modality.
	Polarity *events.PolarityPacket
	Special  *events.SpecialPacket
	Frame    *events.FramePacket
	IMU6     *events.IMU6Packet

	// ForceCommit is raised by TIMESTAMP_RESET; the aging policy commits all
	// four packets unconditionally while it is set, and ResetOnTimestampReset
	// clears it once ForceCommitAll returns.
	ForceCommit bool
}

// New creates a decoder state with freshly allocated in-progress packets and
// a reset-frame staging buffer sized for the configured APS geometry.
func New(cfg Config, cap Capacities, sink Sink, log *logging.Logger) *State {
	if log == nil {
		log = logging.Default()
	}
	s := &State{
		Cfg:      cfg,
		Sink:     sink,
		Log:      log.Named("decoder"),
		Polarity: events.NewPolarityPacket(cap.Polarity),
		Special:  events.NewSpecialPacket(cap.Special),
		Frame:    events.NewFramePacket(cap.Frame),
		IMU6:     events.NewIMU6Packet(cap.IMU6),
	}
	s.allocateResetFrame()
	return s
}

func (s *State) allocateResetFrame() {
	n := int(s.Cfg.APSSizeX) * int(s.Cfg.APSSizeY) * frameChannels
	if n <= 0 {
		return
	}
	s.ResetFrame = make([]uint16, n)
}

// ResetOnTimestampReset implements the TIMESTAMP_RESET side effects of
// spec.md §4.3: wrap_add and both timestamps zeroed, and a forced commit of
// every in-progress packet.
//
// A frame may be mid-assembly when the reset arrives; ForceCommitAll hands
// the in-progress Frame packet off to the consumer and replaces it with a
// fresh one, but CurrentFrame still points at a pixel buffer inside that
// handed-off packet. Clearing it and raising APSIgnoreEvents resynchronizes
// the column state machine on the next frame-start marker instead of
// letting a late APS sample write into memory the consumer now owns
// (spec.md §7 protocol-state-loss).
func (s *State) ResetOnTimestampReset() {
	s.WrapAdd = 0
	s.CurrentTS = 0
	s.LastTS = 0
	s.DVSGotY = false
	s.ForceCommit = true
	if s.Sink != nil {
		s.Sink.ForceCommitAll(s)
	}
	s.ForceCommit = false
	s.CurrentFrame = nil
	s.APSIgnoreEvents = true
}
