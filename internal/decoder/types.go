// Package decoder implements the byte-to-event translation pipeline
// (spec.md C3 Timestamp Reconstructor + C4 Event Decoder): a pure function
// over (byte slice, decoder state) that produces typed events, mutates
// in-progress packets, and drives the APS/IMU sub-state-machines. It never
// blocks and allocates only each new APS frame's pixel array — packet allocation
// happens only at commit, which is the aging policy's (C5) responsibility,
// invoked here through the Sink interface.
package decoder

// Modality identifies which of the four in-progress packets an event was
// just appended to, so the aging policy knows which one to re-evaluate.
type Modality uint8

const (
	ModalityPolarity Modality = iota
	ModalitySpecial
	ModalityFrame
	ModalityIMU6
)

// Sink is implemented by the packet-aging policy (internal/aging). The
// decoder calls it after every event append so aging can apply its
// capacity/time-budget/force-commit rules and — on commit — replace the
// packet in State with a freshly allocated one.
type Sink interface {
	// CommitCheck re-evaluates the named modality's in-progress packet.
	CommitCheck(s *State, m Modality)

	// ForceCommitAll is called once per TIMESTAMP_RESET: every in-progress
	// packet must be committed unconditionally, even if empty policies would
	// otherwise leave it open.
	ForceCommitAll(s *State)
}

// ChipID selects chip-specific decode quirks (spec.md §4.4).
type ChipID uint8

const (
	ChipGeneric ChipID = iota
	ChipDAVIS208
	ChipDAVISRGB
)

// Phase is the current APS column-readout phase.
type Phase uint8

const (
	PhaseReset Phase = iota
	PhaseSignal
)

// RGBOffsetDirection tracks the DAVIS-RGB striped-readout walk direction.
type RGBOffsetDirection uint8

const (
	RGBOffsetInc RGBOffsetDirection = iota
	RGBOffsetDec
)

// Config carries the geometry and chip identity fetched at Open/Start; it is
// immutable for the life of a decoder State.
type Config struct {
	DVSSizeX, DVSSizeY           uint16
	APSSizeX, APSSizeY           uint16
	Window0StartX, Window0StartY uint16
	Chip                         ChipID
	DVSInvertXY                  bool
	APSInvertXY, FlipX, FlipY    bool
}

// Capacities configures the initial allocation size of each in-progress
// packet (spec.md §4.5 defaults live in internal/constants).
type Capacities struct {
	Polarity int
	Special  int
	Frame    int
	IMU6     int
}

// frameChannels is 1 for every currently-specified DAVIS sensor: pixel data
// is grayscale. Kept as a named constant rather than a magic number at call
// sites that build frame pixel arrays.
const frameChannels = 1
