package decoder

import (
	"github.com/behrlich/go-davis/internal/constants"
	"github.com/behrlich/go-davis/internal/events"
)

// Special subtypes, the data field of a code-0 word (spec.md §4.4).
const (
	specialReserved               = 0
	specialTimestampReset         = 1
	specialExternalInputFalling   = 2
	specialExternalInputRising    = 3
	specialExternalInputPulse     = 4
	specialIMU6Start              = 5
	specialIMU6End                = 7
	specialAPSFrameStartGS        = 8
	specialAPSFrameStartRS        = 9
	specialAPSFrameEnd            = 10
	specialAPSResetColumnStart    = 11
	specialAPSSignalColumnStart   = 12
	specialAPSColumnEnd           = 13
	specialAPSFrameStartGSNoReset = 14
	specialAPSFrameStartRSNoReset = 15
	specialIMUScaleConfigMin      = 16
	specialIMUScaleConfigMax      = 31
)

// applySpecial dispatches a code-0 word on its 12-bit data field.
func applySpecial(s *State, data uint16) {
	switch {
	case data == specialReserved:
		s.Log.Errorf("reserved special subtype 0")
	case data == specialTimestampReset:
		s.Special.Append(events.Special{
			TimestampUs: constants.TimestampResetMarker,
			Kind:        events.SpecialTimestampReset,
		})
		s.ResetOnTimestampReset()
	case data == specialExternalInputFalling:
		emitExternalInput(s, events.SpecialExternalInputFalling)
	case data == specialExternalInputRising:
		emitExternalInput(s, events.SpecialExternalInputRising)
	case data == specialExternalInputPulse:
		emitExternalInput(s, events.SpecialExternalInputPulse)
	case data == specialIMU6Start:
		imuStart(s)
	case data == specialIMU6End:
		imuEnd(s)
	case data == specialAPSFrameStartGS:
		apsStartFrame(s, true, true, false)
	case data == specialAPSFrameStartRS:
		apsStartFrame(s, false, true, false)
	case data == specialAPSFrameEnd:
		apsEndFrame(s)
	case data == specialAPSResetColumnStart:
		apsStartColumn(s, PhaseReset)
	case data == specialAPSSignalColumnStart:
		apsStartColumn(s, PhaseSignal)
	case data == specialAPSColumnEnd:
		apsEndColumn(s)
	case data == specialAPSFrameStartGSNoReset:
		apsStartFrame(s, true, false, true)
	case data == specialAPSFrameStartRSNoReset:
		apsStartFrame(s, false, false, true)
	case data >= specialIMUScaleConfigMin && data <= specialIMUScaleConfigMax:
		imuScaleConfig(s, data)
	default:
		s.Log.Errorf("unknown special subtype %d", data)
	}
}

func emitExternalInput(s *State, kind events.SpecialKind) {
	s.Special.Append(events.Special{
		TimestampUs: uint32(s.CurrentTS),
		Kind:        kind,
	})
	s.Sink.CommitCheck(s, ModalitySpecial)
}
