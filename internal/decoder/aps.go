package decoder

import "github.com/behrlich/go-davis/internal/constants"

// rgbOffsetSwitchAt / rgbOffsetResumeAt reproduce the DAVIS-RGB striped
// readout layout: the first 320 rows are read even-indexed, then the walk
// reverses (spec.md §4.4.1).
const (
	rgbOffsetSwitchAt = 321
	rgbOffsetResumeAt = 318
	rgbOffsetStep     = 3
)

// apsStartFrame handles codes 8/9/14/15: a new frame begins. globalShutter
// selects GS vs RS; resetRead selects whether reset-phase reads occur at
// all; stampExposureNow is set for codes 14/15 where reset reads are
// disabled and exposure effectively starts with the frame.
func apsStartFrame(s *State, globalShutter, resetRead, stampExposureNow bool) {
	s.CurrentReadout = PhaseReset
	s.CountX = [2]int{}
	s.CountY = [2]int{}
	s.APSIgnoreEvents = false
	s.GlobalShutter = globalShutter
	s.ResetReadEnabled = resetRead

	f, ok := s.Frame.Append()
	if !ok {
		s.Log.Warnf("frame packet full, dropping frame start")
		s.APSIgnoreEvents = true
		return
	}
	f.TSStartOfFrame = uint32(s.CurrentTS)
	f.Width = int(s.Cfg.APSSizeX)
	f.Height = int(s.Cfg.APSSizeY)
	f.Channels = frameChannels
	f.Pixels = make([]uint16, f.Width*f.Height*f.Channels)
	f.Valid = false
	s.CurrentFrame = f

	if stampExposureNow {
		f.TSStartOfExposure = uint32(s.CurrentTS)
	}
}

// apsStartColumn handles codes 11 (reset) and 12 (signal).
func apsStartColumn(s *State, phase Phase) {
	if s.APSIgnoreEvents || s.CurrentFrame == nil {
		return
	}
	s.CurrentReadout = phase
	s.CountY[phase] = 0
	s.RGBOffsetDir = RGBOffsetInc
	s.RGBPixelOffset = 1

	switch phase {
	case PhaseReset:
		if !s.GlobalShutter && s.CountX[PhaseReset] == 0 {
			s.CurrentFrame.TSStartOfExposure = uint32(s.CurrentTS)
		}
	case PhaseSignal:
		if s.CountX[PhaseSignal] == 0 {
			s.CurrentFrame.TSEndOfExposure = uint32(s.CurrentTS)
		}
	}
}

// apsSample handles code 4: one ADC reading for the current column.
func apsSample(s *State, data uint16) {
	if s.APSIgnoreEvents || s.CurrentFrame == nil {
		return
	}
	phase := s.CurrentReadout
	f := s.CurrentFrame

	if s.CountY[phase] >= f.Height {
		return
	}

	xPos := s.CountX[phase]
	if s.Cfg.FlipX {
		xPos = f.Width - 1 - s.CountX[phase]
	}
	yPos := s.CountY[phase]
	if s.Cfg.FlipY {
		yPos = f.Height - 1 - s.CountY[phase]
	}
	if s.Cfg.Chip == ChipDAVISRGB {
		yPos += int(s.RGBPixelOffset)
	}
	if s.Cfg.APSInvertXY {
		xPos, yPos = yPos, xPos
	}

	linear := yPos*f.Width + xPos
	abs := (yPos+int(s.Cfg.Window0StartY))*int(s.Cfg.APSSizeX) + xPos + int(s.Cfg.Window0StartX)

	rgbGSSwap := s.Cfg.Chip == ChipDAVISRGB && s.GlobalShutter
	isResetWrite := (phase == PhaseReset) != rgbGSSwap

	if abs >= 0 && abs < len(s.ResetFrame) {
		switch {
		case isResetWrite:
			s.ResetFrame[abs] = data
		default:
			var pixel int32
			if rgbGSSwap {
				pixel = int32(data) - int32(s.ResetFrame[abs])
			} else {
				pixel = int32(s.ResetFrame[abs]) - int32(data)
			}
			if pixel < 0 {
				pixel = 0
			}
			if linear >= 0 && linear < len(f.Pixels) {
				f.Pixels[linear] = uint16(pixel) << (16 - constants.ADCDepth)
			}
		}
	}

	s.CountY[phase]++

	if s.Cfg.Chip == ChipDAVISRGB {
		walkRGBOffset(s)
	}
}

func walkRGBOffset(s *State) {
	switch s.RGBOffsetDir {
	case RGBOffsetInc:
		s.RGBPixelOffset++
		if s.RGBPixelOffset == rgbOffsetSwitchAt {
			s.RGBOffsetDir = RGBOffsetDec
			s.RGBPixelOffset = rgbOffsetResumeAt
		}
	case RGBOffsetDec:
		s.RGBPixelOffset -= rgbOffsetStep
	}
}

// apsEndColumn handles code 13.
func apsEndColumn(s *State) {
	if s.APSIgnoreEvents || s.CurrentFrame == nil {
		return
	}
	phase := s.CurrentReadout
	f := s.CurrentFrame
	if s.CountY[phase] != f.Height {
		s.Log.Errorf("aps column end: count_y[%d]=%d want %d", phase, s.CountY[phase], f.Height)
	}
	s.CountX[phase]++

	if s.GlobalShutter && phase == PhaseReset && s.CountX[PhaseReset] == f.Width {
		f.TSStartOfExposure = uint32(s.CurrentTS)
	}
}

// apsEndFrame handles code 10: validate counts and close out the frame.
func apsEndFrame(s *State) {
	if s.APSIgnoreEvents || s.CurrentFrame == nil {
		s.Sink.CommitCheck(s, ModalityFrame)
		return
	}
	f := s.CurrentFrame
	valid := true
	for phase := 0; phase < 2; phase++ {
		want := f.Width
		if Phase(phase) == PhaseReset && !s.ResetReadEnabled {
			want = 0
		}
		if s.CountX[phase] != want {
			s.Log.Errorf("aps frame end: count_x[%d]=%d want %d", phase, s.CountX[phase], want)
			valid = false
		}
	}
	f.TSEndOfFrame = uint32(s.CurrentTS)
	f.Valid = valid
	s.CurrentFrame = nil
	s.Sink.CommitCheck(s, ModalityFrame)
}
