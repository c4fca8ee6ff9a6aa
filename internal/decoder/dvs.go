package decoder

import "github.com/behrlich/go-davis/internal/events"

// chipDAVIS208PreAmpCutoff is the DAVIS208 column below which the analog
// front end has inverted polarity sense (spec.md §4.4 code 2/3).
const chipDAVIS208PreAmpCutoff = 192

// applyDVSY handles code 1: a Y address. If a Y is already latched, the
// previous one is flushed as an orphan DVS_ROW_ONLY special event, stamped
// with the current reconstructed timestamp at flush time — not the stale
// timestamp in effect when the orphaned Y first latched (spec.md
// invariant 4).
func applyDVSY(s *State, data uint16) {
	if data >= s.Cfg.DVSSizeY {
		s.Log.Warnf("dvs y out of range: %d >= %d", data, s.Cfg.DVSSizeY)
		return
	}
	if s.DVSGotY {
		emitDVSRowOnly(s, s.DVSLastY)
	}
	s.DVSLastY = data
	s.DVSGotY = true
}

// applyDVSX handles codes 2 (OFF) and 3 (ON): a polarity event, paired with
// the latched Y and stamped with the current reconstructed timestamp at
// pairing time (spec.md §4.4 code 2/3) — ticks between the Y and X words
// advance the timestamp the pair is reported with.
func applyDVSX(s *State, data uint16, on bool) {
	if data >= s.Cfg.DVSSizeX {
		s.Log.Warnf("dvs x out of range: %d >= %d", data, s.Cfg.DVSSizeX)
		return
	}
	if s.Cfg.Chip == ChipDAVIS208 && data < chipDAVIS208PreAmpCutoff {
		on = !on
	}

	x, y := data, s.DVSLastY
	if s.Cfg.DVSInvertXY {
		x, y = y, x
	}

	s.Polarity.Append(events.Polarity{
		TimestampUs: uint32(s.CurrentTS),
		X:           x,
		Y:           y,
		On:          on,
	})
	s.Sink.CommitCheck(s, ModalityPolarity)
	s.DVSGotY = false
}

func emitDVSRowOnly(s *State, y uint16) {
	s.Special.Append(events.Special{
		TimestampUs: uint32(s.CurrentTS),
		Kind:        events.SpecialDVSRowOnly,
		Data:        uint32(y),
	})
	s.Sink.CommitCheck(s, ModalitySpecial)
}
