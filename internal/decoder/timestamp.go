package decoder

// applyTimestampTick handles a wire word with the top bit set: the 15-bit
// tick field becomes current_ts = wrap_add + tick (spec.md §4.3).
func applyTimestampTick(s *State, word uint16) {
	tick := uint32(word & 0x7FFF)
	updateCurrentTS(s, int32(s.WrapAdd+tick))
}

// applyTimestampWrap handles code 7: the tick counter rolled over. The
// multiplier in data scales 0x8000us per wrap, and the new current_ts is
// republished as wrap_add itself.
func applyTimestampWrap(s *State, data uint16) {
	s.WrapAdd += 0x8000 * uint32(data)
	updateCurrentTS(s, int32(s.WrapAdd))
}

// updateCurrentTS advances last_ts to the outgoing current_ts, installs ts
// as the new current_ts, and checks monotonicity (logged, non-fatal per
// invariant 1).
func updateCurrentTS(s *State, ts int32) {
	s.LastTS = s.CurrentTS
	s.CurrentTS = ts
	if s.CurrentTS < s.LastTS {
		s.Log.Warnf("non-monotonic timestamp: current=%d last=%d", s.CurrentTS, s.LastTS)
	}
}
