package decoder

// Wire codes: the 3-bit field at bits 14..12 of a non-timestamp word
// (spec.md §6).
const (
	codeSpecial       = 0
	codeDVSY          = 1
	codeDVSXOff       = 2
	codeDVSXOn        = 3
	codeAPSSample     = 4
	codeMisc8         = 5
	codeTimestampWrap = 7
)

const timestampBit = 0x8000

// Decode consumes payload, an even-length byte slice from a bulk-IN
// transfer, and feeds every 16-bit little-endian word into state. An odd
// trailing byte is discarded with a warning (spec.md §4.4).
//
// Decode never blocks, and allocates only the pixel array of each new APS
// frame: packet commits are delegated to state.Sink, which runs
// synchronously on this same goroutine.
func Decode(s *State, payload []byte) {
	n := len(payload)
	if n%2 != 0 {
		s.Log.Warnf("truncating odd trailing byte from %d-byte payload", n)
		n--
	}
	for i := 0; i < n; i += 2 {
		word := uint16(payload[i]) | uint16(payload[i+1])<<8
		decodeWord(s, word)
	}
}

func decodeWord(s *State, word uint16) {
	if word&timestampBit != 0 {
		applyTimestampTick(s, word)
		return
	}

	code := (word >> 12) & 7
	data := word & 0x0FFF

	switch code {
	case codeSpecial:
		applySpecial(s, data)
	case codeDVSY:
		applyDVSY(s, data)
	case codeDVSXOff:
		applyDVSX(s, data, false)
	case codeDVSXOn:
		applyDVSX(s, data, true)
	case codeAPSSample:
		apsSample(s, data)
	case codeMisc8:
		decodeMisc8(s, data)
	case codeTimestampWrap:
		applyTimestampWrap(s, data)
	default:
		s.Log.Errorf("unknown event code %d", code)
	}
}

// decodeMisc8 handles code 5: high 4 bits select a sub-code, low 8 bits are
// payload. Sub-code 0 is the only one currently defined: one byte of the
// IMU6 reassembly (spec.md §4.4.2).
func decodeMisc8(s *State, data uint16) {
	subCode := (data >> 8) & 0xF
	payload := uint8(data & 0xFF)
	switch subCode {
	case 0:
		imuSample(s, payload)
	default:
		s.Log.Errorf("unknown misc8 sub-code %d", subCode)
	}
}
