package astits

// ClockReference is a 33-bit base (90 kHz) plus 9-bit extension (27 MHz)
// timestamp, used for PCR, PTS and DTS per the GLOSSARY.
type ClockReference struct {
	base      uint64 // 33 bits, 90 kHz
	extension uint64 // 9 bits, 27 MHz
}

func newClockReference(base, extension uint64) ClockReference {
	return ClockReference{base: base & 0x1ffffffff, extension: extension & 0x1ff}
}

// Base returns the 90 kHz base value.
func (cr ClockReference) Base() uint64 { return cr.base }

// Extension returns the 27 MHz extension value.
func (cr ClockReference) Extension() uint64 { return cr.extension }

// Bytes27MHz returns the full value in 27 MHz units (base*300 + extension),
// the unit PCR is ultimately carried in on the wire.
func (cr ClockReference) Bytes27MHz() uint64 {
	return cr.base*300 + cr.extension
}

// clockReferenceFrom90kHz builds a ClockReference from a plain 90 kHz tick
// count (e.g. a DTS that is already in 90 kHz units), with no 27 MHz
// extension.
func clockReferenceFrom90kHz(ticks uint64) ClockReference {
	return newClockReference(ticks, 0)
}
