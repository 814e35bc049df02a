package astits

// wrappingCounter is a counter that wraps modulo (mask+1), used for both
// the 4-bit continuity counter and the 5-bit table version_number fields.
type wrappingCounter struct {
	mask  uint8
	value uint8
}

func newWrappingCounter(mask uint8) wrappingCounter {
	return wrappingCounter{mask: mask}
}

// get returns the current value without advancing it.
func (c *wrappingCounter) get() uint8 {
	return c.value & c.mask
}

// advance increments the counter modulo (mask+1).
func (c *wrappingCounter) advance() {
	c.value = (c.value + 1) & c.mask
}
