package astits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPesStreamIDFor(t *testing.T) {
	assert.Equal(t, uint8(0xe0), pesStreamIDFor(uint8(StreamTypeH264Video)))
	assert.Equal(t, uint8(0xc0), pesStreamIDFor(uint8(StreamTypeAACAudio)))
	assert.Equal(t, uint8(0xfd), pesStreamIDFor(uint8(StreamTypeAC3Audio)))
	assert.Equal(t, uint8(0xbd), pesStreamIDFor(0xff))
}

func TestStream_dts90k(t *testing.T) {
	s := &Stream{TSScale: 1}
	assert.Equal(t, uint64(1000), s.dts90k(1000))

	s2 := &Stream{TSScale: 90000.0 / 48000.0}
	assert.Equal(t, uint64(1875), s2.dts90k(1000))
}
