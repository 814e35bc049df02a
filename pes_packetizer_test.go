package astits

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barbashov/go-astits/esutil"
)

func TestMuxer_emitPESPacket_singlePacketAUWithPCR(t *testing.T) {
	out := &bytes.Buffer{}
	m := NewMuxer(out, MuxerOptionFixedBitRate(10_000_000))
	p, err := m.AddProgram(1)
	assert.NoError(t, err)

	src := &fakeSource{meta: fakeMeta(1_000_000)}
	s, err := m.AddElementaryStream(p, src, true, 0x200)
	assert.NoError(t, err)
	p.PCRInit = true // bypass the Scheduler's own init path for this unit test

	au := &esutil.AccessUnit{Data: bytes.Repeat([]byte{0x7a}, 20), DTS: 9000, CTS: 9000, IsRAP: true, AUStart: true}
	s.pck = au

	assert.NoError(t, m.emitPESPacket(s))

	pkt := out.Bytes()
	assert.Len(t, pkt, MpegTsPacketSize)
	assert.Equal(t, syncByte, pkt[0])
	assert.Equal(t, uint8(1), pkt[3]&0x20>>5) // adaptation_field_control has AF bit set
	assert.Nil(t, s.pck)                      // fully consumed, AU released
	assert.Equal(t, 1, src.released)
}

func TestMuxer_emitPESPacket_splitsLargeAUAcrossPackets(t *testing.T) {
	out := &bytes.Buffer{}
	m := NewMuxer(out, MuxerOptionFixedBitRate(10_000_000))
	p, err := m.AddProgram(1)
	assert.NoError(t, err)

	src := &fakeSource{meta: fakeMeta(1_000_000)}
	s, err := m.AddElementaryStream(p, src, true, 0x200)
	assert.NoError(t, err)
	p.PCRInit = true

	au := &esutil.AccessUnit{Data: bytes.Repeat([]byte{0x5c}, 400), AUStart: true}
	s.pck = au

	assert.NoError(t, m.emitPESPacket(s))
	assert.NotNil(t, s.pck, "a 400-byte AU can't fit in one 188-byte packet")
	firstOffset := s.pckOffset
	assert.Greater(t, firstOffset, 0)
	assert.Less(t, firstOffset, 400)

	for s.pck != nil {
		assert.NoError(t, m.emitPESPacket(s))
	}
	assert.Equal(t, 1, src.released)
}
