package astits

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPsiStreamBitRate(t *testing.T) {
	s := &Stream{
		RefreshRateMs: 200,
		Tables: []*Table{{
			Sections: []*Section{{Data: make([]byte, 20)}},
		}},
	}
	assert.Equal(t, uint32(20*8*1000/200), psiStreamBitRate(s))
}

func TestPsiStreamBitRate_zeroRefresh(t *testing.T) {
	s := &Stream{RefreshRateMs: 0, Tables: []*Table{{Sections: []*Section{{Data: make([]byte, 20)}}}}}
	assert.Equal(t, uint32(0), psiStreamBitRate(s))
}

func TestMuxer_updateConfig_aggregatesProgramsAndPCROverhead(t *testing.T) {
	m := NewMuxer(&bytes.Buffer{})
	p, err := m.AddProgram(1)
	assert.NoError(t, err)

	src := &fakeSource{meta: fakeMeta(1000)}
	s, err := m.AddElementaryStream(p, src, true, 0)
	assert.NoError(t, err)
	assert.Same(t, s, p.PCR)

	assert.NoError(t, m.updateConfig(false))

	assert.Equal(t, uint32(1000)+p.PMT.BitRate+m.pat.BitRate+pcrOverheadBitsPerCycle, m.bitRate)
	assert.False(t, m.needsReconfig)
}

func TestMuxer_updateConfig_fixedRateIsUntouched(t *testing.T) {
	m := NewMuxer(&bytes.Buffer{}, MuxerOptionFixedBitRate(5_000_000))
	_, err := m.AddProgram(1)
	assert.NoError(t, err)
	assert.NoError(t, m.updateConfig(false))
	assert.Equal(t, uint32(5_000_000), m.bitRate)
}

func TestMuxer_updateConfig_resetTimeZeroesClocks(t *testing.T) {
	m := NewMuxer(&bytes.Buffer{})
	p, err := m.AddProgram(1)
	assert.NoError(t, err)
	src := &fakeSource{meta: fakeMeta(1000)}
	s, err := m.AddElementaryStream(p, src, true, 0)
	assert.NoError(t, err)

	m.time = TimeValue{Sec: 10}
	s.Time = TimeValue{Sec: 10}
	p.PCRInit = true

	assert.NoError(t, m.updateConfig(true))
	assert.True(t, m.time.Zero())
	assert.True(t, s.Time.Zero())
	assert.False(t, p.PCRInit)
}
