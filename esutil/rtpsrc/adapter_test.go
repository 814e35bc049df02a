package rtpsrc

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"

	"github.com/barbashov/go-astits/esutil"
)

func TestAdapter_WriteRTPThenPull(t *testing.T) {
	a := New(esutil.Metadata{ObjectTypeIndication: 0x21}, 90000)
	assert.Equal(t, uint32(90000), a.Metadata().Timescale)

	a.WriteRTP(&rtp.Packet{
		Header:  rtp.Header{Timestamp: 12345, Marker: true},
		Payload: []byte{0xde, 0xad, 0xbe, 0xef},
	})

	var au esutil.AccessUnit
	assert.NoError(t, a.Pull(&au))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, au.Data)
	assert.Equal(t, uint64(12345), au.DTS)
	assert.True(t, au.IsRAP)
}

func TestAdapter_PullEmptyThenClosed(t *testing.T) {
	a := New(esutil.Metadata{}, 48000)
	var au esutil.AccessUnit
	assert.ErrorIs(t, a.Pull(&au), esutil.ErrNoDataAvailable)

	a.Close()
	assert.ErrorIs(t, a.Pull(&au), esutil.ErrEndOfStream)
}
