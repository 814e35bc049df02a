package esutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapability_Has(t *testing.T) {
	c := CapAUPull | CapStreamIsOver
	assert.True(t, c.Has(CapAUPull))
	assert.True(t, c.Has(CapStreamIsOver))
	assert.False(t, Capability(0).Has(CapAUPull))
}

func TestMetadata_TSScale(t *testing.T) {
	assert.Equal(t, 1.0, Metadata{Timescale: 0}.TSScale())
	assert.Equal(t, 1.0, Metadata{Timescale: 90000}.TSScale())
	assert.Equal(t, 90000.0/48000.0, Metadata{Timescale: 48000}.TSScale())
}

func TestMPEG2StreamType(t *testing.T) {
	assert.Equal(t, uint8(0x1B), MPEG2StreamType(0x21))
	assert.Equal(t, uint8(0x0F), MPEG2StreamType(0x40))
	assert.Equal(t, uint8(0x01), MPEG2StreamType(0x6A))
	assert.Equal(t, uint8(0x02), MPEG2StreamType(0x60))
	assert.Equal(t, uint8(0x06), MPEG2StreamType(0xff))
}

func TestQueue_dispatchAndPullFIFO(t *testing.T) {
	var q Queue
	q.Dispatch(AccessUnit{Data: []byte{1}})
	q.Dispatch(AccessUnit{Data: []byte{2}})

	var au AccessUnit
	assert.NoError(t, q.Pull(&au))
	assert.Equal(t, []byte{1}, au.Data)
	assert.Equal(t, 1, q.Len())

	assert.NoError(t, q.Pull(&au))
	assert.Equal(t, []byte{2}, au.Data)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_dispatchDeepCopiesData(t *testing.T) {
	var q Queue
	data := []byte{1, 2, 3}
	q.Dispatch(AccessUnit{Data: data})
	data[0] = 0xff

	var au AccessUnit
	assert.NoError(t, q.Pull(&au))
	assert.Equal(t, []byte{1, 2, 3}, au.Data)
}

func TestQueue_pullEmptyNotOver(t *testing.T) {
	var q Queue
	var au AccessUnit
	assert.ErrorIs(t, q.Pull(&au), ErrNoDataAvailable)
}

func TestQueue_pullEmptyAfterMarkOver(t *testing.T) {
	var q Queue
	q.MarkOver()
	var au AccessUnit
	assert.ErrorIs(t, q.Pull(&au), ErrEndOfStream)
}
