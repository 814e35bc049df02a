package mp4src

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barbashov/go-astits/esutil"
)

type fakeFrameReader struct {
	frames [][]byte
	idx    int
}

func (f *fakeFrameReader) NextSample() (data []byte, cts, dts uint64, isRAP bool, err error) {
	if f.idx >= len(f.frames) {
		return nil, 0, 0, false, io.EOF
	}
	data = f.frames[f.idx]
	dts = uint64(f.idx) * 3000
	cts = dts
	isRAP = f.idx == 0
	f.idx++
	return
}

func TestAdapter_PullUntilEOF(t *testing.T) {
	reader := &fakeFrameReader{frames: [][]byte{{0x01}, {0x02}}}
	a := New(reader, esutil.Metadata{ObjectTypeIndication: 0x21})

	var au esutil.AccessUnit
	assert.NoError(t, a.Pull(&au))
	assert.Equal(t, []byte{0x01}, au.Data)
	assert.True(t, au.IsRAP)
	assert.False(t, a.Capabilities().Has(esutil.CapStreamIsOver))

	assert.NoError(t, a.Pull(&au))
	assert.Equal(t, []byte{0x02}, au.Data)

	assert.ErrorIs(t, a.Pull(&au), esutil.ErrEndOfStream)
	assert.True(t, a.Capabilities().Has(esutil.CapStreamIsOver))
}
