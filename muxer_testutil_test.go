package astits

import "github.com/barbashov/go-astits/esutil"

// fakeSource is a minimal pull-mode esutil.Source for tests: it replays a
// fixed list of access units, then reports end of stream.
type fakeSource struct {
	meta     esutil.Metadata
	aus      []esutil.AccessUnit
	idx      int
	released int
}

func (f *fakeSource) Metadata() esutil.Metadata { return f.meta }

func (f *fakeSource) Capabilities() esutil.Capability {
	c := esutil.CapAUPull
	if f.idx >= len(f.aus) {
		c |= esutil.CapStreamIsOver
	}
	return c
}

func (f *fakeSource) Pull(au *esutil.AccessUnit) error {
	if f.idx >= len(f.aus) {
		return esutil.ErrEndOfStream
	}
	*au = f.aus[f.idx]
	f.idx++
	return nil
}

func (f *fakeSource) Release() { f.released++ }

func fakeMeta(bitRate uint32) esutil.Metadata {
	return esutil.Metadata{ObjectTypeIndication: 0x21, BitRate: bitRate}
}
