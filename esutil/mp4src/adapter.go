// Package mp4src adapts an ISO-BMFF track reader to the esutil.Source
// pull contract. Actual box parsing (moov/trak/stbl sample table walking)
// is an external collaborator per spec.md §1 — this package only wires
// the frame-by-frame cursor such a parser would drive into AccessUnits.
package mp4src

import (
	"io"

	"github.com/barbashov/go-astits/esutil"
)

// FrameReader is the minimal surface an ISO-BMFF demultiplexer exposes:
// one call per sample, synchronously, matching DATA_PULL's contract.
// A real implementation walks stts/stsz/stco/co64; that box-parsing logic
// lives outside this module.
type FrameReader interface {
	// NextSample reads the next sample's bytes, CTS, DTS (in the track's
	// native timescale) and whether it is a random-access point. io.EOF
	// signals the track is exhausted.
	NextSample() (data []byte, cts, dts uint64, isRAP bool, err error)
}

// Adapter implements esutil.Source over a FrameReader, the pull-mode
// counterpart described in §4.6 and §6 ("an MP4 track adapter (pull)").
type Adapter struct {
	reader FrameReader
	meta   esutil.Metadata
	over   bool
}

// New wires reader as a pull-mode ES source with the given attach-time
// metadata (timescale, stream type, OTI, initial bit rate estimate).
func New(reader FrameReader, meta esutil.Metadata) *Adapter {
	return &Adapter{reader: reader, meta: meta}
}

func (a *Adapter) Metadata() esutil.Metadata { return a.meta }

func (a *Adapter) Capabilities() esutil.Capability {
	c := esutil.CapAUPull
	if a.over {
		c |= esutil.CapStreamIsOver
	}
	return c
}

// Pull implements DATA_PULL: borrowed sample bytes are handed to the
// muxer synchronously and released via Release once consumed, per the
// memory policy in §5.
func (a *Adapter) Pull(au *esutil.AccessUnit) error {
	data, cts, dts, isRAP, err := a.reader.NextSample()
	if err == io.EOF {
		a.over = true
		return esutil.ErrEndOfStream
	}
	if err != nil {
		return err
	}
	au.Data = data
	au.CTS = cts
	au.DTS = dts
	au.IsRAP = isRAP
	au.AUStart = true
	au.AUEnd = true
	return nil
}

// Release implements DATA_RELEASE. A real FrameReader would advance or
// free its sample-table cursor here; there is nothing further to do once
// NextSample has already returned the borrowed slice.
func (a *Adapter) Release() {}
