// Package esutil defines the Elementary Stream Interface contract (§4.6 of
// spec.md): the abstract boundary between the muxer and any packet source,
// pull-mode (e.g. an MP4 track reader) or push-mode (e.g. an RTP
// receiver). MP4 box parsing and RTP depacketization themselves stay out
// of scope (§1's "external collaborators") — esutil only carries the
// envelope both kinds of source hand the muxer.
package esutil

import (
	"errors"
	"sync"
)

// Capability is the bitmask a Source exposes at attach time, modeled as
// the "capability set" design note in spec.md §9 ("a small trait /
// interface with one vtable per source kind").
type Capability uint8

const (
	// CapAUPull marks a source that supports synchronous DATA_PULL.
	CapAUPull Capability = 1 << iota
	// CapStreamIsOver is set by the source once it has no more data.
	CapStreamIsOver
)

// Has reports whether c contains all the bits in other.
func (c Capability) Has(other Capability) bool { return c&other == other }

// MediaType mirrors the MPEG-4 systems stream_type categories referenced
// by the ES Interface's attach-time metadata.
type MediaType uint8

const (
	MediaVisual MediaType = iota
	MediaAudio
	MediaScene
	MediaText
)

// AccessUnit is the smallest independently decodable unit handed across
// the ES Interface, per the Data Model.
type AccessUnit struct {
	Data    []byte
	CTS     uint64
	DTS     uint64
	Flags   uint8
	IsRAP   bool
	AUStart bool
	AUEnd   bool
}

// Metadata is exposed by a Source at attach time (§4.6).
type Metadata struct {
	StreamType            MediaType
	ObjectTypeIndication  uint8
	Timescale             uint32
	BitRate               uint32
}

// TSScale returns the conversion factor from the source timescale to
// 90 kHz, or 1.0 if the source is already in 90 kHz units.
func (m Metadata) TSScale() float64 {
	if m.Timescale == 0 || m.Timescale == 90000 {
		return 1
	}
	return 90000 / float64(m.Timescale)
}

// MPEG2StreamType maps an MPEG-4 object_type_indication byte to the
// MPEG-2 stream_type carried in the PMT, per the table in §4.6.
func MPEG2StreamType(oti uint8) uint8 {
	switch {
	case oti == 0x21:
		return 0x1B // H.264
	case oti == 0x40:
		return 0x0F // AAC
	case oti == 0x6A:
		return 0x01 // MPEG-1 video
	case oti >= 0x60 && oti <= 0x65:
		return 0x02 // MPEG-2 video
	default:
		return 0x06 // private data, unmapped OTI
	}
}

var (
	// ErrEndOfStream is returned by Pull once a source has no more AUs.
	ErrEndOfStream = errors.New("esutil: end of stream")
	// ErrNoDataAvailable is returned by Pull when the source is merely
	// idle this cycle (not yet at end of stream).
	ErrNoDataAvailable = errors.New("esutil: no data available")
)

// Source is the pull side of the ES Interface contract: DATA_PULL writes
// the next AU synchronously, DATA_RELEASE tells the source a previously
// pulled AU may be freed or its cursor advanced.
type Source interface {
	Metadata() Metadata
	Capabilities() Capability
	// Pull implements DATA_PULL: on success au is populated in place.
	Pull(au *AccessUnit) error
	// Release implements DATA_RELEASE for the most recently pulled AU.
	Release()
}

// Queue is the mutex-guarded FIFO a push-mode source (e.g. an RTP
// receiver) dispatches into, and the muxer thread drains from, per §5's
// concurrency model: "Producers hold the mutex only long enough to append
// one AU. The muxer thread holds the mutex only long enough to detach the
// head. No lock is held during packet emission."
type Queue struct {
	mu   sync.Mutex
	head *queueNode
	tail *queueNode
	over bool
}

type queueNode struct {
	au   AccessUnit
	next *queueNode
}

// Dispatch implements output_ctrl(DATA_DISPATCH, pck): the AU is deep
// copied at insertion time, per the Memory policy in §5.
func (q *Queue) Dispatch(au AccessUnit) {
	cp := AccessUnit{
		Data:    append([]byte(nil), au.Data...),
		CTS:     au.CTS,
		DTS:     au.DTS,
		Flags:   au.Flags,
		IsRAP:   au.IsRAP,
		AUStart: au.AUStart,
		AUEnd:   au.AUEnd,
	}
	n := &queueNode{au: cp}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tail == nil {
		q.head = n
		q.tail = n
	} else {
		q.tail.next = n
		q.tail = n
	}
}

// MarkOver implements DATA_FLUSH's end-of-stream signal from an
// asynchronous producer that has nothing left to send.
func (q *Queue) MarkOver() {
	q.mu.Lock()
	q.over = true
	q.mu.Unlock()
}

// Pull implements DATA_PULL for a push-fed stream: it detaches and
// returns the queue head, holding the mutex only for that detach.
func (q *Queue) Pull(au *AccessUnit) error {
	q.mu.Lock()
	n := q.head
	if n != nil {
		q.head = n.next
		if q.head == nil {
			q.tail = nil
		}
	}
	over := q.over
	q.mu.Unlock()

	if n == nil {
		if over {
			return ErrEndOfStream
		}
		return ErrNoDataAvailable
	}
	*au = n.au
	return nil
}

// Len reports the current queue depth, used by callers that want
// backpressure visibility without holding the lock across emission.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for c := q.head; c != nil; c = c.next {
		n++
	}
	return n
}
