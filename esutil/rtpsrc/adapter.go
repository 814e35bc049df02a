// Package rtpsrc adapts an RTP receiver to the esutil.Source push
// contract. RTP depacketization (reassembling a full access unit out of
// fragmented RTP payloads, e.g. H.264 FU-A) is an external collaborator
// per spec.md §1; this package only wires already-depacketized access
// units, dispatched one per RTP packet (the marker bit sets IsRAP), into
// the mutex-guarded queue the muxer drains from (§5).
package rtpsrc

import (
	"github.com/pion/rtp"

	"github.com/barbashov/go-astits/esutil"
)

// Adapter implements esutil.Source over esutil.Queue, the push-mode
// counterpart described in §4.6 and §6 ("an RTP receiver (push)").
type Adapter struct {
	queue     esutil.Queue
	meta      esutil.Metadata
	clockRate uint32
}

// New wires an RTP push-mode source with the given attach-time metadata.
// clockRate is the RTP timestamp clock rate (e.g. 90000 for video,
// 48000 for Opus), used to derive Metadata.Timescale.
func New(meta esutil.Metadata, clockRate uint32) *Adapter {
	meta.Timescale = clockRate
	return &Adapter{meta: meta, clockRate: clockRate}
}

func (a *Adapter) Metadata() esutil.Metadata { return a.meta }

func (a *Adapter) Capabilities() esutil.Capability {
	// Push-mode sources never advertise CapAUPull on their own — they are
	// driven by WriteRTP from a network goroutine and drained by the
	// muxer through Pull, which reads from the Queue.
	return 0
}

// WriteRTP implements output_ctrl(DATA_DISPATCH, pck): called by the RTP
// receiver goroutine for every depacketized access unit. pck.Payload is
// already a complete access unit; only the marker bit and timestamp of
// RTP's own envelope are consumed here.
func (a *Adapter) WriteRTP(pck *rtp.Packet) {
	a.queue.Dispatch(esutil.AccessUnit{
		Data:    pck.Payload,
		DTS:     uint64(pck.Timestamp),
		CTS:     uint64(pck.Timestamp),
		IsRAP:   pck.Marker,
		AUStart: true,
		AUEnd:   true,
	})
}

// Pull implements DATA_PULL by draining the push queue (§4.6, §5).
func (a *Adapter) Pull(au *esutil.AccessUnit) error {
	return a.queue.Pull(au)
}

// Release implements DATA_RELEASE; push-mode AUs are already owned
// copies freed by normal GC once dequeued, so there is nothing to do.
func (a *Adapter) Release() {}

// Close implements DATA_FLUSH's end-of-stream signal.
func (a *Adapter) Close() { a.queue.MarkOver() }
