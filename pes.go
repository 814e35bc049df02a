package astits

import (
	"encoding/binary"

	"github.com/asticode/go-astikit"
)

// PTS/DTS indicator values (§4.2).
const (
	PTSDTSIndicatorNoPTSOrDTS  uint8 = 0
	PTSDTSIndicatorIsForbidden uint8 = 1
	PTSDTSIndicatorOnlyPTS     uint8 = 2
	PTSDTSIndicatorBothPresent uint8 = 3
)

// Stream IDs for the padding/private streams that carry no optional PES
// header, per the asticode-go-astits convention.
const (
	StreamIDPaddingStream  uint8 = 0xbe
	StreamIDPrivateStream2 uint8 = 0xbf
)

const (
	pesHeaderLength    = 6
	ptsOrDTSByteLength = 5
	// PESHeaderLength is the fixed portion of a PES header before any
	// optional fields: packet_start_code_prefix(3) + stream_id(1) +
	// PES_packet_length(2).
	PESHeaderLength = pesHeaderLength
)

// PESHeader represents a PES packet header (§4.2).
type PESHeader struct {
	OptionalHeader *PESOptionalHeader
	PacketLength   uint16
	StreamID       uint8
}

// PESOptionalHeader carries PTS/DTS, the only optional fields the muxer
// ever emits (§4.2: "6 flags = 0" for ESCR/ES_rate/DSM_trick/additional
// copy/PES_CRC/PES_extension).
type PESOptionalHeader struct {
	DataAlignmentIndicator bool
	IsCopyrighted          bool
	IsOriginal             bool
	ScramblingControl      uint8
	Priority               bool

	PTSDTSIndicator uint8
	PTS             ClockReference
	DTS             ClockReference
}

// IsVideoStream reports whether h's stream_id is one of the video IDs for
// which PES_packet_length may legitimately be zero.
func (h *PESHeader) IsVideoStream() bool {
	return h.StreamID == 0xe0 || h.StreamID == 0xfd
}

func hasPESOptionalHeader(streamID uint8) bool {
	return streamID != StreamIDPaddingStream && streamID != StreamIDPrivateStream2
}

func (h *PESOptionalHeader) calcDataLength() uint8 {
	if h == nil {
		return 0
	}
	var length uint8
	switch h.PTSDTSIndicator {
	case PTSDTSIndicatorOnlyPTS:
		length += ptsOrDTSByteLength
	case PTSDTSIndicatorBothPresent:
		length += 2 * ptsOrDTSByteLength
	}
	return length
}

func calcPESOptionalHeaderLength(h *PESOptionalHeader) uint8 {
	if h == nil {
		return 0
	}
	return 3 + h.calcDataLength()
}

// calcPESDataLength mirrors writePESData's accounting without performing
// any writes. The PES packetizer does not call it: emitPESPacket sizes its
// stuffing from writePESData's returned byte count instead.
func calcPESDataLength(h *PESHeader, payloadLeft []byte, isPayloadStart bool, bytesAvailable int) (totalBytes, payloadBytes int) {
	if isPayloadStart {
		totalBytes += pesHeaderLength
		if hasPESOptionalHeader(h.StreamID) {
			totalBytes += int(calcPESOptionalHeaderLength(h.OptionalHeader))
		}
	}
	remaining := bytesAvailable - totalBytes
	if len(payloadLeft) < remaining {
		payloadBytes = len(payloadLeft)
	} else {
		payloadBytes = remaining
	}
	return
}

// writePESData writes the PES header (only on the first packet of an
// access unit) followed by as much of payloadLeft as bytesAvailable
// allows (§4.2).
func writePESData(w *astikit.BitsWriter, h *PESHeader, payloadLeft []byte, isPayloadStart bool, bytesAvailable int) (totalBytesWritten, payloadBytesWritten int, err error) {
	var bb [8]byte
	if isPayloadStart {
		var n int
		if n, err = writePESHeader(w, &bb, h, len(payloadLeft)); err != nil {
			return
		}
		totalBytesWritten += n
	}

	payloadBytesWritten = bytesAvailable - totalBytesWritten
	if payloadBytesWritten > len(payloadLeft) {
		payloadBytesWritten = len(payloadLeft)
	}
	if payloadBytesWritten < 0 {
		payloadBytesWritten = 0
	}

	if err = w.Write(payloadLeft[:payloadBytesWritten]); err != nil {
		return
	}
	totalBytesWritten += payloadBytesWritten
	return
}

func writePESHeader(w *astikit.BitsWriter, bb *[8]byte, h *PESHeader, payloadSize int) (int, error) {
	binary.BigEndian.PutUint32(bb[:], uint32(h.StreamID)|0x1<<8)

	pesPacketLength := 0
	if !h.IsVideoStream() {
		pesPacketLength = payloadSize
		if hasPESOptionalHeader(h.StreamID) {
			pesPacketLength += int(calcPESOptionalHeaderLength(h.OptionalHeader))
		}
		if pesPacketLength > 0xffff {
			pesPacketLength = 0
		}
	}
	binary.BigEndian.PutUint16(bb[4:], uint16(pesPacketLength))
	if err := w.Write(bb[:6]); err != nil {
		return 0, err
	}
	written := pesHeaderLength

	if hasPESOptionalHeader(h.StreamID) {
		n, err := writePESOptionalHeader(w, bb, h.OptionalHeader)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func writePESOptionalHeader(w *astikit.BitsWriter, bb *[8]byte, h *PESOptionalHeader) (int, error) {
	if h == nil {
		return 0, nil
	}

	b0 := uint8(0b10) << 6
	b0 |= h.ScramblingControl << 4
	b0 |= b2u(h.Priority) << 3
	b0 |= b2u(h.DataAlignmentIndicator) << 2
	b0 |= b2u(h.IsCopyrighted) << 1
	b0 |= b2u(h.IsOriginal)
	bb[0] = b0

	bb[1] = h.PTSDTSIndicator << 6 // ESCR/ES_rate/DSM_trick/copy/CRC/ext all 0
	bb[2] = h.calcDataLength()
	if err := w.Write(bb[:3]); err != nil {
		return 0, err
	}
	written := 3

	switch h.PTSDTSIndicator {
	case PTSDTSIndicatorOnlyPTS:
		n, err := writePTSOrDTS(h.PTS, w, bb, 0b0010)
		if err != nil {
			return 0, err
		}
		written += n
	case PTSDTSIndicatorBothPresent:
		n, err := writePTSOrDTS(h.PTS, w, bb, 0b0011)
		if err != nil {
			return 0, err
		}
		written += n
		n, err = writePTSOrDTS(h.DTS, w, bb, 0b0001)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func writePTSOrDTS(cr ClockReference, w *astikit.BitsWriter, bb *[8]byte, flag uint8) (int, error) {
	base := cr.Base()
	bb[0] = flag<<4 | uint8(base>>29) | 1
	bb[1] = uint8(base >> 22)
	bb[2] = uint8(base>>14) | 1
	bb[3] = uint8(base >> 7)
	bb[4] = uint8(base<<1) | 1
	return ptsOrDTSByteLength, w.Write(bb[:5])
}
