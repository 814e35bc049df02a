package astits

import (
	"encoding/binary"
	"fmt"

	"github.com/asticode/go-astikit"
)

// Scrambling controls, per spec.md §4.2's TS packet layout.
const (
	ScramblingControlNotScrambled         uint8 = 0
	ScramblingControlReservedForFutureUse uint8 = 1
	ScramblingControlScrambledWithEvenKey uint8 = 2
	ScramblingControlScrambledWithOddKey  uint8 = 3
)

const pcrBytesSize = 6

// Packet is one 188-byte transport packet: header, optional adaptation
// field, and payload. Grounded on the k-danil-go-astits fork's packet.go,
// adapted to the astikit.BitsWriter write path only (the muxer never
// parses its own output).
type Packet struct {
	Header          PacketHeader
	AdaptationField *PacketAdaptationField
	Payload         []byte
}

// PacketHeader is the fixed 4-byte TS header (§4.2).
type PacketHeader struct {
	ContinuityCounter          uint8
	HasAdaptationField         bool
	HasPayload                 bool
	PayloadUnitStartIndicator  bool
	PID                        uint16
	TransportErrorIndicator    bool
	TransportPriority          bool
	TransportScramblingControl uint8
}

// PacketAdaptationField is the optional adaptation field (§4.2).
type PacketAdaptationField struct {
	AdaptationExtensionField          *PacketAdaptationExtensionField
	OPCR                               ClockReference
	PCR                                ClockReference
	TransportPrivateData               []byte
	TransportPrivateDataLength         uint8
	StuffingLength                     uint8
	SpliceCountdown                    uint8
	IsOneByteStuffing                  bool
	DiscontinuityIndicator             bool
	RandomAccessIndicator              bool
	ElementaryStreamPriorityIndicator  bool
	HasPCR                             bool
	HasOPCR                            bool
	HasSplicingCountdown               bool
	HasTransportPrivateData            bool
	HasAdaptationExtensionField        bool
}

// PacketAdaptationExtensionField is the nested extension (§4.2, rarely
// used by the muxer itself but kept for completeness of the wire format).
type PacketAdaptationExtensionField struct {
	DTSNextAccessUnit      ClockReference
	PiecewiseRate          uint32
	LegalTimeWindowOffset  uint16
	LegalTimeWindowIsValid bool
	HasLegalTimeWindow     bool
	HasPiecewiseRate       bool
	HasSeamlessSplice      bool
	SpliceType             uint8
}

// newStuffingAdaptationField returns an adaptation field whose only purpose
// is to consume bytesToStuff bytes of packet space (§4.2 step 4).
func newStuffingAdaptationField(bytesToStuff int) *PacketAdaptationField {
	if bytesToStuff == 1 {
		return &PacketAdaptationField{IsOneByteStuffing: true}
	}
	return &PacketAdaptationField{StuffingLength: uint8(bytesToStuff - 2)}
}

func (af *PacketAdaptationField) calcLength() uint8 {
	if af.IsOneByteStuffing {
		return 0
	}
	var length uint8 = 1 // flags byte
	length += pcrBytesSize * b2u(af.HasPCR)
	length += pcrBytesSize * b2u(af.HasOPCR)
	length += b2u(af.HasSplicingCountdown)
	length += (1 + uint8(len(af.TransportPrivateData))) * b2u(af.HasTransportPrivateData)
	if af.HasAdaptationExtensionField {
		length += 1 + af.AdaptationExtensionField.calcLength()
	}
	length += af.StuffingLength
	return length
}

// calcPacketAdaptationFieldLength returns the number of bytes the
// adaptation field will occupy on the wire, including its own length byte,
// used by the PES packetizer to budget payload space (§4.2 step 2-4).
func calcPacketAdaptationFieldLength(af *PacketAdaptationField) uint8 {
	if af == nil {
		return 0
	}
	if af.IsOneByteStuffing {
		return 1
	}
	return 1 + af.calcLength()
}

func (ph *PacketHeader) write(w *astikit.BitsWriter, bb *[8]byte) (int, error) {
	var val uint32
	val |= uint32(syncByte) << 24
	val |= uint32(b2u(ph.TransportErrorIndicator)) << 23
	val |= uint32(b2u(ph.PayloadUnitStartIndicator)) << 22
	val |= uint32(b2u(ph.TransportPriority)) << 21
	val |= uint32(ph.PID&0x1fff) << 8
	val |= uint32(ph.TransportScramblingControl&0x3) << 6
	val |= uint32(b2u(ph.HasAdaptationField)) << 5
	val |= uint32(b2u(ph.HasPayload)) << 4
	val |= uint32(ph.ContinuityCounter & 0xf)
	binary.BigEndian.PutUint32(bb[:], val)
	return 4, w.Write(bb[:4])
}

func writePCR(cr ClockReference, w *astikit.BitsWriter, bb *[8]byte) (int, error) {
	binary.BigEndian.PutUint64(bb[:], cr.Extension()|cr.Base()<<15|0x7e<<8)
	return pcrBytesSize, w.Write(bb[2:])
}

func (af *PacketAdaptationField) write(w *astikit.BitsWriter, bb *[8]byte) (int, error) {
	if af.IsOneByteStuffing {
		bb[0] = 0
		return 1, w.Write(bb[:1])
	}

	length := af.calcLength()
	bb[0] = length
	bb[1] = b2u(af.DiscontinuityIndicator) << 7
	bb[1] |= b2u(af.RandomAccessIndicator) << 6
	bb[1] |= b2u(af.ElementaryStreamPriorityIndicator) << 5
	bb[1] |= b2u(af.HasPCR) << 4
	bb[1] |= b2u(af.HasOPCR) << 3
	bb[1] |= b2u(af.HasSplicingCountdown) << 2
	bb[1] |= b2u(af.HasTransportPrivateData) << 1
	bb[1] |= b2u(af.HasAdaptationExtensionField)
	if err := w.Write(bb[:2]); err != nil {
		return 0, err
	}
	written := 2

	if af.HasPCR {
		n, err := writePCR(af.PCR, w, bb)
		if err != nil {
			return 0, err
		}
		written += n
	}
	if af.HasOPCR {
		n, err := writePCR(af.OPCR, w, bb)
		if err != nil {
			return 0, err
		}
		written += n
	}
	if af.HasSplicingCountdown {
		bb[0] = af.SpliceCountdown
		if err := w.Write(bb[:1]); err != nil {
			return 0, err
		}
		written++
	}
	if af.HasTransportPrivateData {
		bb[0] = af.TransportPrivateDataLength
		if err := w.Write(bb[:1]); err != nil {
			return 0, err
		}
		written++
		if af.TransportPrivateDataLength > 0 {
			if err := w.Write(af.TransportPrivateData); err != nil {
				return 0, err
			}
			written += len(af.TransportPrivateData)
		}
	}
	if af.HasAdaptationExtensionField {
		n, err := af.AdaptationExtensionField.write(w, bb)
		if err != nil {
			return 0, err
		}
		written += n
	}
	if af.StuffingLength > 0 {
		if err := writeStuffing(w, bb, int(af.StuffingLength)); err != nil {
			return 0, err
		}
		written += int(af.StuffingLength)
	}
	return written, nil
}

func (afe *PacketAdaptationExtensionField) calcLength() uint8 {
	var length uint8 = 1
	length += 2 * b2u(afe.HasLegalTimeWindow)
	length += 3 * b2u(afe.HasPiecewiseRate)
	length += ptsOrDTSByteLength * b2u(afe.HasSeamlessSplice)
	return length
}

func (afe *PacketAdaptationExtensionField) write(w *astikit.BitsWriter, bb *[8]byte) (int, error) {
	bb[0] = afe.calcLength()
	bb[1] = b2u(afe.HasLegalTimeWindow) << 7
	bb[1] |= b2u(afe.HasPiecewiseRate) << 6
	bb[1] |= b2u(afe.HasSeamlessSplice) << 5
	bb[1] |= 0x1f
	written := 2

	if afe.HasLegalTimeWindow {
		bb[written] = b2u(afe.LegalTimeWindowIsValid) << 7
		bb[written] |= uint8(afe.LegalTimeWindowOffset >> 8)
		bb[written+1] = uint8(afe.LegalTimeWindowOffset)
		written += 2
	}
	if afe.HasPiecewiseRate {
		bb[written] = 0xC0 | uint8(afe.PiecewiseRate>>16)
		bb[written+1] = uint8(afe.PiecewiseRate >> 8)
		bb[written+2] = uint8(afe.PiecewiseRate)
		written += 3
	}
	if err := w.Write(bb[:written]); err != nil {
		return 0, err
	}
	if afe.HasSeamlessSplice {
		n, err := writePTSOrDTS(afe.DTSNextAccessUnit, w, bb, afe.SpliceType)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func writeStuffing(w *astikit.BitsWriter, bb *[8]byte, n int) error {
	for i := range bb {
		bb[i] = 0xff
	}
	for n >= 8 {
		if err := w.Write(bb[:]); err != nil {
			return err
		}
		n -= 8
	}
	if n > 0 {
		if err := w.Write(bb[:n]); err != nil {
			return err
		}
	}
	return nil
}

// writePacket writes p as exactly targetPacketSize bytes, padding any
// remainder with 0xFF stuffing. Used both by the Section Builder packet
// emitter and the PES packetizer (§4.2, §4.4).
func writePacket(w *astikit.BitsWriter, p *Packet, targetPacketSize int) (int, error) {
	var bb [8]byte
	written, err := p.Header.write(w, &bb)
	if err != nil {
		return 0, err
	}

	if p.Header.HasAdaptationField {
		n, err := p.AdaptationField.write(w, &bb)
		if err != nil {
			return 0, err
		}
		written += n
	}

	if targetPacketSize-written < len(p.Payload) {
		return 0, fmt.Errorf("astits: can't write %d bytes of payload: only %d available", len(p.Payload), targetPacketSize-written)
	}

	if p.Header.HasPayload && len(p.Payload) > 0 {
		if err := w.Write(p.Payload); err != nil {
			return 0, err
		}
		written += len(p.Payload)
	}

	if written < targetPacketSize {
		if err := writeStuffing(w, &bb, targetPacketSize-written); err != nil {
			return 0, err
		}
		written = targetPacketSize
	}

	return written, nil
}

// newNullPacket returns the precomposed NULL packet the muxer pads its
// output with, on PID 0x1FFF (§6).
func newNullPacket(packetSize int) []byte {
	buf := make([]byte, 0, packetSize)
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: sliceWriter{&buf}})
	_, _ = writePacket(w, &Packet{
		Header: PacketHeader{
			PID:                       NullPID,
			HasPayload:                true,
			PayloadUnitStartIndicator: true,
		},
		Payload: []byte{},
	}, packetSize)
	return buf
}

// sliceWriter adapts a *[]byte to io.Writer without pulling in bytes.Buffer
// just for this one precomputed packet.
type sliceWriter struct{ buf *[]byte }

func (s sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}
