package astits

import "github.com/barbashov/go-astits/esutil"

// emitPESPacket implements §4.2's PES packetizer: write exactly one TS
// packet carrying as much of the current access unit as fits, inserting the
// PES header only on the first packet of the AU, a PCR-bearing adaptation
// field on the first packet of an AU carried by the program's PCR stream,
// and stuffing to pad out any remainder. Grounded on the teacher's
// WritePayload, generalized from its single fixed payload to the Scheduler's
// per-AU streaming cursor (pckOffset).
func (m *Muxer) emitPESPacket(s *Stream) error {
	au := s.pck
	payloadStart := s.pckOffset == 0
	needsPCR := payloadStart && s.Program.PCR == s

	var af *PacketAdaptationField
	if needsPCR {
		af = &PacketAdaptationField{
			HasPCR:                true,
			RandomAccessIndicator: au.IsRAP,
			PCR:                   clockReferenceFrom90kHz(s.dts90k(au.DTS)),
		}
	}

	afLen := int(calcPacketAdaptationFieldLength(af))
	bytesAvailable := m.packetSize - 4 - afLen // 4-byte TS header (sync + 3)

	var h *PESHeader
	if payloadStart {
		h = &PESHeader{StreamID: s.MPEG2StreamID, OptionalHeader: pesOptionalHeaderFor(s, au)}
	} else {
		h = &PESHeader{StreamID: s.MPEG2StreamID}
	}

	payloadLeft := au.Data[s.pckOffset:]

	m.pesBuf.Reset()
	totalWritten, payloadWritten, err := writePESData(m.pesBufWriter, h, payloadLeft, payloadStart, bytesAvailable)
	if err != nil {
		return err
	}

	leftover := bytesAvailable - totalWritten
	if leftover > 0 {
		if af != nil {
			af.StuffingLength += uint8(leftover)
		} else {
			af = newStuffingAdaptationField(leftover)
		}
	}

	pkt := &Packet{
		Header: PacketHeader{
			PID:                       s.PID,
			ContinuityCounter:         s.cc.get(),
			HasPayload:                true,
			HasAdaptationField:        af != nil,
			PayloadUnitStartIndicator: payloadStart,
		},
		AdaptationField: af,
		Payload:         append([]byte(nil), m.pesBuf.Bytes()...),
	}
	if _, err := writePacket(m.bw, pkt, m.packetSize); err != nil {
		return err
	}
	s.cc.advance()

	s.pckOffset += payloadWritten
	if s.BitRate > 0 {
		s.Time = s.Time.AddFraction(uint64(payloadWritten)*8, uint64(s.BitRate))
	}

	if s.pckOffset >= len(au.Data) {
		s.Source.Release()
		s.pck = nil
		s.pckOffset = 0
	}
	return nil
}

// pesOptionalHeaderFor builds the PTS/DTS optional header for an access
// unit's first packet: PTS alone when presentation and decode order match,
// both PTS and DTS otherwise, or neither when the source gave no
// timestamps at all (§4.2).
func pesOptionalHeaderFor(s *Stream, au *esutil.AccessUnit) *PESOptionalHeader {
	if au.CTS == 0 && au.DTS == 0 {
		return nil
	}
	if au.CTS == au.DTS {
		return &PESOptionalHeader{
			PTSDTSIndicator: PTSDTSIndicatorOnlyPTS,
			PTS:             clockReferenceFrom90kHz(s.dts90k(au.CTS)),
		}
	}
	return &PESOptionalHeader{
		PTSDTSIndicator: PTSDTSIndicatorBothPresent,
		PTS:             clockReferenceFrom90kHz(s.dts90k(au.CTS)),
		DTS:             clockReferenceFrom90kHz(s.dts90k(au.DTS)),
	}
}
