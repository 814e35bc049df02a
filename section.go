package astits

import (
	"encoding/binary"

	"github.com/asticode/go-astikit"
)

// maxSectionLength returns the maximum total section length (including the
// table_id byte, the two length bytes, the syntax header, the payload, and
// any trailing CRC) for tableID, per spec.md §4.1. ok is false for any
// table_id not in the list (§7 "Unknown table_id").
func maxSectionLength(tableID uint8) (length int, ok bool) {
	switch tableID {
	case PSITableTypeIdPAT, PSITableTypeIdPMT, PSITableTypeIdSDT, PSITableTypeIdBAT:
		return 1024, true
	case PSITableTypeIdBIFS, PSITableTypeIdOD:
		return 4096, true
	default:
		return 0, false
	}
}

// Section is one serialized PSI section: Data already contains the header,
// payload, and (if applicable) the appended CRC32, per the Data Model.
type Section struct {
	Data   []byte
	Length uint16
}

// Table is a linked sequence of Sections sharing a table_id and version,
// per the Data Model ("next: ref Table" models the table-to-table chain a
// Stream iterates across; within Go this is just a slice held by Stream).
type Table struct {
	TableID       uint8
	VersionNumber uint8 // 5 bits
	Sections      []*Section
}

// sectionBuildOptions configures updateTable (§4.1's update_table contract).
type sectionBuildOptions struct {
	TableID              uint8
	TableIDExtension     uint16
	Payload              []byte
	UseSyntaxIndicator   bool
	PrivateIndicator     bool
	VersionNumber        uint8
}

// buildSections implements the Section Builder's core contract: given a
// table_id, a 16-bit extension, and an opaque payload, produce one or more
// sections obeying the maximum section length for that table_id, with
// use_crc implicitly equal to use_syntax_indicator (§4.1's CRC rule).
func buildSections(opts sectionBuildOptions) ([]*Section, error) {
	maxLen, ok := maxSectionLength(opts.TableID)
	if !ok {
		return nil, ErrUnknownTableID
	}

	useCRC := opts.UseSyntaxIndicator

	headerLen := 3 // table_id + 2 length bytes
	if opts.UseSyntaxIndicator {
		headerLen += 5 // table_id_ext(2) + version/current_next(1) + section_number(1) + last_section_number(1)
	}
	trailerLen := 0
	if useCRC {
		trailerLen = 4
	}

	maxPayloadPerSection := maxLen - headerLen - trailerLen
	if maxPayloadPerSection <= 0 {
		return nil, ErrSectionTooLarge
	}

	if len(opts.Payload) == 0 {
		return nil, nil
	}

	numSections := (len(opts.Payload) + maxPayloadPerSection - 1) / maxPayloadPerSection
	sections := make([]*Section, 0, numSections)

	for i := 0; i < numSections; i++ {
		start := i * maxPayloadPerSection
		end := start + maxPayloadPerSection
		if end > len(opts.Payload) {
			end = len(opts.Payload)
		}
		chunk := opts.Payload[start:end]

		sectionLength := headerLen - 3 + len(chunk) + trailerLen // bytes after the 2 length bytes
		data := make([]byte, 3+sectionLength)
		data[0] = opts.TableID

		lenField := uint16(0b11<<12) | uint16(sectionLength)&0x0fff
		if opts.UseSyntaxIndicator {
			lenField |= 1 << 15
		}
		if opts.PrivateIndicator {
			lenField |= 1 << 14
		}
		binary.BigEndian.PutUint16(data[1:3], lenField)

		offset := 3
		if opts.UseSyntaxIndicator {
			binary.BigEndian.PutUint16(data[offset:offset+2], opts.TableIDExtension)
			offset += 2
			data[offset] = 0b11000000 | (opts.VersionNumber&0x1f)<<1 | 1 // reserved(2) version(5) current_next(1)=1
			offset++
			data[offset] = uint8(i) // section_number
			offset++
			data[offset] = uint8(numSections - 1) // last_section_number
			offset++
		}

		copy(data[offset:], chunk)
		offset += len(chunk)

		if useCRC {
			crc := crc32MPEG(data[:offset])
			binary.BigEndian.PutUint32(data[offset:], crc)
		}

		sections = append(sections, &Section{Data: data, Length: uint16(len(data))})
	}

	return sections, nil
}

// updateTable implements §4.1's update_table(stream, table_id, ext,
// payload, use_syntax, private, use_crc) contract: delete the table's
// existing sections, bump version_number modulo 32, and rebuild. If
// payload is empty the table is left empty (no sections) per spec. The
// returned bool reports whether more than one section was produced, so
// callers that expect a single-section table (PMT) can log a warning
// through the Logger seam (§4.1 "PMT ... must emit a warning").
func updateTable(t *Table, ext uint16, payload []byte, useSyntax, private bool) (multiSection bool, err error) {
	var v wrappingCounter
	v.mask = 0b11111
	v.value = t.VersionNumber
	v.advance()
	t.VersionNumber = v.get()

	t.Sections = nil

	sections, err := buildSections(sectionBuildOptions{
		TableID:            t.TableID,
		TableIDExtension:   ext,
		Payload:            payload,
		UseSyntaxIndicator: useSyntax,
		PrivateIndicator:   private,
		VersionNumber:      t.VersionNumber,
	})
	if err != nil {
		return false, err
	}
	t.Sections = sections
	return len(sections) > 1, nil
}

// writeSectionPacket emits one TS packet's worth of section data for the
// PSI emitter described in §4.4: writes a TS header with
// payload_unit_start_indicator = (current_section_offset == 0), an initial
// pointer_field byte when starting a section, and up to 183 (first packet)
// or 184 (continuation) bytes of section data.
func writeSectionPacket(w *astikit.BitsWriter, pid uint16, cc uint8, section *Section, offset int, packetSize int) (consumed int, packetStart bool, sectionDone bool, err error) {
	packetStart = offset == 0
	pkt := Packet{
		Header: PacketHeader{
			PID:                       pid,
			ContinuityCounter:         cc,
			HasPayload:                true,
			PayloadUnitStartIndicator: packetStart,
		},
	}

	payloadBudget := packetSize - 4 // sync byte + 3-byte header, accounted for by writePacket itself
	if packetStart {
		payloadBudget-- // pointer_field byte
	}

	remain := len(section.Data) - offset
	chunkLen := remain
	if chunkLen > payloadBudget {
		chunkLen = payloadBudget
	}

	payload := make([]byte, 0, chunkLen+1)
	if packetStart {
		payload = append(payload, 0x00) // pointer_field = 0
	}
	payload = append(payload, section.Data[offset:offset+chunkLen]...)
	pkt.Payload = payload

	if _, err = writePacket(w, &pkt, packetSize); err != nil {
		return 0, packetStart, false, err
	}

	consumed = chunkLen
	sectionDone = offset+chunkLen >= len(section.Data)
	return
}
