package astits

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
)

func TestMaxSectionLength(t *testing.T) {
	for _, id := range []uint8{PSITableTypeIdPAT, PSITableTypeIdPMT, PSITableTypeIdSDT, PSITableTypeIdBAT} {
		l, ok := maxSectionLength(id)
		assert.True(t, ok)
		assert.Equal(t, 1024, l)
	}
	for _, id := range []uint8{PSITableTypeIdBIFS, PSITableTypeIdOD} {
		l, ok := maxSectionLength(id)
		assert.True(t, ok)
		assert.Equal(t, 4096, l)
	}
	_, ok := maxSectionLength(0x99)
	assert.False(t, ok)
}

func TestBuildSections_unknownTableID(t *testing.T) {
	_, err := buildSections(sectionBuildOptions{TableID: 0x99, Payload: []byte{0x01}})
	assert.ErrorIs(t, err, ErrUnknownTableID)
}

func TestBuildSections_emptyPayload(t *testing.T) {
	sections, err := buildSections(sectionBuildOptions{TableID: PSITableTypeIdPAT, Payload: nil})
	assert.NoError(t, err)
	assert.Nil(t, sections)
}

func TestBuildSections_singleSectionWithCRC(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xe1, 0x00}
	sections, err := buildSections(sectionBuildOptions{
		TableID:            PSITableTypeIdPAT,
		TableIDExtension:   7,
		Payload:            payload,
		UseSyntaxIndicator: true,
		VersionNumber:      0,
	})
	assert.NoError(t, err)
	assert.Len(t, sections, 1)

	data := sections[0].Data
	assert.Equal(t, PSITableTypeIdPAT, data[0])

	sectionLength := binary.BigEndian.Uint16(data[1:3]) & 0x0fff
	assert.Equal(t, uint16(5+len(payload)+4), sectionLength) // syntax header + payload + CRC

	tableIDExt := binary.BigEndian.Uint16(data[3:5])
	assert.Equal(t, uint16(7), tableIDExt)

	assert.Equal(t, uint8(0), data[6]) // section_number
	assert.Equal(t, uint8(0), data[7]) // last_section_number

	crc := crc32MPEG(data[:len(data)-4])
	assert.Equal(t, crc, binary.BigEndian.Uint32(data[len(data)-4:]))
}

func TestBuildSections_fragmentsAcrossMaxLength(t *testing.T) {
	// PAT max section length is 1024; header(8)+CRC(4) leaves 1012 bytes of
	// payload per section, so 1013 bytes of payload must split into 2.
	payload := bytes.Repeat([]byte{0x42}, 1013)
	sections, err := buildSections(sectionBuildOptions{
		TableID:            PSITableTypeIdPAT,
		Payload:            payload,
		UseSyntaxIndicator: true,
	})
	assert.NoError(t, err)
	assert.Len(t, sections, 2)
	assert.Equal(t, uint8(0), sections[0].Data[6])
	assert.Equal(t, uint8(1), sections[0].Data[7]) // last_section_number = 1 in both
	assert.Equal(t, uint8(1), sections[1].Data[6])
}

func TestUpdateTable_bumpsVersionModulo32(t *testing.T) {
	tbl := &Table{TableID: PSITableTypeIdPAT, VersionNumber: 31}
	_, err := updateTable(tbl, 1, []byte{0x00, 0x01, 0xe1, 0x00}, true, false)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0), tbl.VersionNumber)
}

func TestUpdateTable_reportsMultiSection(t *testing.T) {
	tbl := &Table{TableID: PSITableTypeIdPAT}
	multi, err := updateTable(tbl, 1, bytes.Repeat([]byte{0x01}, 1013), true, false)
	assert.NoError(t, err)
	assert.True(t, multi)
}

func TestWriteSectionPacket_pointerFieldOnlyOnStart(t *testing.T) {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})

	section := &Section{Data: bytes.Repeat([]byte{0x11}, 10)}
	consumed, packetStart, sectionDone, err := writeSectionPacket(w, 0x100, 0, section, 0, MpegTsPacketSize)

	assert.NoError(t, err)
	assert.True(t, packetStart)
	assert.True(t, sectionDone)
	assert.Equal(t, 10, consumed)
	// payload begins right after the 4-byte TS header: pointer_field(0x00)
	// followed by the section bytes.
	assert.Equal(t, uint8(0x00), buf.Bytes()[4])
	assert.Equal(t, section.Data, buf.Bytes()[5:15])
}

func TestWriteSectionPacket_spansMultiplePackets(t *testing.T) {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})

	section := &Section{Data: bytes.Repeat([]byte{0x22}, 200)}
	consumed, _, sectionDone, err := writeSectionPacket(w, 0x100, 0, section, 0, MpegTsPacketSize)
	assert.NoError(t, err)
	assert.False(t, sectionDone)
	assert.Less(t, consumed, len(section.Data))

	_, packetStart2, sectionDone2, err := writeSectionPacket(w, 0x100, 1, section, consumed, MpegTsPacketSize)
	assert.NoError(t, err)
	assert.False(t, packetStart2)
	assert.True(t, sectionDone2)
}
