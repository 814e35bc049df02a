package astits

// Packet-level constants.
const (
	syncByte                byte   = 0x47
	MpegTsPacketSize        int    = 188
	MpegTsPacketHeaderSize  int    = 3
	NullPID                 uint16 = 0x1fff
	PIDPAT                  uint16 = 0x0000
	StartPID                uint16 = 0x0100
	PMTStartPID             uint16 = 0x1000
	ProgramNumberStart      uint16 = 1
	DefaultElementaryPIDBase uint16 = 110
)

// Table IDs, as enumerated in the PSI constants section of the spec.
const (
	PSITableTypeIdPAT   uint8 = 0x00
	PSITableTypeIdCAT   uint8 = 0x01
	PSITableTypeIdPMT   uint8 = 0x02
	PSITableTypeIdBIFS  uint8 = 0x04
	PSITableTypeIdOD    uint8 = 0x05
	PSITableTypeIdSDT   uint8 = 0x42
	PSITableTypeIdBAT   uint8 = 0x4A
)

// Stream types (subset relevant to the muxer; values mirror ISO/IEC 13818-1
// table 2-34 and the MPEG-4 OTI mapping table in the spec's ES Interface
// section).
type StreamType uint8

const (
	StreamTypeMPEG1Video   StreamType = 0x01
	StreamTypeMPEG2Video   StreamType = 0x02
	StreamTypeMPEG1Audio   StreamType = 0x03
	StreamTypeMPEG2Audio   StreamType = 0x04
	StreamTypePrivateSection StreamType = 0x05
	StreamTypePrivateData  StreamType = 0x06
	StreamTypeAACAudio     StreamType = 0x0f
	StreamTypeMPEG4Video   StreamType = 0x10
	StreamTypeAACLATMAudio StreamType = 0x11
	StreamTypeMetadata     StreamType = 0x15
	StreamTypeH264Video    StreamType = 0x1b
	StreamTypeH265Video    StreamType = 0x24
	StreamTypeCAVSVideo    StreamType = 0x42
	StreamTypeVC1Video     StreamType = 0xea
	StreamTypeDIRACVideo   StreamType = 0xd1
	StreamTypeAC3Audio     StreamType = 0x81
	StreamTypeEAC3Audio    StreamType = 0x87
)

// refresh periods from §3: "default 500 ms; overridden to 200 ms for PAT/PMT".
const (
	defaultRefreshRateMs = 500
	psiRefreshRateMs     = 200
)

// pcrOverheadBitsPerCycle is the "8*8*10" constant from §4.5. Its exact
// provenance is unclear in the legacy source; preserved verbatim per the
// Open Questions in spec.md §9.
const pcrOverheadBitsPerCycle = 8 * 8 * 10

// defaultStallThreshold mirrors gpac's MP42TS_BUFFER_TIME grace window
// (§6): a PCR stream can return ErrNoDataAvailable this many consecutive
// Scheduler cycles before it is logged as stalled.
const defaultStallThreshold = 25

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
