package astits

import "github.com/barbashov/go-astits/esutil"

// StreamKind discriminates the tagged union described in the Data Model:
// a Stream is either a PSI carrier (PAT/PMT/BIFS/OD) or a PES carrier.
type StreamKind int

const (
	StreamKindPSI StreamKind = iota
	StreamKindPES
)

// Program owns a PMT stream, a designated PCR-carrying stream, and its
// elementary streams, in insertion order, per the Data Model.
//
// The legacy design notes call for an arena+index back-reference scheme
// to avoid cyclic ownership; Go's garbage collector reclaims reference
// cycles on its own; Streams simply hold a plain *Program back-pointer.
type Program struct {
	Number uint16
	PMT    *Stream
	PCR    *Stream

	PCRInit       bool
	PCRInitTSTime TimeValue
	PCRInitTime   uint64

	Streams []*Stream
}

// Stream is either a PSI carrier or a PES carrier, per the Data Model.
type Stream struct {
	Kind StreamKind
	PID  uint16
	cc   wrappingCounter
	Time TimeValue

	BitRate       uint32
	RefreshRateMs uint32

	Program *Program

	// PSI-specific fields.
	Tables               []*Table
	currentTableIdx      int
	currentSectionIdx    int
	currentSectionOffset int
	tableNeedsUpdate     bool

	// PES-specific fields.
	MPEG2StreamType uint8
	MPEG2StreamID   uint8
	Source          esutil.Source
	TSScale         float64

	pck        *esutil.AccessUnit
	pckOffset  int
	streamOver bool

	rateHasStart   bool
	rateAccumBytes uint64
	rateDTSStart   uint64

	noDataCycles  uint32
	stalledLogged bool
}

func newPSIStream(pid uint16, tableID uint8, refreshRateMs uint32) *Stream {
	return &Stream{
		Kind:          StreamKindPSI,
		PID:           pid,
		cc:            newWrappingCounter(0b1111),
		RefreshRateMs: refreshRateMs,
		Tables:        []*Table{{TableID: tableID}},
	}
}

func newPESStream(pid uint16, meta esutil.Metadata, source esutil.Source) *Stream {
	return &Stream{
		Kind:            StreamKindPES,
		PID:             pid,
		cc:              newWrappingCounter(0b1111),
		BitRate:         meta.BitRate,
		MPEG2StreamType: esutil.MPEG2StreamType(meta.ObjectTypeIndication),
		MPEG2StreamID:   pesStreamIDFor(esutil.MPEG2StreamType(meta.ObjectTypeIndication)),
		Source:          source,
		TSScale:         meta.TSScale(),
	}
}

// pesStreamIDFor maps an MPEG-2 stream_type to a PES stream_id, grounded
// on the teacher's pmtStreamTypeToPESStreamID.
func pesStreamIDFor(streamType uint8) uint8 {
	switch StreamType(streamType) {
	case StreamTypeMPEG1Video, StreamTypeMPEG2Video, StreamTypeMPEG4Video, StreamTypeH264Video,
		StreamTypeH265Video, StreamTypeCAVSVideo, StreamTypeVC1Video:
		return 0xe0
	case StreamTypeDIRACVideo:
		return 0xfd
	case StreamTypeMPEG1Audio, StreamTypeMPEG2Audio, StreamTypeAACAudio, StreamTypeAACLATMAudio:
		return 0xc0
	case StreamTypeAC3Audio, StreamTypeEAC3Audio:
		return 0xfd
	case StreamTypePrivateSection, StreamTypePrivateData, StreamTypeMetadata:
		return 0xfc
	default:
		return 0xbd
	}
}

// dts90k converts an access unit's DTS, expressed in the source's native
// timescale, to 90 kHz ticks.
func (s *Stream) dts90k(dts uint64) uint64 {
	if s.TSScale == 1 {
		return dts
	}
	return uint64(float64(dts) * s.TSScale)
}
