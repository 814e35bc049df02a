// Package astits implements the core multiplexing and packetization engine
// of an MPEG-2 Transport Stream producer: a time-driven, rate-controlled
// Muxer built on top of the Section Builder (section.go) and the PES
// packetizer (pes.go, pes_packetizer.go).
package astits

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/asticode/go-astikit"
	"golang.org/x/time/rate"

	"github.com/barbashov/go-astits/esutil"
)

// MuxerStats is a point-in-time snapshot of the Rate Controller and
// Scheduler's bookkeeping, a supplemented feature (SPEC_FULL.md §6) grounded
// on gpac's mp42ts.c status line ("TS: %d kbps ...").
type MuxerStats struct {
	BitRate      uint32
	PacketsSent  uint64
	NullPackets  uint64
	ProgramCount int
}

// Muxer is the time-driven, rate-controlled packetizer described in §4.3:
// it owns a virtual clock, the PAT stream, every Program's PMT and
// elementary streams, and drives the Scheduler one packet at a time.
type Muxer struct {
	logger Logger
	w      io.Writer
	bw     *astikit.BitsWriter

	pesBuf       bytes.Buffer
	pesBufWriter *astikit.BitsWriter

	packetSize int
	nullPacket []byte

	bitRate   uint32
	fixedRate bool
	realTime  bool
	metrics   *MuxerMetrics
	limiter   *rate.Limiter

	// StallThreshold is the number of consecutive no-data Scheduler cycles
	// a program's PCR stream tolerates, per §6's supplemented grace window,
	// before it is logged as stalled. Zero disables the check.
	StallThreshold uint32

	time TimeValue
	tsID uint16

	pat           *Stream
	programs      []*Program
	needsReconfig bool

	nextElementaryPID uint16
	nextPMTPID        uint16
	nextProgramNumber uint16

	stats MuxerStats
}

// NewMuxer creates a Muxer writing 188-byte packets to w, following the
// teacher's NewMuxer constructor shape.
func NewMuxer(w io.Writer, opts ...MuxerOption) *Muxer {
	m := &Muxer{
		logger:            noopLogger(),
		w:                 w,
		packetSize:        MpegTsPacketSize,
		tsID:              1,
		pat:               newPSIStream(PIDPAT, PSITableTypeIdPAT, psiRefreshRateMs),
		nextElementaryPID: DefaultElementaryPIDBase,
		nextPMTPID:        PMTStartPID,
		nextProgramNumber: ProgramNumberStart,
		needsReconfig:     true,
		StallThreshold:    defaultStallThreshold,
	}
	m.nullPacket = newNullPacket(MpegTsPacketSize)
	m.bw = astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: w})
	m.pesBufWriter = astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: &m.pesBuf})

	for _, o := range opts {
		o(m)
	}
	return m
}

// AddProgram registers a new program and its PMT stream, returning it for
// AddElementaryStream to attach to. number, if zero, is auto-assigned.
func (m *Muxer) AddProgram(number uint16) (*Program, error) {
	if number == 0 {
		number = m.nextProgramNumber
	}
	for _, p := range m.programs {
		if p.Number == number {
			return nil, MuxerErrorPIDAlreadyExists
		}
	}

	pid := m.nextPMTPID
	m.nextPMTPID++
	p := &Program{
		Number: number,
		PMT:    newPSIStream(pid, PSITableTypeIdPMT, m.pat.RefreshRateMs),
	}
	m.programs = append(m.programs, p)
	if number >= m.nextProgramNumber {
		m.nextProgramNumber = number + 1
	}
	m.needsReconfig = true
	return p, nil
}

// AddElementaryStream attaches source to program as a new PES-carrying
// Stream, per §4.6's attach-time contract. If pid is zero it is
// auto-assigned from the elementary PID pool. If isPCR is true this stream
// is designated the program's PCR carrier (§4.3's PCR initialization rule).
func (m *Muxer) AddElementaryStream(program *Program, source esutil.Source, isPCR bool, pid uint16) (*Stream, error) {
	if pid == 0 {
		pid = m.nextElementaryPID
		m.nextElementaryPID++
	} else if pid >= m.nextElementaryPID {
		m.nextElementaryPID = pid + 1
	}
	for _, s := range program.Streams {
		if s.PID == pid {
			return nil, MuxerErrorPIDAlreadyExists
		}
	}

	s := newPESStream(pid, source.Metadata(), source)
	s.Program = program
	s.RefreshRateMs = defaultRefreshRateMs
	program.Streams = append(program.Streams, s)
	if isPCR {
		program.PCR = s
	} else if program.PCR == nil {
		program.PCR = s
	}
	m.needsReconfig = true
	return s, nil
}

// Program looks up a previously added program by number.
func (m *Muxer) Program(number uint16) (*Program, error) {
	for _, p := range m.programs {
		if p.Number == number {
			return p, nil
		}
	}
	return nil, MuxerErrorProgramNotFound
}

// SetPCRPID designates the elementary stream at pid as program's PCR
// carrier, re-deriving the program's clock origin on its next access unit
// (§4.3's PCR initialization rule restarts whenever the PCR stream changes).
func (m *Muxer) SetPCRPID(program *Program, pid uint16) error {
	for _, s := range program.Streams {
		if s.PID != pid {
			continue
		}
		program.PCR = s
		program.PCRInit = false
		m.needsReconfig = true
		return nil
	}
	return MuxerErrorPCRPIDInvalid
}

// RemoveElementaryStream detaches a stream from its program, per the
// teacher's RemoveElementaryStream (muxer.go).
func (m *Muxer) RemoveElementaryStream(program *Program, pid uint16) error {
	for i, s := range program.Streams {
		if s.PID != pid {
			continue
		}
		program.Streams = append(program.Streams[:i], program.Streams[i+1:]...)
		if program.PCR == s {
			program.PCR = nil
			if len(program.Streams) > 0 {
				program.PCR = program.Streams[0]
			}
		}
		m.needsReconfig = true
		return nil
	}
	return MuxerErrorPIDNotFound
}

// generatePATPayload serializes the PAT's program_association_section
// payload (program_number, PID pairs), per §4.1's PAT-specific layout.
func (m *Muxer) generatePATPayload() []byte {
	buf := make([]byte, 4*len(m.programs))
	for i, p := range m.programs {
		binary.BigEndian.PutUint16(buf[i*4:], p.Number)
		binary.BigEndian.PutUint16(buf[i*4+2:], 0xe000|p.PMT.PID)
	}
	return buf
}

// generatePMTPayload serializes a program's program_map_section payload
// (PCR_PID, program_info_length=0, then one stream_type/PID entry per
// elementary stream), per §4.1.
func (p *Program) generatePMTPayload() []byte {
	pcrPID := NullPID
	if p.PCR != nil {
		pcrPID = p.PCR.PID
	}

	buf := make([]byte, 4, 4+5*len(p.Streams))
	binary.BigEndian.PutUint16(buf[0:], 0xe000|pcrPID)
	binary.BigEndian.PutUint16(buf[2:], 0xf000) // program_info_length = 0

	for _, s := range p.Streams {
		entry := make([]byte, 5)
		entry[0] = s.MPEG2StreamType
		binary.BigEndian.PutUint16(entry[1:], 0xe000|s.PID)
		binary.BigEndian.PutUint16(entry[3:], 0xf000) // ES_info_length = 0
		buf = append(buf, entry...)
	}
	return buf
}

// rebuildTables regenerates the PAT and every Program's PMT, bumping each
// table's version_number, per §4.1's update_table contract. Called whenever
// AddProgram/AddElementaryStream/RemoveElementaryStream marks needsReconfig.
func (m *Muxer) rebuildTables() error {
	if _, err := updateTable(m.pat.Tables[0], m.tsID, m.generatePATPayload(), true, false); err != nil {
		return fmt.Errorf("astits: rebuilding PAT: %w", err)
	}

	for _, p := range m.programs {
		multi, err := updateTable(p.PMT.Tables[0], p.Number, p.generatePMTPayload(), true, false)
		if err != nil {
			return fmt.Errorf("astits: rebuilding PMT for program %d: %w", p.Number, err)
		}
		if multi {
			m.logger.Warn(fmt.Sprintf("astits: PMT for program %d split across multiple sections; most decoders expect a single section", p.Number))
		}
	}
	return nil
}

// Stats returns a snapshot of the Rate Controller and Scheduler's current
// bookkeeping (§6 supplemented feature).
func (m *Muxer) Stats() MuxerStats {
	m.stats.BitRate = m.bitRate
	m.stats.ProgramCount = len(m.programs)
	return m.stats
}
