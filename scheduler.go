package astits

import (
	"context"
	"fmt"

	"github.com/barbashov/go-astits/esutil"
)

// Process runs exactly one Scheduler cycle, per §4.4: pick the PAT, a PMT,
// or a PES stream with the earliest virtual time among those due (their
// stream.Time <= the muxer's virtual time) and ready to emit, tie-broken by
// insertion order (PAT, then each program's PMT and streams in attach
// order); if nothing is due, emit a NULL packet instead. wrote reports
// whether a packet was written at all (true even for a NULL packet); done
// reports whether every elementary stream has reported end-of-stream with
// nothing left queued.
func (m *Muxer) Process() (wrote bool, done bool, err error) {
	if m.needsReconfig {
		if err = m.updateConfig(false); err != nil {
			return false, false, err
		}
	}

	var winner *Stream
	var winnerIsPSI bool
	consider := func(s *Stream, isPSI, ready bool) {
		if !ready {
			return
		}
		if winner == nil || s.Time.Before(winner.Time) {
			winner = s
			winnerIsPSI = isPSI
		}
	}

	consider(m.pat, true, len(m.pat.Tables[0].Sections) > 0 && m.pat.Time.BeforeOrEqual(m.time))

	allOver := true
	for _, p := range m.programs {
		consider(p.PMT, true, len(p.PMT.Tables[0].Sections) > 0 && p.PMT.Time.BeforeOrEqual(m.time))
		for _, s := range p.Streams {
			ready := m.pesReady(s) && s.Time.BeforeOrEqual(m.time)
			consider(s, false, ready)
			if !s.streamOver || s.pck != nil {
				allOver = false
			}
		}
	}

	if winner == nil {
		if err = m.writeNullPacket(); err != nil {
			return false, false, err
		}
		m.advanceClock(m.packetSize)
		return true, allOver, nil
	}

	if winnerIsPSI {
		err = m.emitPSIPacket(winner)
	} else {
		err = m.emitPESPacket(winner)
	}
	if err != nil {
		return false, false, err
	}

	m.advanceClock(m.packetSize)
	m.stats.PacketsSent++
	if m.metrics != nil {
		m.metrics.Packets.Inc()
	}
	return true, false, nil
}

// Run drains Process until ctx is done or every stream is exhausted, the
// loop form described in §5.
func (m *Muxer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_, done, err := m.Process()
		if err != nil {
			return err
		}
		if m.realTime && m.limiter != nil {
			if err := m.limiter.WaitN(ctx, m.packetSize); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

func (m *Muxer) writeNullPacket() error {
	_, err := m.w.Write(m.nullPacket)
	m.stats.NullPackets++
	if m.metrics != nil {
		m.metrics.NullPackets.Inc()
		m.metrics.Packets.Inc()
	}
	return err
}

// advanceClock advances the muxer's virtual clock by the time it takes to
// emit packetSize bytes at the current aggregate bit_rate (§4.3).
func (m *Muxer) advanceClock(packetSize int) {
	m.time = m.time.AddFraction(uint64(packetSize)*8, uint64(m.bitRate))
}

// pesReady implements the per-stream eligibility check in §4.3: a PES
// stream is not a candidate until its program's PCR stream has initialized
// the program timeline (unless it is that PCR stream itself), and it must
// have an access unit loaded (pulling a fresh one from its Source if idle).
// A PCR stream that returns ErrNoDataAvailable for more than
// m.StallThreshold consecutive cycles is logged as stalled, the grace
// window supplemented from gpac's MP42TS_BUFFER_TIME (§6).
func (m *Muxer) pesReady(s *Stream) bool {
	if s.pck == nil {
		if s.streamOver {
			return false
		}
		var au esutil.AccessUnit
		if err := s.Source.Pull(&au); err != nil {
			if err == esutil.ErrEndOfStream {
				s.streamOver = true
			} else {
				m.trackStall(s)
			}
			return false
		}
		s.noDataCycles = 0
		s.stalledLogged = false
		s.pck = &au
		s.pckOffset = 0
		m.onNewAU(s, &au)
	}

	p := s.Program
	if p.PCR != s && !p.PCRInit {
		return false
	}
	return true
}

// trackStall counts consecutive no-data cycles for s and, if s is its
// program's PCR stream, logs once when m.StallThreshold is exceeded.
func (m *Muxer) trackStall(s *Stream) {
	if m.StallThreshold == 0 || s.Program.PCR != s {
		return
	}
	s.noDataCycles++
	if s.noDataCycles > m.StallThreshold && !s.stalledLogged {
		s.stalledLogged = true
		m.logger.Warn(fmt.Sprintf("astits: PCR stream on PID %d stalled: no data for %d consecutive cycles", s.PID, s.noDataCycles))
	}
}

// onNewAU implements the PCR initialization rule and rate measurement of
// §4.3: the program's PCR stream establishes PCRInitTSTime/PCRInitTime on
// its first access unit; every stream's virtual time is then derived from
// the delta between its DTS and that origin.
func (m *Muxer) onNewAU(s *Stream, au *esutil.AccessUnit) {
	dts90 := s.dts90k(au.DTS)
	p := s.Program

	if s == p.PCR && !p.PCRInit {
		p.PCRInit = true
		p.PCRInitTSTime = m.time
		p.PCRInitTime = dts90
	}

	if p.PCRInit {
		var delta uint64
		if dts90 >= p.PCRInitTime {
			delta = dts90 - p.PCRInitTime
		}
		s.Time = p.PCRInitTSTime.AddFraction(delta, 90000)
	}

	m.measureRate(s, au, dts90)
}

// measureRate implements §4.3's "Measuring rate" state machine for streams
// attached without an a-priori bit rate: accumulate bytes over one second of
// DTS, then derive bit_rate and ask the Rate Controller to recompute.
func (m *Muxer) measureRate(s *Stream, au *esutil.AccessUnit, dts90 uint64) {
	if s.BitRate != 0 && !s.rateHasStart {
		return
	}
	if !s.rateHasStart {
		s.rateHasStart = true
		s.rateDTSStart = dts90
		s.rateAccumBytes = 0
		return
	}
	s.rateAccumBytes += uint64(len(au.Data))
	elapsed := dts90 - s.rateDTSStart
	if elapsed < 90000 {
		return
	}
	newRate := uint32(s.rateAccumBytes * 8 * 90000 / elapsed)
	if newRate != s.BitRate {
		s.BitRate = newRate
		m.needsReconfig = true
	}
	s.rateHasStart = false
}

// emitPSIPacket writes one packet's worth of the PSI stream's current
// section, advancing the section/table cursor and, once a full table cycle
// has been sent, scheduling the next retransmission refresh_rate_ms later
// (§4.1, §4.4).
func (m *Muxer) emitPSIPacket(s *Stream) error {
	t := s.Tables[s.currentTableIdx]
	sec := t.Sections[s.currentSectionIdx]

	consumed, _, sectionDone, err := writeSectionPacket(m.bw, s.PID, s.cc.get(), sec, s.currentSectionOffset, m.packetSize)
	if err != nil {
		return err
	}
	s.cc.advance()
	s.currentSectionOffset += consumed

	if !sectionDone {
		return nil
	}
	s.currentSectionOffset = 0
	s.currentSectionIdx++
	if s.currentSectionIdx < len(t.Sections) {
		return nil
	}
	s.currentSectionIdx = 0
	s.currentTableIdx++
	if s.currentTableIdx < len(s.Tables) {
		return nil
	}
	s.currentTableIdx = 0
	s.Time = s.Time.AddFraction(uint64(s.RefreshRateMs), 1000)
	return nil
}
