package astits

import "golang.org/x/time/rate"

// psiStreamBitRate implements §4.5's per-PSI-stream formula:
// (sum(section.length) * 8 * 1000) / refresh_rate_ms.
func psiStreamBitRate(s *Stream) uint32 {
	if s.RefreshRateMs == 0 || len(s.Tables) == 0 {
		return 0
	}
	var totalBytes uint64
	for _, t := range s.Tables {
		for _, sec := range t.Sections {
			totalBytes += uint64(len(sec.Data))
		}
	}
	return uint32(totalBytes * 8 * 1000 / uint64(s.RefreshRateMs))
}

// updateConfig implements the Rate Controller's update_config(reset_time)
// contract (§4.5): rebuild the PSI tables, recompute every PSI stream's bit
// rate from its freshly built sections, and fold everything into the
// aggregate bit_rate unless fixed_rate pins it. A program with a PCR stream
// carries pcrOverheadBitsPerCycle of extra overhead, preserved verbatim per
// the Open Questions resolution in SPEC_FULL.md.
func (m *Muxer) updateConfig(resetTime bool) error {
	if err := m.rebuildTables(); err != nil {
		return err
	}

	m.pat.BitRate = psiStreamBitRate(m.pat)
	for _, p := range m.programs {
		p.PMT.BitRate = psiStreamBitRate(p.PMT)
	}

	if !m.fixedRate {
		total := uint64(m.pat.BitRate)
		for _, p := range m.programs {
			progTotal := uint64(p.PMT.BitRate)
			for _, s := range p.Streams {
				progTotal += uint64(s.BitRate)
			}
			if p.PCR != nil {
				progTotal += pcrOverheadBitsPerCycle
			}
			total += progTotal
		}
		m.bitRate = uint32(total)
	}

	if m.metrics != nil {
		m.metrics.BitRate.Set(float64(m.bitRate))
	}

	if m.realTime && m.bitRate > 0 {
		// Burst of 4 packets keeps Run's WaitN calls from stalling on the
		// rounding of a single packet's token cost.
		m.limiter = rate.NewLimiter(rate.Limit(float64(m.bitRate)/8), m.packetSize*4)
	}

	if resetTime {
		m.time = TimeValue{}
		m.pat.Time = TimeValue{}
		for _, p := range m.programs {
			p.PMT.Time = TimeValue{}
			p.PCRInit = false
			p.PCRInitTSTime = TimeValue{}
			p.PCRInitTime = 0
			for _, s := range p.Streams {
				s.Time = TimeValue{}
			}
		}
	}

	m.needsReconfig = false
	return nil
}
