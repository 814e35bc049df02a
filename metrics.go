package astits

import "github.com/prometheus/client_golang/prometheus"

// MuxerMetrics is an optional Prometheus recorder for the Rate Controller's
// aggregate bit_rate and the Scheduler's NULL-packet ratio, per SPEC_FULL.md
// §6's supplemented statistics feature. Attaching one is opt-in
// (MuxerOptionMetrics); a Muxer with no metrics recorder does no Prometheus
// work at all.
type MuxerMetrics struct {
	BitRate     prometheus.Gauge
	NullPackets prometheus.Counter
	Packets     prometheus.Counter
}

// NewMuxerMetrics builds a MuxerMetrics with the given namespace and
// registers its collectors with reg.
func NewMuxerMetrics(reg prometheus.Registerer, namespace string) *MuxerMetrics {
	m := &MuxerMetrics{
		BitRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mux_bit_rate",
			Help:      "Current aggregate output bit rate, in bits per second.",
		}),
		NullPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mux_null_packets_total",
			Help:      "Total NULL (PID 0x1FFF) packets emitted.",
		}),
		Packets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mux_packets_total",
			Help:      "Total transport packets emitted, including NULL packets.",
		}),
	}
	reg.MustRegister(m.BitRate, m.NullPackets, m.Packets)
	return m
}
