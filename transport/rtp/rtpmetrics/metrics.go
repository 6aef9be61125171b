// Package rtpmetrics exports transport/rtp session and packet counters to
// Prometheus, in the same Describe/Collect collector shape as
// runZeroInc-sockstats's exporter.TCPInfoCollector: a struct of
// *prometheus.Desc paired with a value supplier, plugged into a registry
// from outside the protocol engine rather than baked into it.
package rtpmetrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relaysystems/reliudp/transport/rtp"
)

// Collector implements both rtp.Observer (fed per-packet events as they
// happen) and prometheus.Collector (scraped on demand). The per-kind arrays
// are indexed by the rtp.Kind value itself; rtp.KindAck, rtp.KindData and
// rtp.KindEOF are small contiguous ints so no map is needed.
type Collector struct {
	reg *rtp.Registry

	packetsSent     [3]uint64
	bytesSent       [3]uint64
	packetsReceived [3]uint64
	bytesReceived   [3]uint64
	retransmits     uint64

	droppedMalformed uint64
	droppedChecksum  uint64
	droppedWindow    uint64
	droppedDuplicate uint64

	sessionsDesc    *prometheus.Desc
	packetsSentDesc *prometheus.Desc
	bytesSentDesc   *prometheus.Desc
	packetsRecvDesc *prometheus.Desc
	bytesRecvDesc   *prometheus.Desc
	retransmitDesc  *prometheus.Desc
	droppedDesc     *prometheus.Desc
}

// NewCollector builds a Collector reporting reg's live session count and
// every packet event fed to it via the rtp.Observer methods. prefix is
// prepended to every metric name (cmd/reliconnd passes "reliconnd");
// constLabels are attached to every metric, the same constLabels parameter
// runZeroInc-sockstats's NewTCPInfoCollector takes for process-wide labels
// such as instance or listen address.
func NewCollector(reg *rtp.Registry, prefix string, constLabels prometheus.Labels) *Collector {
	return &Collector{
		reg: reg,
		sessionsDesc: prometheus.NewDesc(
			prefix+"_sessions_active",
			"Number of reliable sessions currently registered.",
			nil, constLabels,
		),
		packetsSentDesc: prometheus.NewDesc(
			prefix+"_packets_sent_total",
			"Packets successfully handed to the substrate, by kind.",
			[]string{"kind"}, constLabels,
		),
		bytesSentDesc: prometheus.NewDesc(
			prefix+"_bytes_sent_total",
			"Wire bytes successfully handed to the substrate, by kind.",
			[]string{"kind"}, constLabels,
		),
		packetsRecvDesc: prometheus.NewDesc(
			prefix+"_packets_received_total",
			"Packets that passed checksum and length validation, by kind.",
			[]string{"kind"}, constLabels,
		),
		bytesRecvDesc: prometheus.NewDesc(
			prefix+"_bytes_received_total",
			"Wire bytes that passed checksum and length validation, by kind.",
			[]string{"kind"}, constLabels,
		),
		retransmitDesc: prometheus.NewDesc(
			prefix+"_retransmits_total",
			"Packets resent after their retransmission timeout expired.",
			nil, constLabels,
		),
		droppedDesc: prometheus.NewDesc(
			prefix+"_packets_dropped_total",
			"Packets discarded instead of delivered or accepted, by reason.",
			[]string{"reason"}, constLabels,
		),
	}
}

// PacketSent implements rtp.Observer.
func (c *Collector) PacketSent(k rtp.Kind, wireLen int) {
	atomic.AddUint64(&c.packetsSent[k], 1)
	atomic.AddUint64(&c.bytesSent[k], uint64(wireLen))
}

// PacketReceived implements rtp.Observer.
func (c *Collector) PacketReceived(k rtp.Kind, wireLen int) {
	atomic.AddUint64(&c.packetsReceived[k], 1)
	atomic.AddUint64(&c.bytesReceived[k], uint64(wireLen))
}

// PacketDropped implements rtp.Observer.
func (c *Collector) PacketDropped(reason string) {
	switch reason {
	case "malformed":
		atomic.AddUint64(&c.droppedMalformed, 1)
	case "checksum":
		atomic.AddUint64(&c.droppedChecksum, 1)
	case "out_of_window":
		atomic.AddUint64(&c.droppedWindow, 1)
	case "duplicate":
		atomic.AddUint64(&c.droppedDuplicate, 1)
	}
}

// Retransmitted implements rtp.Observer.
func (c *Collector) Retransmitted() {
	atomic.AddUint64(&c.retransmits, 1)
}

var _ rtp.Observer = (*Collector)(nil)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.sessionsDesc
	descs <- c.packetsSentDesc
	descs <- c.bytesSentDesc
	descs <- c.packetsRecvDesc
	descs <- c.bytesRecvDesc
	descs <- c.retransmitDesc
	descs <- c.droppedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(
		c.sessionsDesc, prometheus.GaugeValue, float64(c.reg.Len()),
	)

	for _, k := range []rtp.Kind{rtp.KindAck, rtp.KindData, rtp.KindEOF} {
		label := k.String()
		metrics <- prometheus.MustNewConstMetric(
			c.packetsSentDesc, prometheus.CounterValue,
			float64(atomic.LoadUint64(&c.packetsSent[k])), label,
		)
		metrics <- prometheus.MustNewConstMetric(
			c.bytesSentDesc, prometheus.CounterValue,
			float64(atomic.LoadUint64(&c.bytesSent[k])), label,
		)
		metrics <- prometheus.MustNewConstMetric(
			c.packetsRecvDesc, prometheus.CounterValue,
			float64(atomic.LoadUint64(&c.packetsReceived[k])), label,
		)
		metrics <- prometheus.MustNewConstMetric(
			c.bytesRecvDesc, prometheus.CounterValue,
			float64(atomic.LoadUint64(&c.bytesReceived[k])), label,
		)
	}

	metrics <- prometheus.MustNewConstMetric(
		c.retransmitDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.retransmits)),
	)

	for reason, n := range map[string]*uint64{
		"malformed":     &c.droppedMalformed,
		"checksum":      &c.droppedChecksum,
		"out_of_window": &c.droppedWindow,
		"duplicate":     &c.droppedDuplicate,
	} {
		metrics <- prometheus.MustNewConstMetric(
			c.droppedDesc, prometheus.CounterValue, float64(atomic.LoadUint64(n)), reason,
		)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
