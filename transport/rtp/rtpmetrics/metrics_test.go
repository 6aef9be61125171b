package rtpmetrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relaysystems/reliudp/transport/rtp"
)

func TestCollectorDescribeCount(t *testing.T) {
	reg := rtp.NewRegistry(nil)
	c := NewCollector(reg, "reliudp", nil)

	descs := make(chan *prometheus.Desc, 16)
	c.Describe(descs)
	close(descs)

	got := 0
	for range descs {
		got++
	}
	if got != 7 {
		t.Errorf("got %d descriptors, want 7", got)
	}
}

func TestCollectorEmitsEverySeriesAfterObserverEvents(t *testing.T) {
	reg := rtp.NewRegistry(nil)
	c := NewCollector(reg, "reliudp", nil)

	c.PacketSent(rtp.KindData, 520)
	c.PacketReceived(rtp.KindAck, 8)
	c.PacketDropped("duplicate")
	c.Retransmitted()

	metrics := make(chan prometheus.Metric, 64)
	c.Collect(metrics)
	close(metrics)

	var count int
	for range metrics {
		count++
	}
	// sessions(1) + 4 per-kind metrics * 3 kinds (12) + retransmits(1) + dropped reasons(4)
	if count != 18 {
		t.Errorf("got %d metrics emitted, want 18", count)
	}
}

func TestCollectorReflectsRegistrySessionCount(t *testing.T) {
	reg := rtp.NewRegistry(nil)
	c := NewCollector(reg, "reliudp", nil)

	sub := noopSubstrate{}
	if _, err := reg.NewSession(sub, rtp.Config{Window: 4, Timeout: 1}); err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	metrics := make(chan prometheus.Metric, 64)
	c.Collect(metrics)
	close(metrics)

	first := <-metrics // sessionsDesc is always sent first, see Collect
	var pb dto.Metric
	if err := first.Write(&pb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if pb.Gauge == nil || pb.Gauge.GetValue() != 1 {
		t.Errorf("got sessions gauge %+v, want value 1", pb.Gauge)
	}
}

// noopSubstrate satisfies rtp.Substrate without doing anything; used only
// to exercise the registry's session count, not the packet engine.
type noopSubstrate struct{}

func (noopSubstrate) SendDatagram([]byte) error               { return nil }
func (noopSubstrate) ReadInput(buf []byte) (int, bool, error) { return 0, true, nil }
func (noopSubstrate) OutputSpace() int                        { return 1 << 20 }
func (noopSubstrate) WriteOutput([]byte) error                { return nil }
