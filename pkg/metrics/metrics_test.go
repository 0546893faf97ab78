package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/milweb-dev/milweb/pkg/client"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

var _ client.Observer = (*Collector)(nil)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestCollectorRecordsActivity(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))

	c.ProxyAdded(protocol.TypeDisplay)
	c.ProxyAdded(protocol.TypeDisplay)
	c.ProxyRemoved(protocol.TypeDisplay)
	c.RequestSent(protocol.CmdRequestObjectData)
	c.FrameReceived(protocol.TypeImage, 64, 3*time.Millisecond)
	c.FrameReceived(protocol.TypeImage, 16, 0)
	c.GroupRound("G")
	c.Error(14)

	if got := gaugeValue(t, c.activeProxies.WithLabelValues("display")); got != 1 {
		t.Errorf("active_proxies(display) = %v, want 1", got)
	}
	if got := counterValue(t, c.requestsSent.WithLabelValues("RequestObjectData")); got != 1 {
		t.Errorf("requests_sent_total = %v, want 1", got)
	}
	if got := counterValue(t, c.framesReceived.WithLabelValues("image")); got != 2 {
		t.Errorf("frames_received_total = %v, want 2", got)
	}
	if got := counterValue(t, c.bytesReceived.WithLabelValues("image")); got != 80 {
		t.Errorf("bytes_received_total = %v, want 80", got)
	}
	if got := histogramCount(t, c.dataLatency.WithLabelValues("image")); got != 1 {
		t.Errorf("data_latency_seconds count = %d, want 1", got)
	}
	if got := counterValue(t, c.groupRounds.WithLabelValues("G")); got != 1 {
		t.Errorf("group_rounds_total = %v, want 1", got)
	}
	if got := counterValue(t, c.errors.WithLabelValues("14")); got != 1 {
		t.Errorf("errors_total(14) = %v, want 1", got)
	}
}

func TestOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(
		WithRegistry(reg),
		WithNamespace("inspector"),
		WithSubsystem("client"),
		WithConstLabels(prometheus.Labels{"site": "lab"}),
		WithBuckets([]float64{0.01, 0.1}),
	)
	c.GroupRound("G")
	c.FrameReceived(protocol.TypeArray, 8, 50*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]*dto.MetricFamily)
	for _, f := range families {
		names[f.GetName()] = f
	}
	round, ok := names["inspector_client_group_rounds_total"]
	if !ok {
		t.Fatalf("group rounds metric missing, got %v", names)
	}
	labels := round.GetMetric()[0].GetLabel()
	found := false
	for _, l := range labels {
		if l.GetName() == "site" && l.GetValue() == "lab" {
			found = true
		}
	}
	if !found {
		t.Errorf("labels = %v, want site=lab", labels)
	}
	latency, ok := names["inspector_client_data_latency_seconds"]
	if !ok {
		t.Fatal("latency metric missing")
	}
	if n := len(latency.GetMetric()[0].GetHistogram().GetBucket()); n != 2 {
		t.Errorf("buckets = %d, want 2", n)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))
	defer func() {
		if recover() == nil {
			t.Error("second New on the same registry should panic")
		}
	}()
	New(WithRegistry(reg))
}
