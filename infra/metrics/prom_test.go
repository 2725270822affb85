package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/nurapulse/pulse/core/metrics"
)

func TestPromSink_RecordReport(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = sink.RecordReport(coremetrics.ReportEvent{Kind: coremetrics.KindLowCharge, Rows: 3, Breaches: 3, Malformed: 1, Duration: 20 * time.Millisecond})
	_ = sink.RecordReport(coremetrics.ReportEvent{Kind: coremetrics.KindLowCharge, Failed: true})

	if v := testutil.ToFloat64(sink.reports.WithLabelValues("low_charge", "false")); v != 1 {
		t.Fatalf("expected 1 report, got %v", v)
	}
	if v := testutil.ToFloat64(sink.reports.WithLabelValues("low_charge", "true")); v != 1 {
		t.Fatalf("expected 1 failed report, got %v", v)
	}
	if v := testutil.ToFloat64(sink.rows.WithLabelValues("low_charge")); v != 3 {
		t.Fatalf("expected 3 rows, got %v", v)
	}
	if v := testutil.ToFloat64(sink.breaches); v != 3 {
		t.Fatalf("expected 3 breaches, got %v", v)
	}
	if v := testutil.ToFloat64(sink.malformed); v != 1 {
		t.Fatalf("expected 1 malformed day, got %v", v)
	}
	if n := testutil.CollectAndCount(sink.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestPromSink_RecordIngest(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = sink.RecordIngest(coremetrics.IngestEvent{Source: "http", Accepted: 5, Rejected: 2})
	if v := testutil.ToFloat64(sink.ingested.WithLabelValues("http", "accepted")); v != 5 {
		t.Fatalf("accepted %v", v)
	}
	if v := testutil.ToFloat64(sink.ingested.WithLabelValues("http", "rejected")); v != 2 {
		t.Fatalf("rejected %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = first.RecordReport(coremetrics.ReportEvent{Kind: coremetrics.KindMilestones})
	_ = second.RecordReport(coremetrics.ReportEvent{Kind: coremetrics.KindMilestones})
	if v := testutil.ToFloat64(first.reports.WithLabelValues("milestones", "false")); v != 2 {
		t.Fatalf("expected shared counter at 2, got %v", v)
	}
}

func TestHandler_ExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, _ := NewPromSinkWithRegistry(reg)
	_ = sink.RecordReport(coremetrics.ReportEvent{Kind: coremetrics.KindMorningCharge, Rows: 1})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `pulse_reports_total{failed="false",kind="morning_charge"} 1`) {
		t.Fatalf("metric not exposed:\n%s", body)
	}
}
