package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/nurapulse/pulse/core/metrics"
)

func captureServer(t *testing.T, body *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordReport(t *testing.T) {
	var body string
	srv := captureServer(t, &body)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	ev := coremetrics.ReportEvent{
		Kind:      coremetrics.KindMilestones,
		Vehicles:  2,
		Days:      3,
		Rows:      6,
		Breaches:  1,
		Malformed: 0,
		Duration:  1500 * time.Microsecond,
		Time:      now,
	}
	if err := sink.RecordReport(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("report_computed").
		AddTag("kind", "milestones").
		AddTag("failed", "false").
		AddField("vehicles", 2).
		AddField("days", 3).
		AddField("rows", 6).
		AddField("breaches", 1).
		AddField("malformed", 0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s\nwant: %s", body, expected)
	}
}

func TestInfluxSink_RecordIngest(t *testing.T) {
	var body string
	srv := captureServer(t, &body)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	if err := sink.RecordIngest(coremetrics.IngestEvent{Source: "mqtt", Accepted: 4, Rejected: 1, Time: time.Now()}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	for _, want := range []string{"telemetry_ingest,source=mqtt", "accepted=4i", "rejected=1i"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %q missing %q", body, want)
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
