package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nurapulse/pulse/core/model"
)

func TestMemoryStore_AppendQuery(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	d := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	err := s.Append(ctx,
		model.TelemetrySample{VehicleID: "v2", Timestamp: d.Add(9 * time.Hour), BatteryPercent: 80, OdometerKM: 5},
		model.TelemetrySample{VehicleID: "v1", Timestamp: d.Add(8 * time.Hour), BatteryPercent: 90, OdometerKM: 1},
		model.TelemetrySample{VehicleID: "v1", Timestamp: d.Add(7 * time.Hour), BatteryPercent: 95, OdometerKM: 0},
		model.TelemetrySample{VehicleID: "v1", Timestamp: d.Add(25 * time.Hour), BatteryPercent: 70, OdometerKM: 9},
	)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := s.Query(ctx, DayRange([]string{"v1"}, d, d))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 || out[0].BatteryPercent != 95 || out[1].BatteryPercent != 90 {
		t.Fatalf("unexpected result %#v", out)
	}
	all, _ := s.Query(ctx, Query{})
	if len(all) != 4 || all[3].VehicleID != "v2" {
		t.Fatalf("unexpected order %#v", all)
	}
	ids, _ := s.Vehicles(ctx)
	if len(ids) != 2 || ids[0] != "v1" {
		t.Fatalf("vehicles %v", ids)
	}
}

func TestMemoryStore_ReplacesSameTimestamp(t *testing.T) {
	s := NewMemoryStore()
	ts := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	_ = s.Append(context.Background(), model.TelemetrySample{VehicleID: "v1", Timestamp: ts, BatteryPercent: 50})
	_ = s.Append(context.Background(), model.TelemetrySample{VehicleID: "v1", Timestamp: ts, BatteryPercent: 40})
	out, _ := s.Query(context.Background(), Query{})
	if len(out) != 1 || out[0].BatteryPercent != 40 {
		t.Fatalf("expected replacement, got %#v", out)
	}
}

func TestMemoryStore_RejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	ts := time.Now()
	err := s.Append(context.Background(),
		model.TelemetrySample{VehicleID: "v1", Timestamp: ts, BatteryPercent: 50},
		model.TelemetrySample{VehicleID: "v1", Timestamp: ts.Add(time.Minute), BatteryPercent: 150},
	)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	out, _ := s.Query(context.Background(), Query{})
	if len(out) != 0 {
		t.Fatalf("batch must be rejected as a whole")
	}
}

func TestRegistry(t *testing.T) {
	st, err := Open(StoreConfig{})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := st.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", st)
	}
	if _, err := Open(StoreConfig{Type: "cassandra"}); !errors.Is(err, ErrUnknownStore) {
		t.Fatalf("expected ErrUnknownStore, got %v", err)
	}
	if err := Register("memory", func(map[string]any) (Store, error) { return nil, nil }); err == nil {
		t.Fatalf("duplicate registration must fail")
	}
}

func TestDecode(t *testing.T) {
	var c struct {
		Path    string `json:"path"`
		Timeout int    `json:"timeout_seconds"`
	}
	if err := Decode(map[string]any{"path": "x.db", "timeout_seconds": "5"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Path != "x.db" || c.Timeout != 5 {
		t.Fatalf("decoded %+v", c)
	}
}
