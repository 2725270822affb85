package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/telemetry"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = st.Close() }()
	ctx := context.Background()
	d := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	err = st.Append(ctx,
		model.TelemetrySample{VehicleID: "v1", Timestamp: d.Add(9 * time.Hour), BatteryPercent: 80, OdometerKM: 25.5},
		model.TelemetrySample{VehicleID: "v1", Timestamp: d.Add(6 * time.Hour), BatteryPercent: 100, OdometerKM: 10},
		model.TelemetrySample{VehicleID: "v2", Timestamp: d.Add(6 * time.Hour), BatteryPercent: 60, OdometerKM: 3},
		model.TelemetrySample{VehicleID: "v1", Timestamp: d.Add(30 * time.Hour), BatteryPercent: 40, OdometerKM: 90},
	)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := st.Query(ctx, telemetry.DayRange([]string{"v1"}, d, d))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(out))
	}
	if out[0].BatteryPercent != 100 || out[1].OdometerKM != 25.5 {
		t.Fatalf("unexpected rows %#v", out)
	}
	if !out[0].Timestamp.Equal(d.Add(6 * time.Hour)) {
		t.Fatalf("timestamp %s", out[0].Timestamp)
	}
	ids, err := st.Vehicles(ctx)
	if err != nil || len(ids) != 2 {
		t.Fatalf("vehicles %v err %v", ids, err)
	}
}

func TestSQLiteStore_Upsert(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = st.Close() }()
	ts := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if err := st.Append(ctx, model.TelemetrySample{VehicleID: "v1", Timestamp: ts, BatteryPercent: 50, OdometerKM: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(ctx, model.TelemetrySample{VehicleID: "v1", Timestamp: ts, BatteryPercent: 45, OdometerKM: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, _ := st.Query(ctx, telemetry.Query{})
	if len(out) != 1 || out[0].BatteryPercent != 45 {
		t.Fatalf("expected upsert, got %#v", out)
	}
	if err := st.Append(ctx, model.TelemetrySample{VehicleID: "", Timestamp: ts}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestOpenRegisteredStores(t *testing.T) {
	st, err := telemetry.Open(telemetry.StoreConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "x.db")}})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = st.Close()
	if _, err := telemetry.Open(telemetry.StoreConfig{Type: "sqlite"}); err == nil {
		t.Fatalf("expected missing path error")
	}
}
