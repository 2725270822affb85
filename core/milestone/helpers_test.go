package milestone

import (
	"testing"
	"time"

	"github.com/nurapulse/pulse/core/model"
)

var testDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

type pt struct {
	clock string
	pct   int
	km    float64
}

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	c, err := time.Parse("15:04:05", clock)
	if err != nil {
		c, err = time.Parse("15:04", clock)
	}
	if err != nil {
		t.Fatalf("clock %q: %v", clock, err)
	}
	return time.Date(testDay.Year(), testDay.Month(), testDay.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
}

func series(t *testing.T, pts ...pt) model.DaySeries {
	t.Helper()
	ds := model.DaySeries{VehicleID: "KA01", Date: testDay}
	for _, p := range pts {
		ds.Samples = append(ds.Samples, model.TelemetrySample{
			VehicleID:      "KA01",
			Timestamp:      at(t, p.clock),
			BatteryPercent: p.pct,
			OdometerKM:     p.km,
		})
	}
	return ds
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}
