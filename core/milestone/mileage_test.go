package milestone

import (
	"testing"

	"github.com/nurapulse/pulse/core/model"
)

func crossingAt(t *testing.T, th int, clock string, km float64) Crossing {
	return Crossing{Threshold: th, Found: true, Sample: model.TelemetrySample{Timestamp: at(t, clock), OdometerKM: km}}
}

func TestDerivedMileage(t *testing.T) {
	cases := []struct {
		name string
		high Crossing
		low  Crossing
		want string
	}{
		{"reference", crossingAt(t, 80, "09:00", 25), crossingAt(t, 20, "18:00", 70), "0.75"},
		{"missing high", Crossing{Threshold: 80}, crossingAt(t, 20, "18:00", 70), NA},
		{"missing low", crossingAt(t, 80, "09:00", 25), Crossing{Threshold: 20}, NA},
		{"same sample", crossingAt(t, 80, "09:00", 25), crossingAt(t, 20, "09:00", 25), NA},
		{"reversed", crossingAt(t, 80, "18:00", 25), crossingAt(t, 20, "09:00", 70), NA},
		{"odometer reset", crossingAt(t, 80, "09:00", 250), crossingAt(t, 20, "18:00", 70), NA},
		{"no distance", crossingAt(t, 80, "09:00", 25), crossingAt(t, 20, "18:00", 25), "0"},
		{"rounded", crossingAt(t, 80, "09:00", 0), crossingAt(t, 20, "18:00", 100), "1.67"},
	}
	for _, c := range cases {
		if got := DerivedMileage(c.high, c.low).String(); got != c.want {
			t.Errorf("%s: got %s want %s", c.name, got, c.want)
		}
	}
}
