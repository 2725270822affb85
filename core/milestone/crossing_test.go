package milestone

import (
	"math/rand"
	"testing"
	"time"

	"github.com/nurapulse/pulse/core/model"
)

func TestCrossings_ReferenceDay(t *testing.T) {
	ds := series(t,
		pt{"06:00", 100, 10},
		pt{"09:00", 80, 25},
		pt{"13:00", 50, 40},
		pt{"18:00", 19, 70},
	)
	c := Crossings(ds, Thresholds)
	checks := []struct {
		th    int
		clock string
		km    float64
	}{
		{80, "09:00:00", 25},
		{50, "13:00:00", 40},
		{30, "18:00:00", 70},
		{20, "18:00:00", 70},
	}
	for _, chk := range checks {
		got := c[chk.th]
		if !got.Found {
			t.Fatalf("threshold %d not found", chk.th)
		}
		if got.Clock().String() != chk.clock || got.Sample.OdometerKM != chk.km {
			t.Fatalf("threshold %d: got %s/%v", chk.th, got.Clock(), got.Sample.OdometerKM)
		}
	}
	if c[20].Sample.BatteryPercent != 19 {
		t.Fatalf("expected 19%% at 20 crossing, got %d", c[20].Sample.BatteryPercent)
	}
}

func TestCrossings_EmptySeries(t *testing.T) {
	c := Crossings(model.DaySeries{}, Thresholds)
	for _, th := range Thresholds {
		if c[th].Found {
			t.Fatalf("threshold %d should be absent", th)
		}
		if c[th].Clock().String() != NA || c[th].KM().String() != NA {
			t.Fatalf("threshold %d should render N/A", th)
		}
	}
}

func TestCrossings_StartsBelowThreshold(t *testing.T) {
	ds := series(t, pt{"05:00", 15, 3}, pt{"08:00", 10, 9})
	c := Crossings(ds, Thresholds)
	for _, th := range Thresholds {
		if !c[th].Found || c[th].Sample.Timestamp != at(t, "05:00") {
			t.Fatalf("threshold %d should cross at first sample, got %+v", th, c[th])
		}
	}
}

func TestCrossings_TieKeepsFirstSample(t *testing.T) {
	ds := series(t, pt{"08:00", 90, 1}, pt{"09:00", 50, 2}, pt{"10:00", 50, 3})
	c := FirstAtOrBelow(ds, 50)
	if c.Sample.OdometerKM != 2 {
		t.Fatalf("expected first tied sample, got %+v", c.Sample)
	}
}

func TestCrossings_BoundaryIsInclusive(t *testing.T) {
	ds := series(t, pt{"08:00", 81, 1}, pt{"09:00", 80, 2})
	if c := FirstAtOrBelow(ds, 80); !c.Found || c.Sample.OdometerKM != 2 {
		t.Fatalf("80%% sample must satisfy the 80 threshold, got %+v", c)
	}
}

func TestCrossings_ChargeRecoveryDoesNotHide(t *testing.T) {
	// charging mid-day must not reset crossings already found
	ds := series(t, pt{"07:00", 60, 1}, pt{"08:00", 45, 5}, pt{"09:00", 95, 5}, pt{"10:00", 40, 12})
	c := FirstAtOrBelow(ds, 50)
	if c.Sample.OdometerKM != 5 || c.Sample.BatteryPercent != 45 {
		t.Fatalf("expected first dip, got %+v", c.Sample)
	}
}

func TestCrossings_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		ds := model.DaySeries{VehicleID: "KA01", Date: testDay}
		ts := testDay
		km := 0.0
		n := rng.Intn(30)
		for i := 0; i < n; i++ {
			ts = ts.Add(time.Duration(1+rng.Intn(90)) * time.Minute)
			km += rng.Float64() * 5
			ds.Samples = append(ds.Samples, model.TelemetrySample{VehicleID: "KA01", Timestamp: ts, BatteryPercent: rng.Intn(101), OdometerKM: km})
		}
		for th, c := range Crossings(ds, Thresholds) {
			if !c.Found {
				for _, s := range ds.Samples {
					if s.BatteryPercent <= th {
						t.Fatalf("iter %d: threshold %d missed sample %+v", iter, th, s)
					}
				}
				continue
			}
			if c.Sample.BatteryPercent > th {
				t.Fatalf("iter %d: crossing above threshold", iter)
			}
			for _, s := range ds.Samples {
				if !s.Timestamp.Before(c.Sample.Timestamp) {
					break
				}
				if s.BatteryPercent <= th {
					t.Fatalf("iter %d: earlier sample %+v also satisfies %d", iter, s, th)
				}
			}
		}
	}
}
