package milestone

import "github.com/nurapulse/pulse/core/model"

// Crossing is the first sample of a day at or below a threshold.
type Crossing struct {
	Threshold int
	Sample    model.TelemetrySample
	Found     bool
}

// Clock returns the crossing time or N/A.
func (c Crossing) Clock() OptClock {
	if !c.Found {
		return OptClock{}
	}
	return ClockOf(c.Sample.Timestamp)
}

// KM returns the odometer reading at the crossing or N/A.
func (c Crossing) KM() OptFloat {
	if !c.Found {
		return OptFloat{}
	}
	return Float(c.Sample.OdometerKM)
}

// FirstAtOrBelow scans the series forward and returns the first sample whose
// battery percentage is <= threshold.
func FirstAtOrBelow(ds model.DaySeries, threshold int) Crossing {
	for _, s := range ds.Samples {
		if s.BatteryPercent <= threshold {
			return Crossing{Threshold: threshold, Sample: s, Found: true}
		}
	}
	return Crossing{Threshold: threshold}
}

// Crossings runs an independent scan per threshold over the same series.
func Crossings(ds model.DaySeries, thresholds []int) map[int]Crossing {
	out := make(map[int]Crossing, len(thresholds))
	for _, th := range thresholds {
		out[th] = FirstAtOrBelow(ds, th)
	}
	return out
}
