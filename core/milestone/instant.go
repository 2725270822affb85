package milestone

import (
	"time"

	"github.com/nurapulse/pulse/core/model"
)

// NearestSample returns the observed sample closest to instant within tolerance.
// On equal distance the earlier sample wins.
func NearestSample(ds model.DaySeries, instant time.Time, tolerance time.Duration) (model.TelemetrySample, bool) {
	var (
		best  model.TelemetrySample
		found bool
		bestD time.Duration
	)
	for _, s := range ds.Samples {
		d := s.Timestamp.Sub(instant)
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			if s.Timestamp.After(instant) {
				break
			}
			continue
		}
		if !found || d < bestD {
			best, bestD, found = s, d, true
		}
	}
	return best, found
}

// ChargeAt reports the battery percentage observed nearest to clock on the series
// date. Values are never interpolated.
func ChargeAt(ds model.DaySeries, clock Clock, tolerance time.Duration) OptPercent {
	s, ok := NearestSample(ds, clock.On(ds.Date), tolerance)
	if !ok {
		return OptPercent{}
	}
	return Percent(s.BatteryPercent)
}
