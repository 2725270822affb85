package milestone

import (
	"time"

	"github.com/nurapulse/pulse/core/model"
)

// Window is an inclusive time-of-day range.
type Window struct {
	Start Clock
	End   Clock
}

// Contains reports whether t falls inside the window on t's own date.
func (w Window) Contains(t time.Time) bool {
	day := model.Day(t)
	return !t.Before(w.Start.On(day)) && !t.After(w.End.On(day))
}

// Breach is the first low-charge sample of a day.
type Breach struct {
	Sample       model.TelemetrySample
	KMDrivenUpTo OptFloat
}

// FirstBreach returns the first sample inside window whose battery percentage is
// strictly below limit. The driven distance is measured from the first sample of
// the day, not from the window start, and is N/A when the odometer reads below
// that baseline.
func FirstBreach(ds model.DaySeries, w Window, limit int) (Breach, bool) {
	first, ok := ds.First()
	if !ok {
		return Breach{}, false
	}
	for _, s := range ds.Samples {
		if !w.Contains(s.Timestamp) {
			continue
		}
		if s.BatteryPercent < limit {
			b := Breach{Sample: s}
			if km := s.OdometerKM - first.OdometerKM; km >= 0 {
				b.KMDrivenUpTo = Float(round2(km))
			}
			return b, true
		}
	}
	return Breach{}, false
}
