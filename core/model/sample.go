package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar date format used for day keys and report rows.
const DateLayout = "2006-01-02"

// TelemetrySample is one ingestion record for a vehicle.
type TelemetrySample struct {
	VehicleID      string    `json:"vehicle_id"`
	Timestamp      time.Time `json:"timestamp"`
	BatteryPercent int       `json:"battery_percent"`
	OdometerKM     float64   `json:"odometer_km"`
}

// Validate checks the sample on its own, without looking at its neighbours.
func (s TelemetrySample) Validate() error {
	if s.VehicleID == "" {
		return errors.New("vehicle_id is required")
	}
	if s.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if s.BatteryPercent < 0 || s.BatteryPercent > 100 {
		return fmt.Errorf("battery_percent %d out of range", s.BatteryPercent)
	}
	if math.IsNaN(s.OdometerKM) || math.IsInf(s.OdometerKM, 0) || s.OdometerKM < 0 {
		return fmt.Errorf("odometer_km %v invalid", s.OdometerKM)
	}
	return nil
}

// Day returns the calendar date of t at midnight in t's own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayKey identifies one vehicle on one calendar date.
type DayKey struct {
	VehicleID string
	Date      string
}

// DaySeries holds the samples of one vehicle on one calendar date sorted by timestamp.
type DaySeries struct {
	VehicleID string
	Date      time.Time
	Samples   []TelemetrySample
}

// Key returns the grouping key of the series.
func (d DaySeries) Key() DayKey {
	return DayKey{VehicleID: d.VehicleID, Date: d.Date.Format(DateLayout)}
}

// Len returns the number of samples.
func (d DaySeries) Len() int { return len(d.Samples) }

// First returns the earliest sample of the day.
func (d DaySeries) First() (TelemetrySample, bool) {
	if len(d.Samples) == 0 {
		return TelemetrySample{}, false
	}
	return d.Samples[0], true
}

// Validate checks the day-level invariants: every sample valid and belonging to the
// series and strictly increasing timestamps. A decreasing odometer is not an error,
// see OdometerResets.
func (d DaySeries) Validate() error {
	for i, s := range d.Samples {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		if s.VehicleID != d.VehicleID {
			return fmt.Errorf("sample %d: vehicle %s does not belong to series %s", i, s.VehicleID, d.VehicleID)
		}
		if !Day(s.Timestamp).Equal(d.Date) {
			return fmt.Errorf("sample %d: timestamp %s outside %s", i, s.Timestamp.Format(time.DateTime), d.Date.Format(DateLayout))
		}
		if i == 0 {
			continue
		}
		prev := d.Samples[i-1]
		if !s.Timestamp.After(prev.Timestamp) {
			return fmt.Errorf("sample %d: duplicate or unordered timestamp %s", i, s.Timestamp.Format(time.DateTime))
		}
	}
	return nil
}

// OdometerResets counts the samples whose odometer reading is below the previous one.
func (d DaySeries) OdometerResets() int {
	n := 0
	for i := 1; i < len(d.Samples); i++ {
		if d.Samples[i].OdometerKM < d.Samples[i-1].OdometerKM {
			n++
		}
	}
	return n
}

// GroupByDay splits samples into DaySeries keyed by vehicle and calendar date in loc.
// Samples are converted to loc before grouping and each series is sorted ascending.
// The input slice is not modified.
func GroupByDay(samples []TelemetrySample, loc *time.Location) map[DayKey]DaySeries {
	if loc == nil {
		loc = time.Local
	}
	out := make(map[DayKey]DaySeries)
	for _, s := range samples {
		s.Timestamp = s.Timestamp.In(loc)
		day := Day(s.Timestamp)
		key := DayKey{VehicleID: s.VehicleID, Date: day.Format(DateLayout)}
		ds, ok := out[key]
		if !ok {
			ds = DaySeries{VehicleID: s.VehicleID, Date: day}
		}
		ds.Samples = append(ds.Samples, s)
		out[key] = ds
	}
	for k, ds := range out {
		sort.SliceStable(ds.Samples, func(i, j int) bool {
			return ds.Samples[i].Timestamp.Before(ds.Samples[j].Timestamp)
		})
		out[k] = ds
	}
	return out
}

// DaysInRange counts the calendar dates from 'from' to 'to' inclusive without
// materialising them. It returns 0 when to is before from.
func DaysInRange(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if t.Before(f) {
		return 0
	}
	return int((t.Unix()-f.Unix())/86400) + 1
}

// Dates lists every calendar date from 'from' to 'to' inclusive.
func Dates(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	var res []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		res = append(res, d)
	}
	return res
}
