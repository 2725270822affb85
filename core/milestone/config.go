package milestone

import (
	"fmt"
	"time"
)

// Fixed milestone thresholds, scanned independently.
var Thresholds = []int{80, 50, 30, 20}

const (
	mileageHigh = 80
	mileageLow  = 20
)

// Config tunes the engine. Clock values use the "15:04" layout in the vehicle's local time.
type Config struct {
	TimeZone         string `json:"time_zone"`
	ToleranceMinutes int    `json:"tolerance_minutes"`
	MorningClock     string `json:"morning_clock"`
	ShiftStartClock  string `json:"shift_start_clock"`
	MiddayClock      string `json:"midday_clock"`
	AuditStartClock  string `json:"audit_start_clock"`
	AuditEndClock    string `json:"audit_end_clock"`
	LowChargePercent int    `json:"low_charge_percent"`
	MaxRangeDays     int    `json:"max_range_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TimeZone == "" {
		c.TimeZone = "Local"
	}
	if c.ToleranceMinutes <= 0 {
		c.ToleranceMinutes = 30
	}
	if c.MorningClock == "" {
		c.MorningClock = "06:00"
	}
	if c.ShiftStartClock == "" {
		c.ShiftStartClock = "07:00"
	}
	if c.MiddayClock == "" {
		c.MiddayClock = "12:00"
	}
	if c.AuditStartClock == "" {
		c.AuditStartClock = "07:00"
	}
	if c.AuditEndClock == "" {
		c.AuditEndClock = "19:00"
	}
	if c.LowChargePercent <= 0 {
		c.LowChargePercent = 20
	}
	if c.MaxRangeDays <= 0 {
		c.MaxRangeDays = 62
	}
}

// Validate checks ranges and clock formats.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("time_zone: %w", err)
	}
	if c.ToleranceMinutes < 0 || c.ToleranceMinutes > 12*60 {
		return fmt.Errorf("tolerance_minutes %d out of range", c.ToleranceMinutes)
	}
	if c.LowChargePercent < 0 || c.LowChargePercent > 100 {
		return fmt.Errorf("low_charge_percent %d out of range", c.LowChargePercent)
	}
	for name, v := range map[string]string{
		"morning_clock":     c.MorningClock,
		"shift_start_clock": c.ShiftStartClock,
		"midday_clock":      c.MiddayClock,
		"audit_start_clock": c.AuditStartClock,
		"audit_end_clock":   c.AuditEndClock,
	} {
		if _, err := ParseClock(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	start, _ := ParseClock(c.AuditStartClock)
	end, _ := ParseClock(c.AuditEndClock)
	if end.minutes() < start.minutes() {
		return fmt.Errorf("audit window %s-%s is inverted", c.AuditStartClock, c.AuditEndClock)
	}
	return nil
}

// Clock is a wall clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "15:04".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On returns the instant of the clock on day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
