package milestone

import (
	"fmt"
	"time"

	"github.com/nurapulse/pulse/core/logger"
	"github.com/nurapulse/pulse/core/model"
)

// Engine derives battery milestones and audits from day series. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	loc        *time.Location
	tolerance  time.Duration
	morning    Clock
	shiftStart Clock
	midday     Clock
	window     Window
	lowCharge  int
	maxDays    int
	log        logger.Logger
}

// NewEngine builds an engine from cfg. Defaults are applied to a copy of cfg.
func NewEngine(cfg Config, log logger.Logger) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	loc, _ := time.LoadLocation(cfg.TimeZone)
	morning, _ := ParseClock(cfg.MorningClock)
	shift, _ := ParseClock(cfg.ShiftStartClock)
	midday, _ := ParseClock(cfg.MiddayClock)
	start, _ := ParseClock(cfg.AuditStartClock)
	end, _ := ParseClock(cfg.AuditEndClock)
	return &Engine{
		loc:        loc,
		tolerance:  time.Duration(cfg.ToleranceMinutes) * time.Minute,
		morning:    morning,
		shiftStart: shift,
		midday:     midday,
		window:     Window{Start: start, End: end},
		lowCharge:  cfg.LowChargePercent,
		maxDays:    cfg.MaxRangeDays,
		log:        log,
	}, nil
}

// Location is the vehicle-local time zone used to cut calendar days.
func (e *Engine) Location() *time.Location { return e.loc }

// usable reports whether the series can be analysed. Malformed series are logged
// and treated as having no data.
func (e *Engine) usable(ds model.DaySeries) bool {
	if ds.Len() == 0 {
		return false
	}
	if err := ds.Validate(); err != nil {
		e.log.Warnf("skip %s %s: %v", ds.VehicleID, ds.Date.Format(model.DateLayout), err)
		return false
	}
	return true
}

// Milestones computes the milestone record of one day series.
func (e *Engine) Milestones(ds model.DaySeries) MilestoneRecord {
	rec := emptyMilestone(ds.Key())
	if !e.usable(ds) {
		return rec
	}
	if n := ds.OdometerResets(); n > 0 {
		e.log.Warnf("%s %s: odometer went backwards %d time(s), mileage may be N/A", ds.VehicleID, ds.Date.Format(model.DateLayout), n)
	}
	c := Crossings(ds, Thresholds)
	rec.ChargeAt6AM = ChargeAt(ds, e.morning, e.tolerance)
	rec.ChargeAt7AM = ChargeAt(ds, e.shiftStart, e.tolerance)
	rec.MiddayCharge = ChargeAt(ds, e.midday, e.tolerance)
	rec.TimeAt80, rec.KMAt80 = c[80].Clock(), c[80].KM()
	rec.TimeAt50, rec.KMAt50 = c[50].Clock(), c[50].KM()
	rec.TimeAt30 = c[30].Clock()
	rec.TimeAt20, rec.KMAt20 = c[20].Clock(), c[20].KM()
	rec.DerivedMileage = DerivedMileage(c[mileageHigh], c[mileageLow])
	return rec
}

// LowChargeAudit returns the first breach of the low-charge limit inside the
// operational window, if any.
func (e *Engine) LowChargeAudit(ds model.DaySeries) (AuditRecord, bool) {
	if !e.usable(ds) {
		return AuditRecord{}, false
	}
	b, ok := FirstBreach(ds, e.window, e.lowCharge)
	if !ok {
		return AuditRecord{}, false
	}
	return AuditRecord{
		Date:              ds.Date.Format(model.DateLayout),
		VehicleName:       ds.VehicleID,
		ChargeAt7AM:       ChargeAt(ds, e.shiftStart, e.tolerance),
		Timestamp:         b.Sample.Timestamp.Format(time.DateTime),
		BatteryPercentage: b.Sample.BatteryPercent,
		KMDrivenUptoPoint: b.KMDrivenUpTo,
	}, true
}

// MorningCharge reports the charge observed around the morning clock.
func (e *Engine) MorningCharge(ds model.DaySeries) MorningChargeRecord {
	rec := MorningChargeRecord{Date: ds.Date.Format(model.DateLayout), VehicleName: ds.VehicleID}
	if e.usable(ds) {
		rec.ChargeAt6AM = ChargeAt(ds, e.morning, e.tolerance)
	}
	return rec
}
