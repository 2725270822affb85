package milestone

import (
	"strconv"

	"github.com/nurapulse/pulse/core/model"
)

// MilestoneRecord is the per-vehicle, per-day milestone view.
type MilestoneRecord struct {
	Date           string     `json:"date"`
	Vehicle        string     `json:"vehicle"`
	ChargeAt6AM    OptPercent `json:"charge_at_6am"`
	TimeAt80       OptClock   `json:"time_at_80"`
	KMAt80         OptFloat   `json:"km_at_80"`
	TimeAt50       OptClock   `json:"time_at_50"`
	KMAt50         OptFloat   `json:"km_at_50"`
	TimeAt30       OptClock   `json:"time_at_30"`
	TimeAt20       OptClock   `json:"time_at_20"`
	KMAt20         OptFloat   `json:"km_at_20"`
	DerivedMileage OptFloat   `json:"derived_mileage"`
	MiddayCharge   OptPercent `json:"midday_charge"`

	// ChargeAt7AM feeds the low-charge audit and is not part of the milestone export.
	ChargeAt7AM OptPercent `json:"-"`
}

// MilestoneColumns is the CSV header of milestone exports.
var MilestoneColumns = []string{
	"date", "vehicle", "charge_at_6am", "time_at_80", "km_at_80", "time_at_50", "km_at_50",
	"time_at_30", "time_at_20", "km_at_20", "derived_mileage", "midday_charge",
}

// Values returns the row in MilestoneColumns order.
func (r MilestoneRecord) Values() []string {
	return []string{
		r.Date, r.Vehicle, r.ChargeAt6AM.String(),
		r.TimeAt80.String(), r.KMAt80.String(),
		r.TimeAt50.String(), r.KMAt50.String(),
		r.TimeAt30.String(),
		r.TimeAt20.String(), r.KMAt20.String(),
		r.DerivedMileage.String(), r.MiddayCharge.String(),
	}
}

// AuditRecord is one low-charge breach.
type AuditRecord struct {
	Date              string     `json:"date"`
	VehicleName       string     `json:"vehicle_name"`
	ChargeAt7AM       OptPercent `json:"charge_at_7am"`
	Timestamp         string     `json:"timestamp"`
	BatteryPercentage int        `json:"battery_percentage"`
	KMDrivenUptoPoint OptFloat   `json:"km_driven_upto_point"`
}

// AuditColumns is the CSV header of low-charge audit exports.
var AuditColumns = []string{
	"date", "vehicle_name", "charge_at_7am", "timestamp", "battery_percentage", "km_driven_upto_point",
}

// Values returns the row in AuditColumns order.
func (r AuditRecord) Values() []string {
	return []string{
		r.Date, r.VehicleName, r.ChargeAt7AM.String(), r.Timestamp,
		strconv.Itoa(r.BatteryPercentage),
		r.KMDrivenUptoPoint.String(),
	}
}

// MorningChargeRecord reports the 6 AM charge of a vehicle.
type MorningChargeRecord struct {
	Date        string     `json:"date"`
	VehicleName string     `json:"vehicle_name"`
	ChargeAt6AM OptPercent `json:"charge_at_6am"`
}

// MorningColumns is the CSV header of morning-charge audit exports.
var MorningColumns = []string{"date", "vehicle_name", "charge_at_6am"}

// Values returns the row in MorningColumns order.
func (r MorningChargeRecord) Values() []string {
	return []string{r.Date, r.VehicleName, r.ChargeAt6AM.String()}
}

func emptyMilestone(key model.DayKey) MilestoneRecord {
	return MilestoneRecord{Date: key.Date, Vehicle: key.VehicleID}
}
