package telemetry

import (
	"context"
	"time"

	"github.com/nurapulse/pulse/core/model"
)

// Query selects samples of the listed vehicles whose timestamp falls in
// [From, To). An empty vehicle list selects every vehicle.
type Query struct {
	VehicleIDs []string
	From       time.Time
	To         time.Time
}

// DayRange returns a query covering the calendar days from..to inclusive.
func DayRange(vehicles []string, from, to time.Time) Query {
	return Query{VehicleIDs: vehicles, From: model.Day(from), To: model.Day(to).AddDate(0, 0, 1)}
}

// Matches reports whether s is selected by q.
func (q Query) Matches(s model.TelemetrySample) bool {
	if !q.From.IsZero() && s.Timestamp.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !s.Timestamp.Before(q.To) {
		return false
	}
	if len(q.VehicleIDs) == 0 {
		return true
	}
	for _, id := range q.VehicleIDs {
		if id == s.VehicleID {
			return true
		}
	}
	return false
}

// Store is the telemetry feed the report engine reads from.
type Store interface {
	Append(ctx context.Context, samples ...model.TelemetrySample) error
	Query(ctx context.Context, q Query) ([]model.TelemetrySample, error)
	Vehicles(ctx context.Context) ([]string, error)
	Close() error
}
