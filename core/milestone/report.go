package milestone

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nurapulse/pulse/core/model"
)

// ErrInvalidRequest is returned before any computation when a report request is
// missing its date range or vehicle list.
var ErrInvalidRequest = errors.New("invalid request")

// NoDataMessage explains an empty telemetry feed.
const NoDataMessage = "no telemetry found for the requested vehicles and date range"

// Request selects the vehicles and the inclusive calendar date range of a report.
type Request struct {
	From       time.Time
	To         time.Time
	VehicleIDs []string
}

// Vehicles returns the trimmed, deduplicated and sorted vehicle ids.
func (r Request) Vehicles() []string { return normalizeIDs(r.VehicleIDs) }

// Report groups every view derived from one telemetry batch.
type Report struct {
	Milestones []MilestoneRecord
	Audits     []AuditRecord
	Morning    []MorningChargeRecord
	Message    string
	// Malformed counts vehicle days rejected by validation.
	Malformed int
}

// ParseRequest builds a request from raw query values. Dates use the
// 2006-01-02 layout and are interpreted in the engine's location.
func (e *Engine) ParseRequest(from, to string, vehicles []string) (Request, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return Request{}, fmt.Errorf("%w: from and to are required", ErrInvalidRequest)
	}
	f, err := time.ParseInLocation(model.DateLayout, from, e.loc)
	if err != nil {
		return Request{}, fmt.Errorf("%w: from: %v", ErrInvalidRequest, err)
	}
	t, err := time.ParseInLocation(model.DateLayout, to, e.loc)
	if err != nil {
		return Request{}, fmt.Errorf("%w: to: %v", ErrInvalidRequest, err)
	}
	req := Request{From: f, To: t, VehicleIDs: normalizeIDs(vehicles)}
	return req, e.ValidateRequest(req)
}

// ValidateRequest rejects requests that cannot be computed. The range length is
// counted without enumerating its dates.
func (e *Engine) ValidateRequest(req Request) error {
	if len(normalizeIDs(req.VehicleIDs)) == 0 {
		return fmt.Errorf("%w: at least one vehicle is required", ErrInvalidRequest)
	}
	if req.To.Before(req.From) {
		return fmt.Errorf("%w: from is after to", ErrInvalidRequest)
	}
	if days := model.DaysInRange(req.From, req.To); days > e.maxDays {
		return fmt.Errorf("%w: range of %d days exceeds %d", ErrInvalidRequest, days, e.maxDays)
	}
	return nil
}

// BuildReport groups samples into day series and derives every report view.
// One milestone and one morning row is produced per requested vehicle and date;
// audit rows only exist for breaches. Samples outside the request are ignored.
func (e *Engine) BuildReport(ctx context.Context, req Request, samples []model.TelemetrySample) (*Report, error) {
	if err := e.ValidateRequest(req); err != nil {
		return nil, err
	}
	vehicles := normalizeIDs(req.VehicleIDs)
	dates := model.Dates(req.From.In(e.loc), req.To.In(e.loc))
	groups := model.GroupByDay(samples, e.loc)

	wanted := make(map[model.DayKey]struct{}, len(vehicles)*len(dates))
	for _, d := range dates {
		for _, v := range vehicles {
			wanted[model.DayKey{VehicleID: v, Date: d.Format(model.DateLayout)}] = struct{}{}
		}
	}
	matched := 0
	for k := range groups {
		if _, ok := wanted[k]; ok {
			matched++
		}
	}
	rep := &Report{
		Milestones: []MilestoneRecord{},
		Audits:     []AuditRecord{},
		Morning:    []MorningChargeRecord{},
	}
	if matched == 0 {
		rep.Message = NoDataMessage
		return rep, nil
	}

	for _, d := range dates {
		for _, v := range vehicles {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			key := model.DayKey{VehicleID: v, Date: d.Format(model.DateLayout)}
			ds, ok := groups[key]
			if !ok {
				ds = model.DaySeries{VehicleID: v, Date: d}
			} else if ds.Validate() != nil {
				rep.Malformed++
			}
			rep.Milestones = append(rep.Milestones, e.Milestones(ds))
			rep.Morning = append(rep.Morning, e.MorningCharge(ds))
			if a, ok := e.LowChargeAudit(ds); ok {
				rep.Audits = append(rep.Audits, a)
			}
		}
	}
	return rep, nil
}

// FilterMorning keeps rows with a known morning charge strictly below limit.
func FilterMorning(rows []MorningChargeRecord, limit int) []MorningChargeRecord {
	out := make([]MorningChargeRecord, 0, len(rows))
	for _, r := range rows {
		if r.ChargeAt6AM.Valid && r.ChargeAt6AM.Value < limit {
			out = append(out, r)
		}
	}
	return out
}

// normalizeIDs trims, drops blanks and duplicates, and sorts vehicle ids.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	sort.Strings(out)
	return out
}
