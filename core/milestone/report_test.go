package milestone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurapulse/pulse/core/model"
)

func sample(vehicle string, ts time.Time, pct int, km float64) model.TelemetrySample {
	return model.TelemetrySample{VehicleID: vehicle, Timestamp: ts, BatteryPercent: pct, OdometerKM: km}
}

func TestBuildReport_Grid(t *testing.T) {
	e := newTestEngine(t, Config{})
	d1 := testDay
	d2 := testDay.AddDate(0, 0, 1)
	samples := []model.TelemetrySample{
		sample("KA02", d1.Add(18*time.Hour), 19, 70),
		sample("KA02", d1.Add(6*time.Hour), 100, 10),
		sample("KA02", d1.Add(9*time.Hour), 80, 25),
		sample("KA01", d2.Add(6*time.Hour), 90, 5),
		sample("ZZ99", d2.Add(6*time.Hour), 90, 5),
	}
	req, err := e.ParseRequest("2025-03-14", "2025-03-15", []string{"KA02, KA01", "KA01"})
	require.NoError(t, err)
	rep, err := e.BuildReport(context.Background(), req, samples)
	require.NoError(t, err)
	assert.Empty(t, rep.Message)
	require.Len(t, rep.Milestones, 4)
	assert.Equal(t, []string{"2025-03-14", "KA01"}, rep.Milestones[0].Values()[:2])
	assert.Equal(t, NA, rep.Milestones[0].ChargeAt6AM.String())
	assert.Equal(t, []string{"2025-03-14", "KA02"}, rep.Milestones[1].Values()[:2])
	assert.Equal(t, "0.75", rep.Milestones[1].DerivedMileage.String())
	assert.Equal(t, "90", rep.Milestones[2].ChargeAt6AM.String())
	require.Len(t, rep.Audits, 1)
	assert.Equal(t, "KA02", rep.Audits[0].VehicleName)
	require.Len(t, rep.Morning, 4)
	assert.Len(t, FilterMorning(rep.Morning, 95), 1)
}

func TestBuildReport_EmptyFeed(t *testing.T) {
	e := newTestEngine(t, Config{})
	req, err := e.ParseRequest("2025-03-14", "2025-03-14", []string{"KA01"})
	require.NoError(t, err)
	rep, err := e.BuildReport(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, rep.Message)
	assert.NotNil(t, rep.Milestones)
	assert.Empty(t, rep.Milestones)
	assert.Empty(t, rep.Audits)
}

func TestBuildReport_MalformedDayCounted(t *testing.T) {
	e := newTestEngine(t, Config{})
	ts := testDay.Add(8 * time.Hour)
	samples := []model.TelemetrySample{sample("KA01", ts, 50, 10), sample("KA01", ts, 10, 11)}
	req, _ := e.ParseRequest("2025-03-14", "2025-03-14", []string{"KA01"})
	rep, err := e.BuildReport(context.Background(), req, samples)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Malformed)
	require.Len(t, rep.Milestones, 1)
	assert.False(t, rep.Milestones[0].TimeAt20.Valid)
	assert.Empty(t, rep.Audits)
}

func TestParseRequest_Invalid(t *testing.T) {
	e := newTestEngine(t, Config{MaxRangeDays: 7})
	cases := []struct {
		from, to string
		vehicles []string
	}{
		{"", "2025-03-14", []string{"KA01"}},
		{"2025-03-14", "", []string{"KA01"}},
		{"2025-03-14", "2025-03-14", nil},
		{"2025-03-14", "2025-03-14", []string{" , "}},
		{"14/03/2025", "2025-03-14", []string{"KA01"}},
		{"2025-03-15", "2025-03-14", []string{"KA01"}},
		{"2025-03-01", "2025-03-14", []string{"KA01"}},
	}
	for _, c := range cases {
		_, err := e.ParseRequest(c.from, c.to, c.vehicles)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%v: expected ErrInvalidRequest, got %v", c, err)
		}
	}
}

func TestBuildReport_ContextCancelled(t *testing.T) {
	e := newTestEngine(t, Config{})
	req, _ := e.ParseRequest("2025-03-14", "2025-03-14", []string{"KA01"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := e.BuildReport(ctx, req, []model.TelemetrySample{sample("KA01", testDay.Add(time.Hour), 50, 1)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rep)
}

func TestBuildReport_LocalDayBoundary(t *testing.T) {
	e := newTestEngine(t, Config{TimeZone: "Asia/Kolkata"})
	loc := e.Location()
	// 20:00 UTC on the 13th is 01:30 on the 14th in IST
	samples := []model.TelemetrySample{
		sample("KA01", time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC), 80, 1),
		sample("KA01", time.Date(2025, 3, 14, 6, 0, 0, 0, loc), 96, 2),
	}
	req, err := e.ParseRequest("2025-03-14", "2025-03-14", []string{"KA01"})
	require.NoError(t, err)
	rep, err := e.BuildReport(context.Background(), req, samples)
	require.NoError(t, err)
	require.Len(t, rep.Milestones, 1)
	assert.Equal(t, "96", rep.Milestones[0].ChargeAt6AM.String())
	assert.Equal(t, "01:30:00", rep.Milestones[0].TimeAt80.String())
}

func TestParseRequest_HugeRangeRejected(t *testing.T) {
	e := newTestEngine(t, Config{})
	allocs := testing.AllocsPerRun(5, func() {
		_, err := e.ParseRequest("0002-01-01", "9999-12-31", []string{"KA01"})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest, got %v", err)
		}
	})
	if allocs > 50 {
		t.Fatalf("range check allocated %v times, dates must not be enumerated", allocs)
	}
}

func TestParseRequest_YearOne(t *testing.T) {
	e := newTestEngine(t, Config{})
	req, err := e.ParseRequest("0001-01-01", "0001-01-02", []string{"KA01"})
	require.NoError(t, err)
	assert.Equal(t, 1, req.From.Year())

	_, err = e.ParseRequest(" ", "0001-01-02", []string{"KA01"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "from and to are required")
}

func TestBuildReport_OdometerResetIsNotMalformed(t *testing.T) {
	e := newTestEngine(t, Config{})
	samples := []model.TelemetrySample{
		sample("KA01", testDay.Add(6*time.Hour), 90, 100),
		sample("KA01", testDay.Add(8*time.Hour), 70, 90),
	}
	req, _ := e.ParseRequest("2025-03-14", "2025-03-14", []string{"KA01"})
	rep, err := e.BuildReport(context.Background(), req, samples)
	require.NoError(t, err)
	assert.Zero(t, rep.Malformed)
	require.Len(t, rep.Milestones, 1)
	assert.Equal(t, "90", rep.Milestones[0].ChargeAt6AM.String())
	assert.Equal(t, "08:00:00", rep.Milestones[0].TimeAt80.String())
}
