package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/telemetry"
)

type recordSink struct {
	reports []coremetrics.ReportEvent
	ingests []coremetrics.IngestEvent
}

func (r *recordSink) RecordReport(ev coremetrics.ReportEvent) error {
	r.reports = append(r.reports, ev)
	return nil
}

func (r *recordSink) RecordIngest(ev coremetrics.IngestEvent) error {
	r.ingests = append(r.ingests, ev)
	return nil
}

type brokenStore struct{ telemetry.Store }

func (brokenStore) Query(context.Context, telemetry.Query) ([]model.TelemetrySample, error) {
	return nil, errors.New("connection refused")
}

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func smp(v string, h, m, pct int, km float64) model.TelemetrySample {
	return model.TelemetrySample{VehicleID: v, Timestamp: day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), BatteryPercent: pct, OdometerKM: km}
}

func newService(t *testing.T, st telemetry.Store) (*Service, *recordSink) {
	t.Helper()
	eng, err := milestone.NewEngine(milestone.Config{TimeZone: "UTC"}, nil)
	require.NoError(t, err)
	sink := &recordSink{}
	return NewService(eng, st, sink, nil), sink
}

func TestService_Build(t *testing.T) {
	st := telemetry.NewMemoryStore()
	require.NoError(t, st.Append(context.Background(),
		smp("EV-1", 6, 0, 100, 0),
		smp("EV-1", 7, 0, 95, 5),
		smp("EV-1", 9, 0, 80, 20),
		smp("EV-1", 14, 0, 19, 120),
		smp("EV-1", 15, 0, 15, 130),
		smp("EV-2", 7, 0, 90, 0),
	))
	svc, sink := newService(t, st)
	req, err := svc.Engine().ParseRequest("2025-03-14", "2025-03-14", []string{"EV-2, EV-1"})
	require.NoError(t, err)

	rep, err := svc.Build(context.Background(), coremetrics.KindLowCharge, req)
	require.NoError(t, err)
	require.Len(t, rep.Milestones, 2)
	assert.Equal(t, "EV-1", rep.Milestones[0].Vehicle)
	assert.Equal(t, 1.67, rep.Milestones[0].DerivedMileage.Value)
	require.Len(t, rep.Audits, 1)
	assert.Equal(t, 19, rep.Audits[0].BatteryPercentage)
	assert.Equal(t, "120", rep.Audits[0].KMDrivenUptoPoint.String())

	require.Len(t, sink.reports, 1)
	ev := sink.reports[0]
	assert.Equal(t, coremetrics.KindLowCharge, ev.Kind)
	assert.Equal(t, 1, ev.Rows)
	assert.Equal(t, 2, ev.Vehicles)
	assert.Equal(t, 1, ev.Days)
	assert.False(t, ev.Failed)
}

func TestService_BuildNoData(t *testing.T) {
	svc, _ := newService(t, telemetry.NewMemoryStore())
	req, err := svc.Engine().ParseRequest("2025-03-14", "2025-03-15", []string{"EV-9"})
	require.NoError(t, err)
	rep, err := svc.Build(context.Background(), coremetrics.KindMilestones, req)
	require.NoError(t, err)
	assert.Equal(t, milestone.NoDataMessage, rep.Message)
	assert.Empty(t, rep.Milestones)
}

func TestService_BuildErrors(t *testing.T) {
	svc, sink := newService(t, brokenStore{})
	_, err := svc.Build(context.Background(), coremetrics.KindMilestones, milestone.Request{})
	assert.ErrorIs(t, err, milestone.ErrInvalidRequest)
	assert.Empty(t, sink.reports, "invalid requests are rejected before computation")

	req, _ := svc.Engine().ParseRequest("2025-03-14", "2025-03-14", []string{"EV-1"})
	_, err = svc.Build(context.Background(), coremetrics.KindMilestones, req)
	require.Error(t, err)
	require.Len(t, sink.reports, 1)
	assert.True(t, sink.reports[0].Failed)
}

func TestService_DaySeries(t *testing.T) {
	st := telemetry.NewMemoryStore()
	require.NoError(t, st.Append(context.Background(), smp("EV-1", 8, 0, 90, 1), smp("EV-1", 9, 0, 85, 4)))
	svc, _ := newService(t, st)

	ds, err := svc.DaySeries(context.Background(), "EV-1", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	ds, err = svc.DaySeries(context.Background(), "EV-1", "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, "2025-03-15", ds.Key().Date)

	_, err = svc.DaySeries(context.Background(), "", "2025-03-15")
	assert.ErrorIs(t, err, milestone.ErrInvalidRequest)
}

func TestService_Ingest(t *testing.T) {
	st := telemetry.NewMemoryStore()
	svc, sink := newService(t, st)

	res, err := svc.Ingest(context.Background(), "http", []model.TelemetrySample{
		smp("EV-1", 8, 0, 90, 1),
		smp("EV-1", 9, 0, 101, 4),
		{VehicleID: "EV-1", BatteryPercent: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 2, res.Rejected)
	assert.Len(t, res.Errors, 2)

	_, err = svc.Ingest(context.Background(), "http", []model.TelemetrySample{smp("", 8, 0, 90, 1)})
	assert.ErrorIs(t, err, ErrNothingAccepted)

	ids, _ := svc.Vehicles(context.Background())
	assert.Equal(t, []string{"EV-1"}, ids)
	require.Len(t, sink.ingests, 2)
	assert.Equal(t, "http", sink.ingests[0].Source)
}
