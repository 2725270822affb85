// Package report runs battery reports against the telemetry store and
// records their outcome.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nurapulse/pulse/core/logger"
	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/telemetry"
)

// Service loads telemetry for a request and hands it to the engine.
type Service struct {
	engine *milestone.Engine
	store  telemetry.Store
	sink   coremetrics.Sink
	log    logger.Logger
}

// NewService wires the engine to a store. Nil sink and logger are replaced by no-ops.
func NewService(engine *milestone.Engine, store telemetry.Store, sink coremetrics.Sink, log logger.Logger) *Service {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{engine: engine, store: store, sink: sink, log: log}
}

// Engine exposes the underlying engine, mainly to parse requests.
func (s *Service) Engine() *milestone.Engine { return s.engine }

// Build computes the report of the given kind. kind only labels metrics; every
// view is derived from the same batch.
func (s *Service) Build(ctx context.Context, kind string, req milestone.Request) (*milestone.Report, error) {
	if err := s.engine.ValidateRequest(req); err != nil {
		return nil, err
	}
	start := time.Now()
	ev := coremetrics.ReportEvent{Kind: kind, Time: start}
	rep, err := s.build(ctx, req)
	ev.Duration = time.Since(start)
	if err != nil {
		ev.Failed = true
		s.record(ev)
		return nil, err
	}
	ev.Vehicles = len(req.Vehicles())
	ev.Days = model.DaysInRange(req.From, req.To)
	ev.Breaches = len(rep.Audits)
	ev.Malformed = rep.Malformed
	switch kind {
	case coremetrics.KindLowCharge:
		ev.Rows = len(rep.Audits)
	case coremetrics.KindMorningCharge:
		ev.Rows = len(rep.Morning)
	default:
		ev.Rows = len(rep.Milestones)
	}
	s.record(ev)
	s.log.Debugw("report computed", map[string]any{
		"kind":      kind,
		"vehicles":  ev.Vehicles,
		"days":      ev.Days,
		"breaches":  ev.Breaches,
		"malformed": ev.Malformed,
		"duration":  ev.Duration.String(),
	})
	return rep, nil
}

func (s *Service) build(ctx context.Context, req milestone.Request) (*milestone.Report, error) {
	loc := s.engine.Location()
	samples, err := s.store.Query(ctx, telemetry.DayRange(req.Vehicles(), req.From.In(loc), req.To.In(loc)))
	if err != nil {
		return nil, fmt.Errorf("query telemetry: %w", err)
	}
	return s.engine.BuildReport(ctx, req, samples)
}

// DaySeries returns the samples of one vehicle on one local calendar date.
func (s *Service) DaySeries(ctx context.Context, vehicle, date string) (model.DaySeries, error) {
	req, err := s.engine.ParseRequest(date, date, []string{vehicle})
	if err != nil {
		return model.DaySeries{}, err
	}
	loc := s.engine.Location()
	samples, err := s.store.Query(ctx, telemetry.DayRange(req.Vehicles(), req.From, req.To))
	if err != nil {
		return model.DaySeries{}, fmt.Errorf("query telemetry: %w", err)
	}
	key := model.DayKey{VehicleID: req.Vehicles()[0], Date: req.From.Format(model.DateLayout)}
	if ds, ok := model.GroupByDay(samples, loc)[key]; ok {
		return ds, nil
	}
	return model.DaySeries{VehicleID: key.VehicleID, Date: req.From}, nil
}

// Vehicles lists the vehicle ids known to the store.
func (s *Service) Vehicles(ctx context.Context) ([]string, error) {
	return s.store.Vehicles(ctx)
}

// IngestResult summarises an Ingest call.
type IngestResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// ErrNothingAccepted is returned when every sample of a batch failed validation.
var ErrNothingAccepted = errors.New("no valid samples")

// Ingest validates samples and appends the valid ones to the store.
// Invalid samples are reported by index and never stored.
func (s *Service) Ingest(ctx context.Context, source string, samples []model.TelemetrySample) (IngestResult, error) {
	var res IngestResult
	valid := make([]model.TelemetrySample, 0, len(samples))
	for i, smp := range samples {
		if err := smp.Validate(); err != nil {
			res.Rejected++
			res.Errors = append(res.Errors, fmt.Sprintf("sample %d: %v", i, err))
			continue
		}
		valid = append(valid, smp)
	}
	if len(valid) == 0 {
		s.recordIngest(source, res)
		return res, ErrNothingAccepted
	}
	if err := s.store.Append(ctx, valid...); err != nil {
		res.Rejected = len(samples)
		s.recordIngest(source, res)
		return res, fmt.Errorf("append telemetry: %w", err)
	}
	res.Accepted = len(valid)
	s.recordIngest(source, res)
	if res.Rejected > 0 {
		s.log.Warnf("%s ingest rejected %d of %d samples", source, res.Rejected, len(samples))
	}
	return res, nil
}

func (s *Service) record(ev coremetrics.ReportEvent) {
	if err := s.sink.RecordReport(ev); err != nil {
		s.log.Errorf("record report metrics: %v", err)
	}
}

func (s *Service) recordIngest(source string, res IngestResult) {
	if err := coremetrics.RecordIngest(s.sink, coremetrics.IngestEvent{
		Source:   source,
		Accepted: res.Accepted,
		Rejected: res.Rejected,
		Time:     time.Now(),
	}); err != nil {
		s.log.Errorf("record ingest metrics: %v", err)
	}
}
