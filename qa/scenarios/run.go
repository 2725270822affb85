package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/report"
	"github.com/nurapulse/pulse/core/telemetry"
	"github.com/nurapulse/pulse/infra/logger"
	"github.com/nurapulse/pulse/infra/metrics"
)

// RunScenario ingests the scenario samples into a memory store, builds the
// report through the report service and compares rows and metrics.
func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	engine, err := milestone.NewEngine(milestone.Config{TimeZone: sc.TimeZone}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	svc := report.NewService(engine, telemetry.NewMemoryStore(), sink, logger.NopLogger{})
	ctx := context.Background()

	samples := make([]model.TelemetrySample, 0, len(sc.Samples))
	for _, def := range sc.Samples {
		s, err := def.ToModel(engine.Location())
		if err != nil {
			t.Fatalf("%v", err)
		}
		samples = append(samples, s)
	}
	if len(samples) > 0 {
		res, _ := svc.Ingest(ctx, "scenario", samples)
		if res.Rejected != sc.Expected.Rejected {
			t.Errorf("expected %d rejected samples, got %d (%v)", sc.Expected.Rejected, res.Rejected, res.Errors)
		}
	}

	req, err := engine.ParseRequest(sc.From, sc.To, sc.Vehicles)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	rep, err := svc.Build(ctx, coremetrics.KindLowCharge, req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rep.Message != sc.Expected.Message {
		t.Errorf("message: want %q, got %q", sc.Expected.Message, rep.Message)
	}
	if sc.Expected.Milestones != nil {
		compareRows(t, "milestones", milestone.MilestoneColumns, sc.Expected.Milestones, rep.Milestones)
	}
	compareRows(t, "audits", milestone.AuditColumns, sc.Expected.Audits, rep.Audits)
	if sc.Expected.Morning != nil {
		morning := rep.Morning
		if sc.MaxCharge != nil {
			morning = milestone.FilterMorning(morning, *sc.MaxCharge)
		}
		compareRows(t, "morning", milestone.MorningColumns, sc.Expected.Morning, morning)
	}

	if v := counterValue(t, reg, "pulse_low_charge_breaches_total"); int(v) != sc.Expected.Breaches {
		t.Errorf("expected %d breaches recorded, got %v", sc.Expected.Breaches, v)
	}
	if v := counterValue(t, reg, "pulse_malformed_days_total"); int(v) != sc.Expected.Malformed {
		t.Errorf("expected %d malformed days recorded, got %v", sc.Expected.Malformed, v)
	}
}

type row interface{ Values() []string }

func compareRows[T row](t *testing.T, name string, columns []string, want []Row, got []T) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: expected %d rows, got %d", name, len(want), len(got))
		return
	}
	for i, w := range want {
		values := got[i].Values()
		for j, col := range columns {
			exp, ok := w[col]
			if ok && exp != values[j] {
				t.Errorf("%s[%d].%s: want %q, got %q", name, i, col, exp, values[j])
			}
		}
	}
}

// counterValue sums every series of the named counter; an absent family counts as zero.
func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name || mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

