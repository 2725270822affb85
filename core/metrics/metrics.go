package metrics

import "time"

// Report kinds.
const (
	KindMilestones    = "milestones"
	KindLowCharge     = "low_charge"
	KindMorningCharge = "morning_charge"
)

// ReportEvent describes one report computation.
type ReportEvent struct {
	Kind      string
	Vehicles  int
	Days      int
	Rows      int
	Breaches  int
	Malformed int
	Duration  time.Duration
	Failed    bool
	Time      time.Time
}

// Sink records report computations for observability purposes.
type Sink interface {
	RecordReport(ev ReportEvent) error
}

// IngestEvent summarises one batch of incoming telemetry.
type IngestEvent struct {
	Source   string
	Accepted int
	Rejected int
	Time     time.Time
}

// IngestRecorder is implemented by sinks able to record ingestion batches.
type IngestRecorder interface {
	RecordIngest(ev IngestEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordReport(ReportEvent) error { return nil }
func (NopSink) RecordIngest(IngestEvent) error { return nil }

// RecordIngest forwards ev when s supports ingestion events.
func RecordIngest(s Sink, ev IngestEvent) error {
	if r, ok := s.(IngestRecorder); ok {
		return r.RecordIngest(ev)
	}
	return nil
}
