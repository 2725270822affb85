package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordReport forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordReport(ev ReportEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordReport(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordIngest forwards ingestion events to the sinks supporting them.
func (m *MultiSink) RecordIngest(ev IngestEvent) error {
	for _, s := range m.Sinks {
		if err := RecordIngest(s, ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
