package telemetry

import (
	"context"
	"time"

	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/internal/eventbus"
)

// Appended describes one successful Append.
type Appended struct {
	Vehicles []string
	Earliest time.Time
	Latest   time.Time
	Samples  int
}

// NotifyingStore publishes an Appended event after every successful write.
type NotifyingStore struct {
	Store
	bus *eventbus.Bus[Appended]
}

// WithNotifications wraps st.
func WithNotifications(st Store) *NotifyingStore {
	return &NotifyingStore{Store: st, bus: eventbus.New[Appended](0)}
}

// Append writes through and then notifies subscribers.
func (s *NotifyingStore) Append(ctx context.Context, samples ...model.TelemetrySample) error {
	if err := s.Store.Append(ctx, samples...); err != nil {
		return err
	}
	if len(samples) > 0 {
		s.bus.Publish(summarize(samples))
	}
	return nil
}

// Subscribe returns a channel of Appended events, closed when the store is closed.
func (s *NotifyingStore) Subscribe() <-chan Appended { return s.bus.Subscribe() }

// Close closes subscriber channels, then the wrapped store.
func (s *NotifyingStore) Close() error {
	s.bus.Close()
	return s.Store.Close()
}

func summarize(samples []model.TelemetrySample) Appended {
	ev := Appended{Samples: len(samples), Earliest: samples[0].Timestamp, Latest: samples[0].Timestamp}
	seen := map[string]struct{}{}
	for _, smp := range samples {
		if smp.Timestamp.Before(ev.Earliest) {
			ev.Earliest = smp.Timestamp
		}
		if smp.Timestamp.After(ev.Latest) {
			ev.Latest = smp.Timestamp
		}
		if _, ok := seen[smp.VehicleID]; !ok {
			seen[smp.VehicleID] = struct{}{}
			ev.Vehicles = append(ev.Vehicles, smp.VehicleID)
		}
	}
	return ev
}
