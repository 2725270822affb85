package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nurapulse/pulse/core/model"
)

// MemoryStore keeps samples in memory for tests and lightweight deployments.
// A sample with the same vehicle and timestamp as a stored one replaces it.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[time.Time]model.TelemetrySample
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]model.TelemetrySample{}}
}

// Append stores the samples. Nothing is stored if one of them is invalid.
func (s *MemoryStore) Append(_ context.Context, samples ...model.TelemetrySample) error {
	for _, smp := range samples {
		if err := smp.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, smp := range samples {
		m := s.data[smp.VehicleID]
		if m == nil {
			m = map[time.Time]model.TelemetrySample{}
			s.data[smp.VehicleID] = m
		}
		m[smp.Timestamp.UTC().Truncate(time.Second)] = smp
	}
	return nil
}

// Query returns matching samples ordered by vehicle then timestamp.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]model.TelemetrySample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.TelemetrySample
	for _, m := range s.data {
		for _, smp := range m {
			if q.Matches(smp) {
				res = append(res, smp)
			}
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].VehicleID != res[j].VehicleID {
			return res[i].VehicleID < res[j].VehicleID
		}
		return res[i].Timestamp.Before(res[j].Timestamp)
	})
	return res, nil
}

// Vehicles lists the known vehicle ids in ascending order.
func (s *MemoryStore) Vehicles(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
