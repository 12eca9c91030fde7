// Package ranking maintains the fixed top-parks projection: the full
// dataset ordered by descending bench count. It is independent of the
// search filter and always reflects the unfiltered dataset.
package ranking

import (
	"sort"
	"sync"

	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
)

// TopCount is how many parks the ranking panel shows.
const TopCount = 10

// Service recomputes the projection whenever a dataset is published.
type Service struct {
	mu  sync.RWMutex
	top []domain.ParkRecord
}

// NewService creates a ranking service subscribed to dataset loads.
func NewService(bus eventbus.EventBus) *Service {
	s := &Service{}
	bus.Subscribe(eventbus.EventDatasetLoaded, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.DatasetLoadedEvent); ok {
			s.update(event.Parks)
		}
	})
	return s
}

func (s *Service) update(parks []domain.ParkRecord) {
	top := TopParks(parks, TopCount)
	s.mu.Lock()
	s.top = top
	s.mu.Unlock()
}

// Top returns the current projection. The slice is not shared.
func (s *Service) Top() []domain.ParkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ParkRecord, len(s.top))
	copy(out, s.top)
	return out
}

// TopParks sorts a copy of parks by descending count and truncates to
// n. The sort is stable: ties keep the dataset's original order.
func TopParks(parks []domain.ParkRecord, n int) []domain.ParkRecord {
	out := make([]domain.ParkRecord, len(parks))
	copy(out, parks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
