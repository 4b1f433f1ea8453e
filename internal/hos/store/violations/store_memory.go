package violations

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"eldcore/internal/hos/models"
)

// InMemoryStore is an append-only violation log.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[models.DriverID][]models.Violation
	seen    map[uuid.UUID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[models.DriverID][]models.Violation),
		seen:    make(map[uuid.UUID]struct{}),
	}
}

// Append records violations in order. Records whose ID is already present are skipped,
// so replaying an append is harmless.
func (s *InMemoryStore) Append(_ context.Context, vs []models.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vs {
		if _, ok := s.seen[v.ID]; ok {
			continue
		}
		s.seen[v.ID] = struct{}{}
		s.records[v.DriverID] = append(s.records[v.DriverID], v)
	}
	return nil
}

// ListByDriver returns the driver's records detected at or after since, in append order.
func (s *InMemoryStore) ListByDriver(_ context.Context, driverID models.DriverID, since time.Time) ([]models.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Violation
	for _, v := range s.records[driverID] {
		if v.DetectedAt.Before(since) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
