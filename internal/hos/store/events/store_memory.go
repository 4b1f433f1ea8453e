package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/platform/sentinel"
)

// InMemoryStore is an append-only event log for tests and single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[models.DriverID][]models.DutyStatusEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[models.DriverID][]models.DutyStatusEvent)}
}

// Append adds ev to the driver's log. A zero sequence number is assigned as latest+1.
func (s *InMemoryStore) Append(_ context.Context, ev models.DutyStatusEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.events[ev.DriverID]
	var latest int64
	if n := len(log); n > 0 {
		latest = log[n-1].SequenceNumber
	}
	if ev.SequenceNumber == 0 {
		ev.SequenceNumber = latest + 1
	}
	if ev.SequenceNumber <= latest {
		return 0, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeDuplicateSequence,
			"sequence number already used for driver")
	}
	ev = ev.Normalized()
	s.events[ev.DriverID] = append(log, ev)
	return ev.SequenceNumber, nil
}

// ReadSince returns the driver's events with a sequence number greater than afterSeq.
func (s *InMemoryStore) ReadSince(_ context.Context, driverID models.DriverID, afterSeq int64) ([]models.DutyStatusEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.events[driverID]
	i := sort.Search(len(log), func(i int) bool { return log[i].SequenceNumber > afterSeq })
	return append([]models.DutyStatusEvent(nil), log[i:]...), nil
}

// ReadRange returns the driver's events timestamped within [start, end], newest first.
func (s *InMemoryStore) ReadRange(_ context.Context, driverID models.DriverID, start, end time.Time) ([]models.DutyStatusEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DutyStatusEvent
	for _, ev := range s.events[driverID] {
		if !ev.Timestamp.Before(start) && !ev.Timestamp.After(end) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out, nil
}

func (s *InMemoryStore) LatestSequence(_ context.Context, driverID models.DriverID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.events[driverID]
	if len(log) == 0 {
		return 0, nil
	}
	return log[len(log)-1].SequenceNumber, nil
}

// ListDrivers returns up to limit driver ids greater than after, in ascending order.
func (s *InMemoryStore) ListDrivers(_ context.Context, after models.DriverID, limit int) ([]models.DriverID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]models.DriverID, 0, len(s.events))
	for id := range s.events {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
