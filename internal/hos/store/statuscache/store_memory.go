// Package statuscache holds the disposable per-driver status projections.
//
// Entries carry the source sequence they reflect; freshness is decided by the caller
// comparing it with the event log, never by the cache itself.
package statuscache

import (
	"context"
	"sync"

	"eldcore/internal/hos/models"
)

// InMemoryCache is a process-local cache.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[models.DriverID]models.StatusProjection
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[models.DriverID]models.StatusProjection)}
}

func (c *InMemoryCache) Get(_ context.Context, driverID models.DriverID) (models.StatusProjection, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	proj, ok := c.entries[driverID]
	if !ok {
		return models.StatusProjection{}, false, nil
	}
	return clone(proj), true, nil
}

func (c *InMemoryCache) Put(_ context.Context, driverID models.DriverID, proj models.StatusProjection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[driverID] = clone(proj)
	return nil
}

func (c *InMemoryCache) Invalidate(_ context.Context, driverID models.DriverID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, driverID)
	return nil
}

func clone(p models.StatusProjection) models.StatusProjection {
	p.Violations = append([]models.Violation(nil), p.Violations...)
	if p.State.SplitCandidate != nil {
		cand := *p.State.SplitCandidate
		p.State.SplitCandidate = &cand
	}
	return p
}
