package coordinator

import (
	"sync"

	"eldcore/internal/hos/models"
)

// driverLocks hands out one RWMutex per driver and forgets it once nobody holds it.
type driverLocks struct {
	mu    sync.Mutex
	locks map[models.DriverID]*driverLock
}

type driverLock struct {
	sync.RWMutex
	refs int
}

func newDriverLocks() *driverLocks {
	return &driverLocks{locks: make(map[models.DriverID]*driverLock)}
}

func (l *driverLocks) acquire(id models.DriverID) *driverLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		e = &driverLock{}
		l.locks[id] = e
	}
	e.refs++
	return e
}

func (l *driverLocks) release(id models.DriverID, e *driverLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}

// Lock takes the driver's write lock and returns its release func.
func (l *driverLocks) Lock(id models.DriverID) func() {
	e := l.acquire(id)
	e.Lock()
	return func() {
		e.Unlock()
		l.release(id, e)
	}
}

// RLock takes the driver's read lock and returns its release func.
func (l *driverLocks) RLock(id models.DriverID) func() {
	e := l.acquire(id)
	e.RLock()
	return func() {
		e.RUnlock()
		l.release(id, e)
	}
}

func (l *driverLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
