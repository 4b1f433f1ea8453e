package notify

import (
	"sync"

	"eldcore/internal/hos/models"
)

// RingBuffer is a bounded, thread-safe queue of violation records.
// When full, the oldest records are dropped to make room for new ones.
type RingBuffer struct {
	mu       sync.Mutex
	items    []models.Violation
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1024
	}
	return &RingBuffer{
		items:    make([]models.Violation, capacity),
		capacity: capacity,
	}
}

// Enqueue adds v, dropping the oldest record if necessary.
// Returns false when a record was dropped.
func (b *RingBuffer) Enqueue(v models.Violation) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := true
	if b.count >= b.capacity {
		b.items[b.tail] = models.Violation{}
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		kept = false
	}

	b.items[b.head] = v
	b.head = (b.head + 1) % b.capacity
	b.count++
	return kept
}

// DequeueBatch removes up to n records in arrival order.
func (b *RingBuffer) DequeueBatch(n int) []models.Violation {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	if n <= 0 || n > b.count {
		n = b.count
	}

	out := make([]models.Violation, n)
	for i := range n {
		out[i] = b.items[b.tail]
		b.items[b.tail] = models.Violation{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of records evicted to make room.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
