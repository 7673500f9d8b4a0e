package sink

import "sync"

// Buffer accumulates pending records per source partition in arrival order.
// It is purely accumulation and retrieval; threshold and batching decisions
// belong to the task. Safe for concurrent use; the lock covers only map and
// slice manipulation.
type Buffer struct {
	mu      sync.Mutex
	pending map[int][]Record
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{pending: make(map[int][]Record)}
}

// Append adds a record to its partition's pending list, creating the list
// lazily on first use.
func (b *Buffer) Append(partition int, r Record) {
	b.mu.Lock()
	b.pending[partition] = append(b.pending[partition], r)
	b.mu.Unlock()
}

// Len returns the pending count for a partition, 0 if absent.
func (b *Buffer) Len(partition int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[partition])
}

// Total returns the pending count across all partitions.
func (b *Buffer) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, records := range b.pending {
		total += len(records)
	}
	return total
}

// Drain returns and clears the pending list for a partition. Returns nil if
// the partition has nothing pending.
func (b *Buffer) Drain(partition int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	records := b.pending[partition]
	delete(b.pending, partition)
	return records
}

// DrainAll drains every partition with pending records. Used only by flush.
func (b *Buffer) DrainAll() map[int][]Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.pending
	b.pending = make(map[int][]Record)
	return drained
}
