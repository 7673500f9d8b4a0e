package sink

import "sync"

// Outstanding tracks in-flight publish handles per partition. The dispatcher
// appends in call order; flush snapshots, awaits outside the lock, and then
// discards the prefix it confirmed. Handles are only ever appended at the
// tail, so a snapshot is always a stable prefix of the partition's list.
type Outstanding struct {
	mu      sync.Mutex
	handles map[int][]*Handle
}

// NewOutstanding returns an empty registry.
func NewOutstanding() *Outstanding {
	return &Outstanding{handles: make(map[int][]*Handle)}
}

// Add appends a handle to a partition's outstanding list.
func (o *Outstanding) Add(partition int, h *Handle) {
	o.mu.Lock()
	o.handles[partition] = append(o.handles[partition], h)
	o.mu.Unlock()
}

// Len returns the outstanding handle count for a partition.
func (o *Outstanding) Len(partition int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.handles[partition])
}

// Total returns the outstanding handle count across all partitions.
func (o *Outstanding) Total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, hs := range o.handles {
		total += len(hs)
	}
	return total
}

// Snapshot returns the current handles for a partition without removing them.
// The returned slice is a copy; the registry may grow behind it.
func (o *Outstanding) Snapshot(partition int) []*Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	current := o.handles[partition]
	if len(current) == 0 {
		return nil
	}
	snapshot := make([]*Handle, len(current))
	copy(snapshot, current)
	return snapshot
}

// Discard removes the first n handles of a partition's list, the prefix a
// flush confirmed as successfully resolved. Handles appended after the
// snapshot was taken sit beyond the prefix and are kept. The partition's
// entry is removed entirely once its list is empty.
func (o *Outstanding) Discard(partition, n int) {
	if n <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	current := o.handles[partition]
	if n >= len(current) {
		delete(o.handles, partition)
		return
	}
	remaining := make([]*Handle, len(current)-n)
	copy(remaining, current[n:])
	o.handles[partition] = remaining
}
