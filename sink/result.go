package sink

import (
	"fmt"
	"sort"
	"strings"
)

// FlushResult reports the outcome of one checkpoint barrier per requested
// partition. A partial failure is never collapsed into an opaque error: the
// caller may commit progress for Succeeded partitions and must withhold it
// for Failed ones.
type FlushResult struct {
	Succeeded []int
	Failed    map[int]error
}

// OK reports whether every requested partition flushed cleanly.
func (r *FlushResult) OK() bool {
	return len(r.Failed) == 0
}

// Err returns nil when the flush succeeded, otherwise a single error naming
// every failed partition and its first failure reason.
func (r *FlushResult) Err() error {
	if r.OK() {
		return nil
	}

	partitions := make([]int, 0, len(r.Failed))
	for p := range r.Failed {
		partitions = append(partitions, p)
	}
	sort.Ints(partitions)

	parts := make([]string, 0, len(partitions))
	for _, p := range partitions {
		parts = append(parts, fmt.Sprintf("partition %d: %v", p, r.Failed[p]))
	}
	return fmt.Errorf("flush failed for %d partition(s): %s", len(partitions), strings.Join(parts, "; "))
}
