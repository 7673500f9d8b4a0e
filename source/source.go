// Package source feeds the sink engine from a partitioned upstream and turns
// successful flush barriers into committed progress. This is the loop a host
// connector framework would otherwise provide: fetch, put, checkpoint and
// commit, where a partition is only ever committed after its flush succeeded.
package source

import (
	"context"

	"github.com/pubsink/pubsink/sink"
)

// Source supplies records from a partitioned upstream and commits consumption
// progress for partitions that have cleared the flush barrier.
type Source interface {
	// Fetch blocks until one record is available or ctx expires, returning
	// the record and its source offset.
	Fetch(ctx context.Context) (sink.Record, int64, error)

	// Commit acknowledges everything fetched so far for the given partitions.
	// Called only after a flush barrier reported them successful.
	Commit(ctx context.Context, partitions []int) error

	Close() error
}
