package sink

import "errors"

var (
	// ErrNotStarted is returned by Put and Flush before Start has been called.
	ErrNotStarted = errors.New("sink task not started")

	// ErrBatchSize is returned by Split for a non-positive max batch size.
	ErrBatchSize = errors.New("max batch size must be positive")

	// ErrNilValue rejects a record with no value before it is buffered.
	ErrNilValue = errors.New("record has no value")

	// ErrNegativePartition rejects a record with a negative partition id
	// before it is buffered.
	ErrNegativePartition = errors.New("record partition must be non-negative")
)
