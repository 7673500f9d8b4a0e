package sink

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pubsink/pubsink/telemetry"
)

// TaskConfig configures a sink task.
type TaskConfig struct {
	Destination  string    // Destination topic or subject
	MinBatchSize int       // Eager-dispatch threshold (hard cap stays MaxRequestSize)
	Publisher    Publisher // Transport capability
	Filter       Filter    // Optional; nil publishes everything
}

// Task is the orchestrator-facing surface of the engine: Start, Put, Flush,
// Stop. Put accumulates and eagerly dispatches; Flush is the checkpoint
// barrier. The caller is expected not to overlap Put and Flush for the same
// partitions, but the engine tolerates interleaving since handles resolve on
// transport goroutines regardless.
type Task struct {
	destination  string
	minBatchSize int
	publisher    Publisher
	filter       Filter

	buffer      *Buffer
	outstanding *Outstanding
	dispatcher  *Dispatcher
	stats       *Stats

	started atomic.Bool
}

// NewTask returns an unstarted task.
func NewTask() *Task {
	return &Task{
		buffer:      NewBuffer(),
		outstanding: NewOutstanding(),
		stats:       newStats(),
	}
}

// Start validates the configuration and arms the task. Called once before use.
func (t *Task) Start(config TaskConfig) error {
	if config.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if config.MinBatchSize <= 0 {
		return fmt.Errorf("min batch size must be positive, got %d", config.MinBatchSize)
	}
	if config.Publisher == nil {
		return fmt.Errorf("publisher is required")
	}
	if config.Filter == nil {
		config.Filter = AllowAll{}
	}

	t.destination = config.Destination
	t.minBatchSize = config.MinBatchSize
	t.publisher = config.Publisher
	t.filter = config.Filter
	t.dispatcher = NewDispatcher(config.Publisher, config.Destination, t.outstanding)
	t.started.Store(true)

	log.Info().
		Str("destination", t.destination).
		Int("min_batch_size", t.minBatchSize).
		Msg("Sink task started")
	return nil
}

// Put accumulates records in arrival order and checks the dispatch threshold
// after every record, so a partition's buffer is drained and dispatched the
// moment it reaches MinBatchSize. Invalid records fail the call before
// anything from the failing record onward is buffered; records already
// accumulated by this call stay accumulated.
func (t *Task) Put(records []Record) error {
	if !t.started.Load() {
		return ErrNotStarted
	}

	for _, r := range records {
		if err := validateRecord(r); err != nil {
			return err
		}

		if !t.filter.Match(r.Key) {
			t.stats.filtered.Inc()
			telemetry.RecordsFilteredTotal.Inc()
			continue
		}

		t.buffer.Append(r.Partition, r)
		t.stats.ingested.Inc()
		telemetry.RecordsIngestedTotal.Inc()

		if t.buffer.Len(r.Partition) >= t.minBatchSize {
			t.dispatchPartition(r.Partition)
		}
	}

	telemetry.BufferedRecords.Set(float64(t.buffer.Total()))
	telemetry.OutstandingPublishes.Set(float64(t.outstanding.Total()))
	return nil
}

// Flush is the checkpoint barrier. It drains and dispatches every partition's
// residual records (requested or not; residuals are never dropped), then
// awaits every outstanding handle for the requested partitions. Only
// partitions whose every handle resolved successfully are cleared from the
// registry and reported in Succeeded; the caller must not commit progress for
// any other partition.
func (t *Task) Flush(partitions []int) *FlushResult {
	result := &FlushResult{Failed: make(map[int]error)}
	if !t.started.Load() {
		for _, p := range partitions {
			result.Failed[p] = ErrNotStarted
		}
		return result
	}

	start := time.Now()

	// Draining + dispatching: residual buffers for all partitions.
	for partition, records := range t.buffer.DrainAll() {
		if err := t.dispatcher.DispatchDrained(partition, records); err != nil {
			result.Failed[partition] = err
			continue
		}
		t.recordDispatch(len(records))
	}

	// Awaiting: barrier on every outstanding handle per requested partition.
	for _, partition := range partitions {
		if _, alreadyFailed := result.Failed[partition]; alreadyFailed {
			continue
		}
		if err := t.awaitPartition(partition); err != nil {
			result.Failed[partition] = err
			continue
		}
		result.Succeeded = append(result.Succeeded, partition)
	}

	t.stats.flushes.Inc()
	telemetry.FlushDurationSeconds.Observe(time.Since(start).Seconds())
	telemetry.OutstandingPublishes.Set(float64(t.outstanding.Total()))
	telemetry.BufferedRecords.Set(float64(t.buffer.Total()))

	if result.OK() {
		telemetry.FlushTotal.With("success").Inc()
	} else {
		t.stats.flushFails.Inc()
		telemetry.FlushTotal.With("failed").Inc()
		log.Warn().Err(result.Err()).Msg("Flush failed")
	}
	return result
}

// Stop releases the publisher. It does not flush; a normal shutdown should
// checkpoint first, while abnormal termination may drop buffered records and
// rely on upstream redelivery.
func (t *Task) Stop() {
	if !t.started.CompareAndSwap(true, false) {
		return
	}
	if err := t.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close publisher")
	}
	log.Info().Str("destination", t.destination).Msg("Sink task stopped")
}

// Stats returns the task's hot-path counters.
func (t *Task) Stats() *Stats {
	return t.stats
}

// Buffered returns the total pending record count, for the admin surface.
func (t *Task) Buffered() int {
	return t.buffer.Total()
}

// Outstanding returns the total in-flight handle count, for the admin surface.
func (t *Task) OutstandingPublishes() int {
	return t.outstanding.Total()
}

// dispatchPartition drains one partition and dispatches the result as
// request-size-bounded batches.
func (t *Task) dispatchPartition(partition int) {
	records := t.buffer.Drain(partition)
	if len(records) == 0 {
		return
	}
	if err := t.dispatcher.DispatchDrained(partition, records); err != nil {
		// Cannot happen with the constant request cap; keep the failure loud.
		log.Error().Err(err).Int("partition", partition).Msg("Eager dispatch failed")
		return
	}
	t.recordDispatch(len(records))
}

// awaitPartition blocks until every handle registered for the partition at
// the time of the call has resolved. On success the awaited prefix is
// discarded. On the first failure it stops awaiting this partition, discards
// only the successfully resolved prefix, and leaves the failed handle plus
// anything unawaited registered so a retried flush re-observes them.
func (t *Task) awaitPartition(partition int) error {
	snapshot := t.outstanding.Snapshot(partition)
	for i, h := range snapshot {
		if err := h.Await(); err != nil {
			t.outstanding.Discard(partition, i)
			telemetry.PublishFailuresTotal.Inc()
			return fmt.Errorf("publish failed: %w", err)
		}
	}
	t.outstanding.Discard(partition, len(snapshot))
	return nil
}

func (t *Task) recordDispatch(records int) {
	t.stats.published.Add(int64(records))
	t.stats.batches.Add(int64((records + MaxRequestSize - 1) / MaxRequestSize))
}

func validateRecord(r Record) error {
	if r.Partition < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePartition, r.Partition)
	}
	if r.Value == nil {
		return fmt.Errorf("%w (partition %d)", ErrNilValue, r.Partition)
	}
	return nil
}
