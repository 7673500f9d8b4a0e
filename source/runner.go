package source

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pubsink/pubsink/journal"
	"github.com/pubsink/pubsink/sink"
	"github.com/pubsink/pubsink/telemetry"
)

const (
	// Default interval between checkpoint barriers
	DefaultCheckpointInterval = 10 * time.Second
	// Default deadline for a single fetch call
	DefaultFetchTimeout = 500 * time.Millisecond
	// Deadline for committing offsets after a successful barrier
	commitTimeout = 10 * time.Second
)

// RunnerConfig configures the checkpoint runner
type RunnerConfig struct {
	Task               *sink.Task       // Sink engine to feed
	Source             Source           // Upstream to fetch from
	Journal            *journal.Journal // Checkpoint journal (nil disables persistence)
	CheckpointInterval time.Duration    // Interval between flush barriers
	FetchTimeout       time.Duration    // Deadline per fetch call
}

// progress tracks uncommitted consumption for one partition
type progress struct {
	offset  int64
	records int64
}

// Runner drives the fetch/put/checkpoint cycle. Each checkpoint flushes the
// partitions with uncommitted records and commits offsets only for those the
// barrier reported successful; failed partitions stay active and are retried
// on the next cycle, so the source redelivers nothing that was confirmed.
type Runner struct {
	config      RunnerConfig
	active      map[int]*progress // Partitions with uncommitted records
	stopCh      chan struct{}     // Stop signal
	doneCh      chan struct{}     // Done signal
	running     atomic.Bool
	lifecycleMu sync.Mutex // Protects Start/Stop lifecycle operations
}

// NewRunner creates a checkpoint runner
func NewRunner(config RunnerConfig) (*Runner, error) {
	if config.Task == nil {
		return nil, errors.New("task is required")
	}
	if config.Source == nil {
		return nil, errors.New("source is required")
	}

	if config.CheckpointInterval <= 0 {
		config.CheckpointInterval = DefaultCheckpointInterval
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultFetchTimeout
	}

	return &Runner{
		config: config,
		active: make(map[int]*progress),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start starts the runner goroutine
func (r *Runner) Start() {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.running.Load() {
		return // Already running
	}

	r.running.Store(true)
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	log.Info().
		Dur("checkpoint_interval", r.config.CheckpointInterval).
		Msg("Starting checkpoint runner")

	go r.runLoop()
}

// Stop stops the runner gracefully. A final checkpoint runs before it
// returns, so everything fetched so far is flushed and committed where
// possible.
func (r *Runner) Stop() {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if !r.running.Load() {
		return // Not running
	}

	log.Info().Msg("Stopping checkpoint runner")

	close(r.stopCh)
	<-r.doneCh // Wait for goroutine to finish
	r.running.Store(false)

	log.Info().Msg("Checkpoint runner stopped")
}

// runLoop is the main runner loop
func (r *Runner) runLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.CheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.checkpoint() // Final barrier before shutdown
			return
		case <-ticker.C:
			r.checkpoint()
		default:
			r.fetchOnce()
		}
	}
}

// fetchOnce pulls a single record from the source and hands it to the task.
// A fetch deadline is treated as "nothing available", not an error.
func (r *Runner) fetchOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.FetchTimeout)
	record, offset, err := r.config.Source.Fetch(ctx)
	cancel()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Msg("Failed to fetch from source")
		r.sleep(r.config.FetchTimeout)
		return
	}

	if err := r.config.Task.Put([]sink.Record{record}); err != nil {
		// The record was fetched but cannot be buffered. Progress for its
		// partition is not advanced, so it will be redelivered after restart.
		log.Error().
			Err(err).
			Int("partition", record.Partition).
			Msg("Sink rejected record")
		return
	}

	p := r.active[record.Partition]
	if p == nil {
		p = &progress{}
		r.active[record.Partition] = p
	}
	p.offset = offset
	p.records++

	telemetry.SourceRecordsTotal.Inc()
}

// checkpoint runs one flush barrier over every active partition and commits
// offsets for the partitions that succeeded.
func (r *Runner) checkpoint() {
	if len(r.active) == 0 {
		return
	}

	partitions := make([]int, 0, len(r.active))
	for partition := range r.active {
		partitions = append(partitions, partition)
	}
	sort.Ints(partitions)

	result := r.config.Task.Flush(partitions)

	for partition, err := range result.Failed {
		log.Warn().
			Err(err).
			Int("partition", partition).
			Msg("Checkpoint barrier failed for partition, will retry")
		telemetry.CheckpointCommitsTotal.With("failed").Inc()
	}

	if len(result.Succeeded) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	err := r.config.Source.Commit(ctx, result.Succeeded)
	cancel()
	if err != nil {
		// Publishes are confirmed but offsets are not. Keeping the
		// partitions active recommits them on the next cycle; a crash before
		// then redelivers records that were already published, which the
		// at-least-once contract allows.
		log.Error().
			Err(err).
			Ints("partitions", result.Succeeded).
			Msg("Failed to commit source offsets")
		for range result.Succeeded {
			telemetry.CheckpointCommitsTotal.With("failed").Inc()
		}
		return
	}

	now := time.Now().UnixMilli()
	for _, partition := range result.Succeeded {
		p := r.active[partition]
		if r.config.Journal != nil {
			entry := journal.Entry{
				Partition:   partition,
				Offset:      p.offset,
				Records:     p.records,
				CommittedAt: now,
			}
			if err := r.config.Journal.Record(entry); err != nil {
				log.Warn().
					Err(err).
					Int("partition", partition).
					Msg("Failed to journal checkpoint")
			}
		}
		delete(r.active, partition)
		telemetry.CheckpointCommitsTotal.With("success").Inc()
	}

	log.Debug().
		Int("committed", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("Checkpoint complete")
}

// sleep sleeps for the given duration, checking stopCh
// Returns true if sleep completed, false if stopped
func (r *Runner) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-r.stopCh:
		return false
	case <-timer.C:
		return true
	}
}
