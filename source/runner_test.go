package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubsink/pubsink/backend"
	"github.com/pubsink/pubsink/journal"
	"github.com/pubsink/pubsink/sink"
)

// fakeSource serves queued records and records commits. Fetch blocks on ctx
// once the queue is empty, like a real consumer with nothing to deliver.
type fakeSource struct {
	mu        sync.Mutex
	queue     []sink.Record
	offsets   []int64
	committed [][]int
	commitErr error
	closed    bool
}

func (f *fakeSource) push(r sink.Record, offset int64) {
	f.mu.Lock()
	f.queue = append(f.queue, r)
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()
}

func (f *fakeSource) Fetch(ctx context.Context) (sink.Record, int64, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		r, offset := f.queue[0], f.offsets[0]
		f.queue, f.offsets = f.queue[1:], f.offsets[1:]
		f.mu.Unlock()
		return r, offset, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return sink.Record{}, 0, ctx.Err()
}

func (f *fakeSource) Commit(ctx context.Context, partitions []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	copied := make([]int, len(partitions))
	copy(copied, partitions)
	f.committed = append(f.committed, copied)
	return nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) commits() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]int, len(f.committed))
	copy(out, f.committed)
	return out
}

func startTestTask(t *testing.T, pub sink.Publisher, minBatchSize int) *sink.Task {
	t.Helper()
	task := sink.NewTask()
	require.NoError(t, task.Start(sink.TaskConfig{
		Destination:  "ingest.records",
		MinBatchSize: minBatchSize,
		Publisher:    pub,
	}))
	return task
}

func newTestRunner(t *testing.T, task *sink.Task, src Source, j *journal.Journal) *Runner {
	t.Helper()
	r, err := NewRunner(RunnerConfig{
		Task:         task,
		Source:       src,
		Journal:      j,
		FetchTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return r
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(RunnerConfig{Source: &fakeSource{}})
	assert.Error(t, err)

	_, err = NewRunner(RunnerConfig{Task: sink.NewTask()})
	assert.Error(t, err)

	r, err := NewRunner(RunnerConfig{Task: sink.NewTask(), Source: &fakeSource{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultCheckpointInterval, r.config.CheckpointInterval)
	assert.Equal(t, DefaultFetchTimeout, r.config.FetchTimeout)
}

func TestRunnerFetchOnceFeedsTask(t *testing.T) {
	src := &fakeSource{}
	src.push(sink.Record{Partition: 2, Value: []byte("a")}, 17)

	task := startTestTask(t, &backend.Mock{}, 10)
	r := newTestRunner(t, task, src, nil)

	r.fetchOnce()

	assert.Equal(t, 1, task.Buffered())
	require.Contains(t, r.active, 2)
	assert.Equal(t, int64(17), r.active[2].offset)
	assert.Equal(t, int64(1), r.active[2].records)
}

func TestRunnerCheckpointCommitsSucceededPartitions(t *testing.T) {
	src := &fakeSource{}
	src.push(sink.Record{Partition: 0, Value: []byte("a")}, 5)
	src.push(sink.Record{Partition: 1, Value: []byte("b")}, 9)

	task := startTestTask(t, &backend.Mock{}, 10)
	r := newTestRunner(t, task, src, nil)

	r.fetchOnce()
	r.fetchOnce()
	r.checkpoint()

	require.Equal(t, [][]int{{0, 1}}, src.commits())
	assert.Empty(t, r.active)
	assert.Equal(t, 0, task.Buffered())
}

func TestRunnerCheckpointWithholdsFailedPartition(t *testing.T) {
	src := &fakeSource{}
	src.push(sink.Record{Partition: 0, Value: []byte("a")}, 1)
	src.push(sink.Record{Partition: 1, Value: []byte("b")}, 1)

	pub := &backend.Mock{Manual: true}
	task := startTestTask(t, pub, 1) // every record dispatches eagerly
	r := newTestRunner(t, task, src, nil)

	r.fetchOnce()
	r.fetchOnce()

	cause := errors.New("endpoint unavailable")
	for _, call := range pub.Calls() {
		if call.Records[0].Partition == 0 {
			call.Handle.Resolve(nil)
		} else {
			call.Handle.Resolve(cause)
		}
	}

	r.checkpoint()

	// Only the clean partition is committed; the failed one stays active
	require.Equal(t, [][]int{{0}}, src.commits())
	assert.NotContains(t, r.active, 0)
	assert.Contains(t, r.active, 1)
}

func TestRunnerCheckpointKeepsProgressWhenCommitFails(t *testing.T) {
	src := &fakeSource{commitErr: errors.New("group rebalancing")}
	src.push(sink.Record{Partition: 0, Value: []byte("a")}, 3)

	task := startTestTask(t, &backend.Mock{}, 10)
	r := newTestRunner(t, task, src, nil)

	r.fetchOnce()
	r.checkpoint()

	// Commit failed: the partition stays active and is recommitted later
	assert.Contains(t, r.active, 0)
}

func TestRunnerCheckpointJournalsCommits(t *testing.T) {
	j, err := journal.Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	src := &fakeSource{}
	src.push(sink.Record{Partition: 4, Value: []byte("a")}, 100)
	src.push(sink.Record{Partition: 4, Value: []byte("b")}, 101)

	task := startTestTask(t, &backend.Mock{}, 10)
	r := newTestRunner(t, task, src, j)

	r.fetchOnce()
	r.fetchOnce()
	r.checkpoint()

	entry, ok, err := j.Last(4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(101), entry.Offset)
	assert.Equal(t, int64(2), entry.Records)
}

func TestRunnerStopRunsFinalCheckpoint(t *testing.T) {
	src := &fakeSource{}
	src.push(sink.Record{Partition: 0, Value: []byte("a")}, 1)

	task := startTestTask(t, &backend.Mock{}, 10)
	r, err := NewRunner(RunnerConfig{
		Task:               task,
		Source:             src,
		CheckpointInterval: time.Hour, // only the final checkpoint fires
		FetchTimeout:       10 * time.Millisecond,
	})
	require.NoError(t, err)

	r.Start()
	require.Eventually(t, func() bool {
		return task.Buffered() == 1
	}, 2*time.Second, 5*time.Millisecond)

	r.Stop()

	require.Equal(t, [][]int{{0}}, src.commits())
	assert.Equal(t, 0, task.Buffered())
}
