// Package journal keeps a durable record of committed checkpoints. It stores
// metadata about progress (per-partition offset, record count, commit time),
// not buffered records; losing buffered data across restarts is recovered by
// upstream redelivery, while this journal survives to explain where each
// partition last committed.
package journal

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/s2"
	"github.com/vmihailenco/msgpack/v5"
)

const prefixCheckpoint = "/checkpoint/"

// Entry is one committed checkpoint for a partition.
type Entry struct {
	Partition   int   `msgpack:"p" json:"partition"`
	Offset      int64 `msgpack:"o" json:"offset"`
	Records     int64 `msgpack:"n" json:"records"`
	CommittedAt int64 `msgpack:"ts" json:"committed_at"` // unix ms
}

// Journal is a Pebble-backed store of the latest committed checkpoint per
// partition. Values are msgpack-encoded and s2-compressed. Safe for
// concurrent use; Pebble handles write concurrency internally.
type Journal struct {
	db     *pebble.DB
	path   string
	closed atomic.Bool
}

// Open creates or opens the journal under dataDir.
func Open(dataDir string) (*Journal, error) {
	path := filepath.Join(dataDir, "checkpoints")

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint journal at %s: %w", path, err)
	}

	return &Journal{db: db, path: path}, nil
}

// Record persists the latest checkpoint for an entry's partition,
// overwriting any previous one.
func (j *Journal) Record(e Entry) error {
	if j.closed.Load() {
		return fmt.Errorf("journal is closed")
	}

	encoded, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint entry: %w", err)
	}

	if err := j.db.Set(checkpointKey(e.Partition), s2.Encode(nil, encoded), pebble.Sync); err != nil {
		return fmt.Errorf("failed to write checkpoint for partition %d: %w", e.Partition, err)
	}
	return nil
}

// Last returns the latest committed checkpoint for a partition; ok is false
// when the partition has never committed.
func (j *Journal) Last(partition int) (Entry, bool, error) {
	if j.closed.Load() {
		return Entry{}, false, fmt.Errorf("journal is closed")
	}

	value, closer, err := j.db.Get(checkpointKey(partition))
	if err == pebble.ErrNotFound {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read checkpoint for partition %d: %w", partition, err)
	}
	defer closer.Close()

	entry, err := decodeEntry(value)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// All returns the latest committed checkpoint of every partition, ordered by
// partition id.
func (j *Journal) All() ([]Entry, error) {
	if j.closed.Load() {
		return nil, fmt.Errorf("journal is closed")
	}

	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixCheckpoint),
		UpperBound: keyUpperBound([]byte(prefixCheckpoint)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create journal iterator: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		entry, err := decodeEntry(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("journal iteration failed: %w", err)
	}
	return entries, nil
}

// Close closes the underlying store. Further calls fail fast.
func (j *Journal) Close() error {
	if !j.closed.CompareAndSwap(false, true) {
		return nil
	}
	return j.db.Close()
}

func checkpointKey(partition int) []byte {
	return []byte(fmt.Sprintf("%s%08x", prefixCheckpoint, partition))
}

func decodeEntry(value []byte) (Entry, error) {
	decoded, err := s2.Decode(nil, value)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to decompress checkpoint entry: %w", err)
	}
	var entry Entry
	if err := msgpack.Unmarshal(decoded, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to decode checkpoint entry: %w", err)
	}
	return entry, nil
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}
