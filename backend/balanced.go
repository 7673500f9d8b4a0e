package backend

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/pubsink/pubsink/sink"
)

// Balance modes for the channel pool.
const (
	BalanceRoundRobin = "round_robin" // spread batches across all channels
	BalancePartition  = "partition"   // pin each source partition to one channel
)

// Balanced fans publish calls out over a pool of underlying publisher
// channels. Round-robin maximizes throughput; partition affinity keeps all of
// one partition's batches on a single connection, which preserves cross-batch
// ordering on transports that order per connection. The engine itself is
// agnostic to how many channels exist or how they are chosen.
type Balanced struct {
	channels []sink.Publisher
	mode     string
	next     atomic.Uint64
}

// NewBalanced wraps the given channels. Mode must be one of the Balance
// constants.
func NewBalanced(channels []sink.Publisher, mode string) (*Balanced, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("balanced publisher requires at least one channel")
	}
	switch mode {
	case BalanceRoundRobin, BalancePartition:
	default:
		return nil, fmt.Errorf("unknown balance mode: %s", mode)
	}
	return &Balanced{channels: channels, mode: mode}, nil
}

// Publish forwards the batch to one channel. Non-blocking as long as the
// underlying channels are.
func (b *Balanced) Publish(destination string, records []sink.Record) *sink.Handle {
	return b.pick(records).Publish(destination, records)
}

// Close closes every channel, returning the first error.
func (b *Balanced) Close() error {
	var firstErr error
	for _, ch := range b.channels {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *Balanced) pick(records []sink.Record) sink.Publisher {
	if len(b.channels) == 1 {
		return b.channels[0]
	}

	// Batches are per-partition, so the first record's partition stands for
	// the whole batch.
	if b.mode == BalancePartition && len(records) > 0 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(records[0].Partition))
		return b.channels[xxhash.Sum64(buf[:])%uint64(len(b.channels))]
	}

	return b.channels[b.next.Add(1)%uint64(len(b.channels))]
}
