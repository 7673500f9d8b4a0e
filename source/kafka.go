package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/pubsink/pubsink/cfg"
	"github.com/pubsink/pubsink/sink"
)

const (
	kafkaMinBytes = 1
	kafkaMaxBytes = 10 << 20 // 10MB
)

// Kafka consumes records from a Kafka topic within a consumer group. Offsets
// are committed manually: the runner commits a partition only after a flush
// barrier confirmed every publish for it, which is what makes redelivery
// cover any lost progress.
type Kafka struct {
	reader *kafka.Reader

	mu   sync.Mutex
	last map[int]kafka.Message // highest fetched message per partition
}

// NewKafka creates a Kafka source from configuration.
func NewKafka(config cfg.SourceConfiguration) *Kafka {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  config.Brokers,
		GroupID:  config.GroupID,
		Topic:    config.Topic,
		MinBytes: kafkaMinBytes,
		MaxBytes: kafkaMaxBytes,
	})
	return &Kafka{reader: reader, last: make(map[int]kafka.Message)}
}

// Fetch returns the next record. The message is remembered as the partition's
// commit candidate; it is not committed here.
func (k *Kafka) Fetch(ctx context.Context) (sink.Record, int64, error) {
	msg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return sink.Record{}, 0, err
	}

	key := msg.Key
	if len(key) == 0 {
		key = nil
	}

	k.mu.Lock()
	k.last[msg.Partition] = msg
	k.mu.Unlock()

	return sink.Record{
		Partition: msg.Partition,
		Key:       key,
		Value:     msg.Value,
	}, msg.Offset, nil
}

// Commit acknowledges the highest fetched message of each given partition.
func (k *Kafka) Commit(ctx context.Context, partitions []int) error {
	k.mu.Lock()
	msgs := make([]kafka.Message, 0, len(partitions))
	for _, p := range partitions {
		if msg, ok := k.last[p]; ok {
			msgs = append(msgs, msg)
		}
	}
	k.mu.Unlock()

	if len(msgs) == 0 {
		return nil
	}
	if err := k.reader.CommitMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to commit offsets: %w", err)
	}
	return nil
}

// Close releases the reader.
func (k *Kafka) Close() error {
	return k.reader.Close()
}
