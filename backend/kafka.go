package backend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/pubsink/pubsink/cfg"
	"github.com/pubsink/pubsink/sink"
)

const (
	DefaultKafkaBatchBytes = 1 << 20 // 1MB
)

func init() {
	sink.RegisterPublisher("kafka", func(config cfg.DestinationConfiguration) (sink.Publisher, error) {
		if len(config.Brokers) == 0 {
			return nil, fmt.Errorf("kafka destination requires at least one broker")
		}
		return newChannelPool(config, func() (sink.Publisher, error) {
			return NewKafka(config.Brokers), nil
		})
	})
}

// Kafka publishes batches to a Kafka topic through one writer connection.
// Record attributes travel as message headers; the source key doubles as the
// Kafka message key so downstream partitioning follows it.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates one publishing channel to Kafka.
func NewKafka(brokers []string) *Kafka {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{}, // same key -> same destination partition
		BatchBytes:   DefaultKafkaBatchBytes,
		RequiredAcks: kafka.RequireAll,
		// One attempt per write; the engine surfaces failures at the flush
		// barrier and relies on upstream redelivery.
		MaxAttempts:            1,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{writer: writer}
}

// Publish writes the whole batch in one WriteMessages call from a background
// goroutine and resolves the handle with its outcome. A single call keeps the
// records in submission order per destination partition.
func (k *Kafka) Publish(destination string, records []sink.Record) *sink.Handle {
	h := sink.NewHandle()

	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		headers := []kafka.Header{
			{Key: sink.AttrPartition, Value: []byte(strconv.Itoa(r.Partition))},
		}
		if r.Key != nil {
			headers = append(headers, kafka.Header{Key: sink.AttrKey, Value: r.Key})
		}
		msgs = append(msgs, kafka.Message{
			Topic:   destination,
			Key:     r.Key,
			Value:   r.Value,
			Headers: headers,
		})
	}

	go func() {
		if err := k.writer.WriteMessages(context.Background(), msgs...); err != nil {
			h.Resolve(fmt.Errorf("failed to write to %s: %w", destination, err))
			return
		}
		h.Resolve(nil)
	}()

	return h
}

// Close releases the writer.
func (k *Kafka) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
