package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pubsink/pubsink/cfg"
	"github.com/pubsink/pubsink/sink"
)

const natsEnsureTimeout = 5 * time.Second

func init() {
	sink.RegisterPublisher("nats", func(config cfg.DestinationConfiguration) (sink.Publisher, error) {
		if config.NatsURL == "" {
			return nil, fmt.Errorf("nats destination requires nats_url")
		}
		return newChannelPool(config, func() (sink.Publisher, error) {
			return NewNATS(config.NatsURL)
		})
	})
}

// NATS publishes batches to NATS JetStream. Each record becomes one message
// on the destination subject with its attributes carried as headers; the
// batch handle resolves once every server ack has arrived.
type NATS struct {
	nc *nats.Conn
	js jetstream.JetStream

	streamMu sync.Mutex
	streams  map[string]struct{}
}

// NewNATS connects one publishing channel to NATS JetStream.
func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATS{nc: nc, js: js, streams: make(map[string]struct{})}, nil
}

// Publish sends the batch asynchronously. The returned handle resolves from
// a background goroutine once every record in the batch is acked, or with the
// first error. Record order within the batch is preserved: messages go out on
// one connection in submission order.
func (n *NATS) Publish(destination string, records []sink.Record) *sink.Handle {
	h := sink.NewHandle()

	go func() {
		if err := n.ensureStream(destination); err != nil {
			h.Resolve(err)
			return
		}

		acks := make([]jetstream.PubAckFuture, 0, len(records))
		for _, r := range records {
			msg := &nats.Msg{
				Subject: destination,
				Data:    r.Value,
				Header:  nats.Header{},
			}
			for name, value := range r.Attributes() {
				msg.Header.Set(name, value)
			}

			ack, err := n.js.PublishMsgAsync(msg)
			if err != nil {
				h.Resolve(fmt.Errorf("failed to publish to %s: %w", destination, err))
				return
			}
			acks = append(acks, ack)
		}

		for _, ack := range acks {
			select {
			case <-ack.Ok():
			case err := <-ack.Err():
				h.Resolve(fmt.Errorf("publish to %s rejected: %w", destination, err))
				return
			}
		}
		h.Resolve(nil)
	}()

	return h
}

// Close releases the connection.
func (n *NATS) Close() error {
	if n.nc != nil {
		n.nc.Close()
	}
	return nil
}

// ensureStream creates the stream backing a subject once per process.
func (n *NATS) ensureStream(subject string) error {
	n.streamMu.Lock()
	defer n.streamMu.Unlock()

	if _, ok := n.streams[subject]; ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), natsEnsureTimeout)
	defer cancel()

	_, err := n.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      sanitizeStreamName(subject),
		Subjects:  []string{subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream for %s: %w", subject, err)
	}

	n.streams[subject] = struct{}{}
	return nil
}

// sanitizeStreamName converts a subject to a valid JetStream stream name.
// Stream names can't contain "." so we replace with "_".
func sanitizeStreamName(subject string) string {
	result := make([]byte, len(subject))
	for i := 0; i < len(subject); i++ {
		if subject[i] == '.' {
			result[i] = '_'
		} else {
			result[i] = subject[i]
		}
	}
	return string(result)
}
