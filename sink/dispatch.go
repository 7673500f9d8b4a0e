package sink

import (
	"github.com/rs/zerolog/log"

	"github.com/pubsink/pubsink/telemetry"
)

// Dispatcher turns batches into Publisher calls and records the returned
// handles against their partition's outstanding list. Dispatching is
// non-blocking; it returns as soon as the handle is obtained.
type Dispatcher struct {
	publisher   Publisher
	destination string
	outstanding *Outstanding
}

// NewDispatcher wires a dispatcher to a publisher, a destination and the
// shared outstanding registry.
func NewDispatcher(publisher Publisher, destination string, outstanding *Outstanding) *Dispatcher {
	return &Dispatcher{
		publisher:   publisher,
		destination: destination,
		outstanding: outstanding,
	}
}

// Dispatch publishes one batch and registers its handle in call order.
// The same logical batch must not be dispatched twice; nothing here
// deduplicates.
func (d *Dispatcher) Dispatch(partition int, batch []Record) *Handle {
	h := d.publisher.Publish(d.destination, batch)
	d.outstanding.Add(partition, h)

	telemetry.BatchesDispatchedTotal.Inc()
	telemetry.BatchSizeRecords.Observe(float64(len(batch)))
	log.Trace().
		Int("partition", partition).
		Int("records", len(batch)).
		Str("destination", d.destination).
		Msg("Dispatched batch")

	return h
}

// DispatchDrained splits a full buffer drain into request-size-bounded
// batches and dispatches each in order. Either every batch is registered or,
// on a split error, none are.
func (d *Dispatcher) DispatchDrained(partition int, records []Record) error {
	batches, err := Split(records, MaxRequestSize)
	if err != nil {
		return err
	}
	for _, batch := range batches {
		d.Dispatch(partition, batch)
	}
	return nil
}
