package sink

import "strconv"

// Attribute names attached to every outgoing record.
const (
	AttrKey       = "key"       // present only when the source record carried a key
	AttrPartition = "partition" // always present, decimal source partition id
)

// MaxRequestSize is the hard cap on records per publish request. The eager
// dispatch threshold (TaskConfig.MinBatchSize) may be smaller; a drained
// buffer is always re-split so no single request exceeds this bound.
const MaxRequestSize = 1000

// Record is one keyed record from a source partition. Immutable once created;
// the engine never mutates Key or Value.
type Record struct {
	Partition int
	Key       []byte // nil when the source record had no key
	Value     []byte
}

// Attributes returns the metadata attached to the record at the destination.
// The value bytes themselves travel unchanged.
func (r Record) Attributes() map[string]string {
	attrs := map[string]string{
		AttrPartition: strconv.Itoa(r.Partition),
	}
	if r.Key != nil {
		attrs[AttrKey] = string(r.Key)
	}
	return attrs
}

// Publisher is the transport capability the engine publishes through.
//
// Publish must not block the calling goroutine: it returns a handle that
// resolves out-of-band once the batch has been accepted (or rejected) by the
// destination. Records within one call must be recorded at the destination in
// the order given; ordering across separate calls is not part of the contract.
// Retry and backoff policy live behind this interface, not in the engine.
type Publisher interface {
	Publish(destination string, records []Record) *Handle
	Close() error
}
