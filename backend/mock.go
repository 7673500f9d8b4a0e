package backend

import (
	"sync"

	"github.com/pubsink/pubsink/sink"
)

// Mock is a publisher for testing. By default every handle resolves
// immediately with Err (nil = success); set Manual to resolve handles from
// the test instead.
type Mock struct {
	mu     sync.Mutex
	calls  []MockCall
	Err    error
	Manual bool
	closed bool
}

// MockCall records one Publish invocation.
type MockCall struct {
	Destination string
	Records     []sink.Record
	Handle      *sink.Handle
}

// Publish records the call and returns its handle.
func (m *Mock) Publish(destination string, records []sink.Record) *sink.Handle {
	h := sink.NewHandle()

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		Destination: destination,
		Records:     records,
		Handle:      h,
	})
	m.mu.Unlock()

	if !m.Manual {
		h.Resolve(m.Err)
	}
	return h
}

// Close marks the publisher closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns a copy of all recorded publish calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// ResolveAll resolves every unresolved handle with err.
func (m *Mock) ResolveAll(err error) {
	for _, c := range m.Calls() {
		c.Handle.Resolve(err)
	}
}
