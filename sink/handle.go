package sink

import (
	"sync/atomic"

	"github.com/jizhuozhi/go-future"
)

// Handle tracks one in-flight publish call. It resolves exactly once, usually
// from the transport's I/O goroutine, and can be polled or awaited from any
// other goroutine. A resolved handle never changes; querying it again returns
// the cached outcome.
type Handle struct {
	promise *future.Promise[struct{}]
	fut     *future.Future[struct{}]
	claimed atomic.Bool
	done    atomic.Bool
}

// NewHandle returns an unresolved handle.
func NewHandle() *Handle {
	p := future.NewPromise[struct{}]()
	return &Handle{promise: p, fut: p.Future()}
}

// Resolve sets the outcome, nil for success. Only the first call wins; later
// calls are no-ops, so transports may resolve defensively from multiple paths.
func (h *Handle) Resolve(err error) {
	if !h.claimed.CompareAndSwap(false, true) {
		return
	}
	h.promise.Set(struct{}{}, err)
	h.done.Store(true)
}

// Done reports whether the handle has resolved, without blocking.
func (h *Handle) Done() bool {
	return h.done.Load()
}

// Await blocks until the handle resolves and returns its outcome. Awaiting an
// already-resolved handle returns immediately.
func (h *Handle) Await() error {
	_, err := h.fut.Get()
	return err
}
