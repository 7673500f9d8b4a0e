package sink

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleResolveSuccess(t *testing.T) {
	h := NewHandle()
	assert.False(t, h.Done())

	h.Resolve(nil)
	assert.True(t, h.Done())
	assert.NoError(t, h.Await())
}

func TestHandleResolveFailure(t *testing.T) {
	h := NewHandle()
	cause := errors.New("broker unavailable")

	h.Resolve(cause)
	assert.True(t, h.Done())
	assert.ErrorIs(t, h.Await(), cause)
}

func TestHandleResolveOnlyFirstWins(t *testing.T) {
	h := NewHandle()
	h.Resolve(nil)
	h.Resolve(errors.New("late failure"))

	// Outcome is frozen at first resolution
	assert.NoError(t, h.Await())
	assert.NoError(t, h.Await())
}

func TestHandleAwaitBlocksUntilResolved(t *testing.T) {
	h := NewHandle()
	resultCh := make(chan error, 1)

	go func() {
		resultCh <- h.Await()
	}()

	select {
	case <-resultCh:
		t.Fatal("Await returned before resolution")
	case <-time.After(20 * time.Millisecond):
	}

	h.Resolve(nil)

	select {
	case err := <-resultCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after resolution")
	}
}
