package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAppendPreservesArrivalOrder(t *testing.T) {
	b := NewBuffer()
	b.Append(3, Record{Partition: 3, Value: []byte("first")})
	b.Append(3, Record{Partition: 3, Value: []byte("second")})
	b.Append(3, Record{Partition: 3, Value: []byte("third")})

	require.Equal(t, 3, b.Len(3))

	drained := b.Drain(3)
	require.Len(t, drained, 3)
	assert.Equal(t, []byte("first"), drained[0].Value)
	assert.Equal(t, []byte("second"), drained[1].Value)
	assert.Equal(t, []byte("third"), drained[2].Value)
}

func TestBufferPartitionsAreIndependent(t *testing.T) {
	b := NewBuffer()
	b.Append(0, Record{Partition: 0, Value: []byte("a")})
	b.Append(1, Record{Partition: 1, Value: []byte("b")})
	b.Append(1, Record{Partition: 1, Value: []byte("c")})

	assert.Equal(t, 1, b.Len(0))
	assert.Equal(t, 2, b.Len(1))
	assert.Equal(t, 3, b.Total())

	drained := b.Drain(1)
	assert.Len(t, drained, 2)
	assert.Equal(t, 1, b.Len(0))
	assert.Equal(t, 0, b.Len(1))
}

func TestBufferDrainClearsPartition(t *testing.T) {
	b := NewBuffer()
	b.Append(5, Record{Partition: 5, Value: []byte("x")})

	require.Len(t, b.Drain(5), 1)
	assert.Nil(t, b.Drain(5))
	assert.Equal(t, 0, b.Total())
}

func TestBufferDrainAll(t *testing.T) {
	b := NewBuffer()
	b.Append(0, Record{Partition: 0, Value: []byte("a")})
	b.Append(7, Record{Partition: 7, Value: []byte("b")})
	b.Append(7, Record{Partition: 7, Value: []byte("c")})

	drained := b.DrainAll()
	require.Len(t, drained, 2)
	assert.Len(t, drained[0], 1)
	assert.Len(t, drained[7], 2)
	assert.Equal(t, 0, b.Total())
	assert.Empty(t, b.DrainAll())
}
