package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAttributesWithKey(t *testing.T) {
	r := Record{Partition: 12, Key: []byte("device-7"), Value: []byte("payload")}

	attrs := r.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "device-7", attrs[AttrKey])
	assert.Equal(t, "12", attrs[AttrPartition])
}

func TestRecordAttributesWithoutKey(t *testing.T) {
	r := Record{Partition: 0, Value: []byte("payload")}

	attrs := r.Attributes()
	require.Len(t, attrs, 1)
	_, hasKey := attrs[AttrKey]
	assert.False(t, hasKey)
	assert.Equal(t, "0", attrs[AttrPartition])
}

func TestRecordAttributesEmptyKeyIsStillAKey(t *testing.T) {
	// nil means "no key"; an empty non-nil key is a real (empty) key
	r := Record{Partition: 3, Key: []byte{}, Value: []byte("payload")}

	attrs := r.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "", attrs[AttrKey])
}
