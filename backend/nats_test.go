package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStreamName(t *testing.T) {
	assert.Equal(t, "pubsink_records", sanitizeStreamName("pubsink.records"))
	assert.Equal(t, "plain", sanitizeStreamName("plain"))
	assert.Equal(t, "a_b_c", sanitizeStreamName("a.b.c"))
}
