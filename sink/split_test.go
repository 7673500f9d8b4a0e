package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(partition, n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{Partition: partition, Value: []byte{byte(i), byte(i >> 8)}}
	}
	return records
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		maxSize   int
		wantSizes []int
	}{
		{
			name:      "empty input yields no batches",
			records:   0,
			maxSize:   10,
			wantSizes: nil,
		},
		{
			name:      "under cap stays one batch",
			records:   7,
			maxSize:   10,
			wantSizes: []int{7},
		},
		{
			name:      "exactly at cap stays one batch",
			records:   10,
			maxSize:   10,
			wantSizes: []int{10},
		},
		{
			name:      "one over cap splits",
			records:   11,
			maxSize:   10,
			wantSizes: []int{10, 1},
		},
		{
			name:      "exact multiple has no short tail",
			records:   30,
			maxSize:   10,
			wantSizes: []int{10, 10, 10},
		},
		{
			name:      "large drain against request cap",
			records:   2500,
			maxSize:   MaxRequestSize,
			wantSizes: []int{1000, 1000, 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := makeRecords(0, tt.records)
			batches, err := Split(input, tt.maxSize)
			require.NoError(t, err)
			require.Len(t, batches, len(tt.wantSizes))

			for i, want := range tt.wantSizes {
				assert.Len(t, batches[i], want)
			}

			// Concatenating the batches must reproduce the input exactly
			var flat []Record
			for _, batch := range batches {
				flat = append(flat, batch...)
			}
			assert.Equal(t, input, flat)
		})
	}
}

func TestSplitRejectsNonPositiveMax(t *testing.T) {
	_, err := Split(makeRecords(0, 5), 0)
	assert.ErrorIs(t, err, ErrBatchSize)

	_, err = Split(makeRecords(0, 5), -1)
	assert.ErrorIs(t, err, ErrBatchSize)
}
