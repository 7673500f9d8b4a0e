package sink

// Split slices records into contiguous batches of at most maxSize each,
// preserving order. Batch i covers indices [i*maxSize, min((i+1)*maxSize,
// len)), so concatenating the result reproduces the input exactly: no gaps,
// no overlaps, no duplicates. Empty input yields zero batches. The returned
// batches alias the input slice; callers must not mutate it afterwards.
func Split(records []Record, maxSize int) ([][]Record, error) {
	if maxSize <= 0 {
		return nil, ErrBatchSize
	}
	if len(records) == 0 {
		return nil, nil
	}

	batches := make([][]Record, 0, (len(records)+maxSize-1)/maxSize)
	for start := 0; start < len(records); start += maxSize {
		end := min(start+maxSize, len(records))
		batches = append(batches, records[start:end])
	}
	return batches, nil
}
