package telemetry

// Histogram bucket definitions
var (
	// FlushBuckets for checkpoint barrier latency (dominated by in-flight
	// publish completion)
	FlushBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

	// BatchSizeBuckets for records per dispatched batch (hard cap 1000)
	BatchSizeBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// Ingest path metrics
var (
	// RecordsIngestedTotal counts records accepted into partition buffers
	RecordsIngestedTotal Counter = NoopStat{}

	// RecordsFilteredTotal counts records dropped by the key filter
	RecordsFilteredTotal Counter = NoopStat{}

	// BatchesDispatchedTotal counts batches handed to the publisher
	BatchesDispatchedTotal Counter = NoopStat{}

	// BatchSizeRecords measures records per dispatched batch
	BatchSizeRecords Histogram = NoopStat{}

	// BufferedRecords tracks records pending across all partition buffers
	BufferedRecords Gauge = NoopStat{}
)

// Barrier metrics
var (
	// OutstandingPublishes tracks unresolved publish handles across partitions
	OutstandingPublishes Gauge = NoopStat{}

	// PublishFailuresTotal counts publish handles that resolved with an error
	PublishFailuresTotal Counter = NoopStat{}

	// FlushTotal counts checkpoint barriers by result (success, failed)
	FlushTotal CounterVec = noopCounterVec{}

	// FlushDurationSeconds measures checkpoint barrier duration
	FlushDurationSeconds Histogram = NoopStat{}
)

// Source metrics
var (
	// SourceRecordsTotal counts records fetched from the source
	SourceRecordsTotal Counter = NoopStat{}

	// CheckpointCommitsTotal counts committed partitions by result
	CheckpointCommitsTotal CounterVec = noopCounterVec{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	RecordsIngestedTotal = NewCounter(
		"records_ingested_total",
		"Records accepted into partition buffers",
	)
	RecordsFilteredTotal = NewCounter(
		"records_filtered_total",
		"Records dropped by the key filter",
	)
	BatchesDispatchedTotal = NewCounter(
		"batches_dispatched_total",
		"Batches handed to the publisher",
	)
	BatchSizeRecords = NewHistogramWithBuckets(
		"batch_size_records",
		"Records per dispatched batch",
		BatchSizeBuckets,
	)
	BufferedRecords = NewGauge(
		"buffered_records",
		"Records pending across all partition buffers",
	)

	OutstandingPublishes = NewGauge(
		"outstanding_publishes",
		"Unresolved publish handles across partitions",
	)
	PublishFailuresTotal = NewCounter(
		"publish_failures_total",
		"Publish handles resolved with an error",
	)
	FlushTotal = NewCounterVec(
		"flush_total",
		"Checkpoint barriers by result",
		[]string{"result"},
	)
	FlushDurationSeconds = NewHistogramWithBuckets(
		"flush_duration_seconds",
		"Checkpoint barrier duration in seconds",
		FlushBuckets,
	)

	SourceRecordsTotal = NewCounter(
		"source_records_total",
		"Records fetched from the source",
	)
	CheckpointCommitsTotal = NewCounterVec(
		"checkpoint_commits_total",
		"Committed partitions by result",
		[]string{"result"},
	)
}
