package sink

import "github.com/puzpuzpuz/xsync/v3"

// Stats holds hot-path counters for the task. xsync counters keep the ingest
// path cheap under concurrent sources; snapshots feed the admin API.
type Stats struct {
	ingested   *xsync.Counter
	filtered   *xsync.Counter
	batches    *xsync.Counter
	published  *xsync.Counter
	flushes    *xsync.Counter
	flushFails *xsync.Counter
}

// StatsSnapshot is a point-in-time view of the task counters.
type StatsSnapshot struct {
	RecordsIngested  int64 `json:"records_ingested"`
	RecordsFiltered  int64 `json:"records_filtered"`
	BatchesDispatch  int64 `json:"batches_dispatched"`
	RecordsPublished int64 `json:"records_published"`
	Flushes          int64 `json:"flushes"`
	FlushFailures    int64 `json:"flush_failures"`
}

func newStats() *Stats {
	return &Stats{
		ingested:   xsync.NewCounter(),
		filtered:   xsync.NewCounter(),
		batches:    xsync.NewCounter(),
		published:  xsync.NewCounter(),
		flushes:    xsync.NewCounter(),
		flushFails: xsync.NewCounter(),
	}
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		RecordsIngested:  s.ingested.Value(),
		RecordsFiltered:  s.filtered.Value(),
		BatchesDispatch:  s.batches.Value(),
		RecordsPublished: s.published.Value(),
		Flushes:          s.flushes.Value(),
		FlushFailures:    s.flushFails.Value(),
	}
}
