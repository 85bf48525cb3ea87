package event

import (
	"context"
	"time"
)

// DefaultLimit bounds latest-event queries when the caller gives no limit.
const DefaultLimit = 50

// MaxLimit is the hard ceiling on latest-event query size.
const MaxLimit = 1000

// LatestQuery selects the newest events, optionally restricted to a set of
// log types and/or a single event id. Filters are conjunctive.
type LatestQuery struct {
	Limit    int
	LogTypes []LogType
	EventID  *int
}

// Projection is the row shape returned by latest-event queries.
type Projection struct {
	LogType LogType  `json:"log_type"`
	Time    string   `json:"time"`
	EventID int      `json:"event_id"`
	Source  string   `json:"source"`
	Message []string `json:"message"`
}

// LogStats aggregates one log type. Oldest/Newest are nil when the log type
// has no rows.
type LogStats struct {
	LogType LogType    `json:"log_type"`
	Count   int64      `json:"count"`
	Oldest  *time.Time `json:"oldest,omitempty"`
	Newest  *time.Time `json:"newest,omitempty"`
}

// Stats is the per-log-type breakdown plus the grand total. Total always
// equals the sum of the per-log-type counts.
type Stats struct {
	PerLog []LogStats `json:"stats"`
	Total  int64      `json:"total"`
}

// Store is the persistence boundary for events. Ingest is idempotent on
// (log_type, record_number): re-ingesting an overlapping batch inserts only
// the rows not already present and reports that count. Latest and Stats are
// pure reads, safe to call concurrently with ingestion.
type Store interface {
	Ingest(ctx context.Context, lt LogType, records []Record) (int, error)
	Latest(ctx context.Context, q LatestQuery) ([]Projection, error)
	Stats(ctx context.Context) (*Stats, error)
}
