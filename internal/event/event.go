// Package event defines the canonical audit event model, normalization from
// raw source records, and the persistence boundary for the event store.
package event

import (
	"errors"
	"time"
)

// TimeLayout is the fixed-width timestamp layout used on the wire and in the
// store. Zero-padded so lexical ordering matches chronological ordering, but
// all internal comparison and sorting goes through time.Time.
const TimeLayout = "2006-01-02 15:04:05"

// LogType identifies the originating log. The well-known values below cover
// the standard OS logs; the store accepts any non-empty value.
type LogType string

const (
	LogSystem      LogType = "System"
	LogSecurity    LogType = "Security"
	LogApplication LogType = "Application"
)

// KnownLogTypes lists the log types the collector polls by default.
var KnownLogTypes = []LogType{LogSystem, LogSecurity, LogApplication}

// ErrMalformed marks a record that is missing a required field. Ingestion
// skips the record and continues with the rest of the batch.
var ErrMalformed = errors.New("malformed event record")

// Record is one normalized log entry. (LogType, RecordNumber) is the natural
// key: RecordNumber is the originating log's own monotonic sequence id,
// scoped per log type.
type Record struct {
	LogType        LogType   `json:"log_type"`
	EventID        int       `json:"event_id"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"-"`
	Category       int       `json:"category"`
	RecordNumber   int64     `json:"record_number"`
	EventType      int       `json:"event_type"`
	MessageInserts []string  `json:"message"`
}

// Validate reports whether the record carries the fields the dedup key and
// time ordering depend on.
func (r *Record) Validate() error {
	if r.LogType == "" {
		return errors.New("log_type is required")
	}
	if r.RecordNumber <= 0 {
		return errors.New("record_number is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}

// Time returns the timestamp in the canonical fixed-width layout.
func (r *Record) Time() string {
	return r.Timestamp.Format(TimeLayout)
}

// ParseTime parses a timestamp in the canonical layout, falling back to
// RFC 3339 for producers that already emit structured time.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
