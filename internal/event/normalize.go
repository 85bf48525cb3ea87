package event

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// RawRecord is one record as produced by the event source. Field names follow
// the source's casing; Time is a string because the source serializes
// timestamps before they reach us.
type RawRecord struct {
	EventID   int      `json:"EventID"`
	Source    string   `json:"Source"`
	Time      string   `json:"Time"`
	Category  int      `json:"Category"`
	Record    int64    `json:"Record"`
	EventType int      `json:"EventType"`
	Message   []string `json:"Message"`
}

// Normalize maps a raw source record into the canonical Record shape under
// the given log type. A nil/absent message list materializes as an empty
// slice so downstream code never sees a nil collection. Records missing the
// dedup key or a parseable timestamp fail with ErrMalformed.
func Normalize(lt LogType, raw *RawRecord) (Record, error) {
	if raw.Record <= 0 {
		return Record{}, fmt.Errorf("%w: missing record number", ErrMalformed)
	}
	ts, err := ParseTime(raw.Time)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad timestamp %q: %v", ErrMalformed, raw.Time, err)
	}

	msg := raw.Message
	if msg == nil {
		msg = []string{}
	}

	return Record{
		LogType:        lt,
		EventID:        raw.EventID,
		Source:         raw.Source,
		Timestamp:      ts,
		Category:       raw.Category,
		RecordNumber:   raw.Record,
		EventType:      raw.EventType,
		MessageInserts: msg,
	}, nil
}

// ParseBatch decodes a raw ingest payload into RawRecords. The payload is
// either a bare array of records or an object with an "events" array (the
// shape the source's file exports use). Source field casing is accepted
// alongside the canonical snake_case names.
func ParseBatch(p *fastjson.Parser, body []byte) ([]RawRecord, error) {
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}

	arr := v.GetArray()
	if arr == nil {
		arr = v.GetArray("events")
	}
	if arr == nil {
		return nil, fmt.Errorf("parse batch: expected array or object with events array")
	}

	out := make([]RawRecord, 0, len(arr))
	for _, val := range arr {
		out = append(out, rawFromValue(val))
	}
	return out, nil
}

func rawFromValue(v *fastjson.Value) RawRecord {
	raw := RawRecord{
		EventID:   intField(v, "EventID", "event_id"),
		Source:    stringField(v, "Source", "source"),
		Time:      stringField(v, "Time", "time"),
		Category:  intField(v, "Category", "category"),
		Record:    int64(intField(v, "Record", "record_number")),
		EventType: intField(v, "EventType", "event_type"),
	}

	msgs := v.GetArray("Message")
	if msgs == nil {
		msgs = v.GetArray("message")
	}
	raw.Message = make([]string, 0, len(msgs))
	for _, m := range msgs {
		raw.Message = append(raw.Message, string(m.GetStringBytes()))
	}
	return raw
}

func intField(v *fastjson.Value, names ...string) int {
	for _, n := range names {
		if v.Exists(n) {
			return v.GetInt(n)
		}
	}
	return 0
}

func stringField(v *fastjson.Value, names ...string) string {
	for _, n := range names {
		if v.Exists(n) {
			return string(v.GetStringBytes(n))
		}
	}
	return ""
}
