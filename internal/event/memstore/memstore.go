// Package memstore provides an in-memory implementation of event.Store.
// Suitable for dev and testing; ingestion is idempotent on the same
// (log_type, record_number) key the durable store enforces.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/linnemanlabs/logtriage/internal/event"
)

type key struct {
	lt  event.LogType
	rec int64
}

// Store holds events in memory.
type Store struct {
	mu     sync.RWMutex
	events map[key]event.Record
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{events: make(map[key]event.Record)}
}

// Ingest inserts records under lt, skipping duplicates and malformed rows.
// Returns the number of records newly inserted by this call.
func (s *Store) Ingest(_ context.Context, lt event.LogType, records []event.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for i := range records {
		r := records[i]
		r.LogType = lt
		if err := r.Validate(); err != nil {
			continue
		}
		k := key{lt: lt, rec: r.RecordNumber}
		if _, ok := s.events[k]; ok {
			continue
		}
		if r.MessageInserts == nil {
			r.MessageInserts = []string{}
		}
		s.events[k] = r
		inserted++
	}
	return inserted, nil
}

// Latest returns the newest events matching q, newest first.
func (s *Store) Latest(_ context.Context, q event.LatestQuery) ([]event.Projection, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = event.DefaultLimit
	}
	if limit > event.MaxLimit {
		limit = event.MaxLimit
	}

	want := make(map[event.LogType]bool, len(q.LogTypes))
	for _, lt := range q.LogTypes {
		want[lt] = true
	}

	s.mu.RLock()
	matched := make([]event.Record, 0, len(s.events))
	for _, r := range s.events {
		if len(want) > 0 && !want[r.LogType] {
			continue
		}
		if q.EventID != nil && r.EventID != *q.EventID {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]event.Projection, 0, len(matched))
	for _, r := range matched {
		out = append(out, event.Projection{
			LogType: r.LogType,
			Time:    r.Time(),
			EventID: r.EventID,
			Source:  r.Source,
			Message: r.MessageInserts,
		})
	}
	return out, nil
}

// Stats returns per-log-type aggregates and the total count.
func (s *Store) Stats(_ context.Context) (*event.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[event.LogType]*event.LogStats)
	for _, r := range s.events {
		ls, ok := byType[r.LogType]
		if !ok {
			ls = &event.LogStats{LogType: r.LogType}
			byType[r.LogType] = ls
		}
		ls.Count++
		ts := r.Timestamp
		if ls.Oldest == nil || ts.Before(*ls.Oldest) {
			t := ts
			ls.Oldest = &t
		}
		if ls.Newest == nil || ts.After(*ls.Newest) {
			t := ts
			ls.Newest = &t
		}
	}

	st := &event.Stats{PerLog: make([]event.LogStats, 0, len(byType))}
	for _, ls := range byType {
		st.PerLog = append(st.PerLog, *ls)
		st.Total += ls.Count
	}
	sort.Slice(st.PerLog, func(i, j int) bool {
		return st.PerLog[i].LogType < st.PerLog[j].LogType
	})
	return st, nil
}
